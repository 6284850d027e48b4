// Package relay receives Adapty webhooks and forwards selected subscription
// events to a Telegram chat.
package relay

import (
	"context"
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/mihaimyh/subrelay/pkg/adapty"
	"github.com/mihaimyh/subrelay/pkg/relay/internal"
	"github.com/mihaimyh/subrelay/pkg/telegram"
)

const (
	bearerPrefix        = "Bearer "
	healthStatusOK      = "ok"
	notFoundBody        = "Not found"
	otherEventsLabel    = "other"
	headerAuthorization = "Authorization"
)

// Handler serves OPTIONS on any path, GET /health and POST /webhook.
// Everything else is answered with 404. It keeps no state between requests.
type Handler struct {
	config Config
	router http.Handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Get("/health", h.handleHealth)
	r.Post("/webhook", h.handleWebhook)
	r.NotFound(h.handleNotFound)
	r.MethodNotAllowed(h.handleNotFound)
	return r
}

// corsMiddleware sets the CORS headers on every response and answers
// preflight requests for any path.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internal.SetCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s := h.config.Secrets
	_ = internal.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:           healthStatusOK,
		Timestamp:        h.config.Now().UnixMilli(),
		HasToken:         s.WebhookAuthToken != "",
		HasTelegramToken: s.TelegramBotToken != "",
		HasChatID:        s.TelegramChatID != "",
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.config.Logger.Debug("unknown endpoint",
		Field{Key: "method", Value: r.Method},
		Field{Key: "path", Value: r.URL.Path},
	)
	_ = internal.WriteText(w, http.StatusNotFound, notFoundBody)
}

// handleWebhook authorizes the request and runs the processing pipeline.
// Only authorization failures produce a non-200 status; every other failure
// is acknowledged with 200 and reported in the body so the provider does not
// retry.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	logger := h.config.Logger

	if err := h.authorize(r); err != nil {
		logger.Warn("webhook authorization failed", stringField(fieldReason, err.Error()))
		h.config.Metrics.RecordWebhookError(ErrorTypeAuthFailed)
		_ = internal.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		return
	}

	resp, label, err := h.process(w, r)
	h.config.Metrics.RecordWebhookProcessingDuration(label, time.Since(startTime))
	if err != nil {
		stack := stackTrace(err)
		logger.Error("failed to process webhook",
			stringField(fieldEventType, label),
			errorField(err),
			stringField(fieldStack, stack),
		)
		h.config.Metrics.RecordWebhookEvent(label, DispositionFailed)
		h.config.Metrics.RecordWebhookError(errorType(err))
		_ = internal.WriteJSON(w, http.StatusOK, ErrorResponse{Error: err.Error(), Stack: stack})
		return
	}

	_ = internal.WriteJSON(w, http.StatusOK, resp)
}

// authorize checks for "Bearer <token>" with a token equal to the configured
// secret. An empty secret never matches.
func (h *Handler) authorize(r *http.Request) error {
	header := r.Header.Get(headerAuthorization)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return ErrMissingAuthorization
	}
	token := header[len(bearerPrefix):]
	secret := h.config.Secrets.WebhookAuthToken
	if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// process parses and classifies the event and forwards tracked production
// events. The returned label is the metrics event type. Panics are
// recovered into errors.
func (h *Handler) process(w http.ResponseWriter, r *http.Request) (resp *WebhookResponse, label string, err error) {
	label = otherEventsLabel
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()

	logger := h.config.Logger

	body, err := internal.ReadBodyStrict(w, r, h.config.MaxBodyBytes)
	if err != nil {
		return nil, label, errors.WithStack(&ParseError{Err: err})
	}
	ev, err := adapty.ParseEvent(body)
	if err != nil {
		return nil, label, errors.WithStack(&ParseError{Err: err})
	}

	tracked := adapty.IsTracked(ev.EventType)
	if tracked {
		label = ev.EventType.String()
	}
	environment := adapty.ResolveEnvironment(ev)
	logger.Info("webhook event received",
		stringField(fieldEventType, ev.EventType.String()),
		stringField(fieldEnvironment, environment),
		Field{Key: "tracked", Value: tracked},
	)

	resp = &WebhookResponse{Success: true, EventType: ev.EventType.Raw()}

	if adapty.IsSandbox(ev) {
		logger.Info("skipping sandbox event",
			stringField(fieldEventType, ev.EventType.String()),
			stringField(fieldProfileID, ev.ProfileID.String()),
		)
		h.config.Metrics.RecordWebhookEvent(label, DispositionSkippedSandbox)
		resp.Skipped = true
		resp.Reason = ReasonSandboxEnvironment
		return resp, label, nil
	}

	if !tracked {
		logger.Info("skipping untracked event", stringField(fieldEventType, ev.EventType.String()))
		h.config.Metrics.RecordWebhookEvent(label, DispositionUntracked)
		return resp, label, nil
	}

	message := adapty.FormatMessage(ev)
	logger.Debug("formatted notification", Field{Key: "message", Value: message})

	if err := h.notify(r.Context(), message); err != nil {
		return nil, label, err
	}

	logger.Info("notification sent",
		stringField(fieldEventType, label),
		stringField(fieldProfileID, ev.ProfileID.String()),
	)
	h.config.Metrics.RecordWebhookEvent(label, DispositionNotified)
	return resp, label, nil
}

// notify performs the single outbound call. It is not cancelled when the
// inbound client goes away.
func (h *Handler) notify(ctx context.Context, message string) error {
	s := h.config.Secrets
	msg := telegram.NewHTMLMessage(s.TelegramChatID, message)
	if _, err := h.config.Notifier.SendMessage(context.WithoutCancel(ctx), s.TelegramBotToken, msg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
