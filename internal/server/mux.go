// Package server exposes the pid engine's three operations as a thin
// HTTP API (spec.md §6: "out of scope... thin wrappers over the three
// engine operations").
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/vesaakerman/easy-pid-generator/internal/config"
	"github.com/vesaakerman/easy-pid-generator/internal/pid"
)

type contextKey string

const contextKeyCorrelationID contextKey = "correlationId"

const (
	headerContentType   = "Content-Type"
	headerCorrelationID = "X-Correlation-Id"
	contentTypeJSON     = "application/json"
)

// Handler wires HTTP endpoints over a pid.Generator using net/http.
type Handler struct {
	cfg       config.Config
	generator *pid.Generator
	store     pid.Store
	logger    *slog.Logger
	clock     func() time.Time
	router    *http.ServeMux
}

// New creates a Handler using the supplied dependencies.
func New(cfg config.Config, store pid.Store, generator *pid.Generator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		cfg:       cfg,
		generator: generator,
		store:     store,
		logger:    logger,
		clock:     time.Now().UTC,
		router:    http.NewServeMux(),
	}
	h.registerRoutes()
	h.logger.Info("handler initialized", "env", h.cfg.Env, "doiPrefix", h.cfg.DOIPrefix, "urnNamespace", h.cfg.URNNamespace)
	return h
}

// Router returns an *http.ServeMux with all routes registered.
func (h *Handler) Router() *http.ServeMux {
	return h.router
}

func (h *Handler) registerRoutes() {
	h.router.Handle("/health", h.loggingMiddleware(h.timeoutMiddleware(http.HandlerFunc(h.health))))
	h.router.Handle("/ready", h.loggingMiddleware(h.timeoutMiddleware(http.HandlerFunc(h.readyHandler))))
	h.router.Handle("/metrics", h.loggingMiddleware(h.timeoutMiddleware(http.HandlerFunc(h.metricsHandler))))

	h.router.Handle("/v1/doi/initialize", h.loggingMiddleware(h.timeoutMiddleware(h.corsMiddleware(h.wrap(h.kindHandler(pid.KindDOI, h.handleInitialize))))))
	h.router.Handle("/v1/doi/generate", h.loggingMiddleware(h.timeoutMiddleware(h.corsMiddleware(h.wrap(h.kindHandler(pid.KindDOI, h.handleGenerate))))))
	h.router.Handle("/v1/doi/exists/", h.loggingMiddleware(h.timeoutMiddleware(h.corsMiddleware(h.wrap(h.kindHandler(pid.KindDOI, h.handleExists))))))

	h.router.Handle("/v1/urn/initialize", h.loggingMiddleware(h.timeoutMiddleware(h.corsMiddleware(h.wrap(h.kindHandler(pid.KindURN, h.handleInitialize))))))
	h.router.Handle("/v1/urn/generate", h.loggingMiddleware(h.timeoutMiddleware(h.corsMiddleware(h.wrap(h.kindHandler(pid.KindURN, h.handleGenerate))))))
	h.router.Handle("/v1/urn/exists/", h.loggingMiddleware(h.timeoutMiddleware(h.corsMiddleware(h.wrap(h.kindHandler(pid.KindURN, h.handleExists))))))
}

type responseEnvelope struct {
	Data  any            `json:"data,omitempty"`
	Error *errorEnvelope `json:"error,omitempty"`
}

type errorEnvelope struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Details       any    `json:"details,omitempty"`
	CorrelationID string `json:"correlationId"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// kindHandler binds a fixed pid.Kind into the handler so the three
// operation handlers below stay kind-agnostic.
func (h *Handler) kindHandler(kind pid.Kind, next func(http.ResponseWriter, *http.Request, pid.Kind)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r, kind)
	}
}

func (h *Handler) wrap(next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := h.ensureCorrelationID(w, r)
		ctx := context.WithValue(r.Context(), contextKeyCorrelationID, correlationID)
		r = r.WithContext(ctx)
		w.Header().Set(headerContentType, contentTypeJSON)

		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered", "panic", rec, "correlationId", correlationID)
				h.writeError(w, http.StatusInternalServerError, "PID_INTERNAL", "internal server error", correlationID, nil)
			}
		}()

		next(w, r)
	})
}

func (h *Handler) ensureCorrelationID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(headerCorrelationID))
	if id == "" {
		raw, err := uuid.NewRandom()
		if err != nil {
			id = uuid.NewString()
		} else {
			id = base58.Encode(raw[:])
		}
	}
	w.Header().Set(headerCorrelationID, id)
	return id
}

// handleInitialize implements POST /v1/{kind}/initialize, spec.md §4.3
// operation Initialize.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request, kind pid.Kind) {
	if r.Method != http.MethodPost {
		h.writeErrorWithRequest(w, r, http.StatusMethodNotAllowed, "PID_VALIDATION", "method not allowed", nil)
		return
	}

	var input struct {
		Seed uint64 `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeErrorWithRequest(w, r, http.StatusBadRequest, "PID_VALIDATION", "invalid JSON body", nil)
		return
	}

	if err := h.generator.Initialize(r.Context(), kind, input.Seed); err != nil {
		var already *pid.AlreadyInitializedError
		if errors.As(err, &already) {
			incrementInitialize(string(kind), "already_initialized")
			h.writeErrorWithRequest(w, r, http.StatusConflict, "PID_ALREADY_INITIALIZED", "kind already initialized", map[string]any{
				"existingSeed": already.ExistingSeed,
			})
			return
		}
		incrementInitialize(string(kind), "error")
		h.writeErrorWithRequest(w, r, http.StatusInternalServerError, "PID_INTERNAL", "failed to initialize seed", nil)
		return
	}

	incrementInitialize(string(kind), "success")
	setSeedValue(string(kind), input.Seed)
	h.writeSuccess(w, http.StatusCreated, map[string]any{
		"kind": kind,
		"seed": input.Seed,
	}, r)
	h.logger.Info("seed initialized", "kind", kind, "seed", input.Seed, "correlationId", correlationIDFrom(r.Context()))
}

// handleGenerate implements POST /v1/{kind}/generate, spec.md §4.3
// operation Generate.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request, kind pid.Kind) {
	if r.Method != http.MethodPost {
		h.writeErrorWithRequest(w, r, http.StatusMethodNotAllowed, "PID_VALIDATION", "method not allowed", nil)
		return
	}

	minted, err := h.generator.Generate(r.Context(), kind)
	if err != nil {
		var notInit *pid.NotInitializedError
		if errors.As(err, &notInit) {
			incrementGenerate(string(kind), "not_initialized")
			h.writeErrorWithRequest(w, r, http.StatusConflict, "PID_NOT_INITIALIZED", "kind has not been initialized", nil)
			return
		}
		var dup *pid.DuplicatePidError
		if errors.As(err, &dup) {
			incrementGenerate(string(kind), "duplicate")
			h.writeErrorWithRequest(w, r, http.StatusConflict, "PID_DUPLICATE", "generated identifier already minted", map[string]any{
				"identifier": dup.Identifier,
				"usedSeed":   dup.UsedSeed,
				"createdAt":  dup.CreatedAt.Format(time.RFC3339),
			})
			return
		}
		incrementGenerate(string(kind), "error")
		h.writeErrorWithRequest(w, r, http.StatusInternalServerError, "PID_INTERNAL", "failed to mint identifier", nil)
		return
	}

	incrementGenerate(string(kind), "success")
	setSeedValue(string(kind), pid.Advance(kind, minted.Seed))
	h.writeSuccess(w, http.StatusCreated, map[string]any{
		"kind":       minted.Kind,
		"identifier": minted.Identifier,
		"seed":       minted.Seed,
		"createdAt":  minted.CreatedAt.Format(time.RFC3339),
	}, r)
	h.logger.Info("identifier minted", "kind", kind, "identifier", minted.Identifier, "correlationId", correlationIDFrom(r.Context()))
}

// handleExists implements GET /v1/{kind}/exists/{identifier}, spec.md
// §4.3 operation Exists.
func (h *Handler) handleExists(w http.ResponseWriter, r *http.Request, kind pid.Kind) {
	if r.Method != http.MethodGet {
		h.writeErrorWithRequest(w, r, http.StatusMethodNotAllowed, "PID_VALIDATION", "method not allowed", nil)
		return
	}

	prefix := "/v1/" + strings.ToLower(string(kind)) + "/exists/"
	identifier := strings.TrimPrefix(r.URL.Path, prefix)
	if identifier == "" {
		h.writeErrorWithRequest(w, r, http.StatusBadRequest, "PID_VALIDATION", "identifier is required", nil)
		return
	}

	found, err := h.generator.Exists(r.Context(), kind, identifier)
	if err != nil {
		h.writeErrorWithRequest(w, r, http.StatusInternalServerError, "PID_INTERNAL", "lookup failed", nil)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]any{
		"kind":       kind,
		"identifier": identifier,
		"exists":     found,
	}, r)
}

func (h *Handler) writeSuccess(w http.ResponseWriter, status int, data any, r *http.Request) []byte {
	env := responseEnvelope{Data: data}
	payload := mustJSON(env)
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Warn("write success failed", "error", err, "correlationId", correlationIDFrom(r.Context()))
	}
	return payload
}

func (h *Handler) writeErrorWithRequest(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	h.writeError(w, status, code, message, correlationIDFrom(r.Context()), details)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, correlationID string, details any) {
	env := responseEnvelope{Error: &errorEnvelope{Code: code, Message: message, Details: details, CorrelationID: correlationID}}
	payload := mustJSON(env)
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Warn("write error failed", "error", err, "correlationId", correlationID)
	}
}

func mustJSON(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}

func correlationIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyCorrelationID).(string); ok {
		return v
	}
	return ""
}
