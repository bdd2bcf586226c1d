package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appFeed "github.com/Zhima-Mochi/minishop-storefront/internal/application/feed"
	appPayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	appSession "github.com/Zhima-Mochi/minishop-storefront/internal/application/session"
	domFeed "github.com/Zhima-Mochi/minishop-storefront/internal/domain/feed"
	domPayment "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	domSession "github.com/Zhima-Mochi/minishop-storefront/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	componentHTTPHandler = "http_server"
	headerIdempotencyKey = "Idempotency-Key"
	defaultMaxBodyBytes  = 64 << 10

	// requestTimeout bounds a single request including the processor call.
	requestTimeout = 30 * time.Second
)

var (
	errInternal         = errors.New(http.StatusText(http.StatusInternalServerError))
	errMethodNotAllowed = errors.New(http.StatusText(http.StatusMethodNotAllowed))
	errNotFound         = errors.New(http.StatusText(http.StatusNotFound))
)

// Services are the application services the HTTP surface delegates to.
type Services struct {
	Payment *appPayment.CreateIntentUseCase
	Session *appSession.Service
	Feed    *appFeed.Service
}

type Options struct {
	MaxBodyBytes   int64
	AllowedOrigins []string
	// Metrics, when set, is mounted on /metrics.
	Metrics http.Handler
}

type Handler struct {
	services Services
	opts     Options
	log      observability.Logger
	tel      observability.Observability
}

func NewHandler(services Services, opts Options, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		services: services,
		opts:     opts,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Trace → request logger + metrics → access log → recover → handler
	r.Use(middleware.RealIP)
	r.Use(h.withTrace)
	r.Use(ObservabilityMiddleware(h.log, func(r *http.Request) string {
		return r.Header.Get(headerRequestID)
	}, h.tel))
	r.Use(h.withAccessLog)
	r.Use(h.withRecover)
	r.Use(middleware.Timeout(requestTimeout))
	if len(h.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", headerIdempotencyKey, headerRequestID},
			ExposedHeaders:   []string{headerRequestID},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.GetHead)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	r.HandleFunc("/api/auth/logout", h.method(http.MethodPost, h.handleLogout))
	r.HandleFunc("/api/stripe-payment-intent", h.method(http.MethodPost, h.handleCreatePaymentIntent))

	for _, kind := range domFeed.Kinds {
		r.Get(kind.Path(), h.handleFeed(kind))
	}

	r.Get("/health", h.handleHealth)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}

	return r
}

type logoutResponse struct {
	Success bool `json:"success"`
}

// handleLogout never reads the request body: logging out must succeed for any payload.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie := h.services.Session.Logout(r.Context())
	http.SetCookie(w, toHTTPCookie(cookie))
	writeJSON(w, http.StatusOK, logoutResponse{Success: true})
}

type createPaymentIntentRequest struct {
	Amount *float64 `json:"amount"`
}

type createPaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (h *Handler) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, errors.New("amount is required"))
		return
	}

	result, err := h.services.Payment.Execute(r.Context(), appPayment.CreateIntentInput{
		Amount:         *req.Amount,
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createPaymentIntentResponse{ClientSecret: result.ClientSecret})
}

func (h *Handler) handleFeed(kind domFeed.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.services.Feed.Render(r.Context(), kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Cache-Control", doc.CacheControl)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Body)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// method rejects any other HTTP method with 405 before the body is looked at.
func (h *Handler) method(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid request body: unexpected data after JSON value")
	}
	return nil
}

func toHTTPCookie(c domSession.Cookie) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.Expires,
		MaxAge:   -1,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var perr *domPayment.ProcessorError
	switch {
	case errors.Is(err, domPayment.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &perr):
		writeError(w, http.StatusInternalServerError, processorMessage(perr))
	case err.Error() == "":
		writeError(w, http.StatusInternalServerError, errInternal)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// processorMessage prefers the processor's own explanation and falls back to a
// generic message when there is none.
func processorMessage(perr *domPayment.ProcessorError) error {
	switch {
	case perr.Message != "":
		return errors.New(perr.Message)
	case !perr.Opaque && perr.Err != nil && perr.Err.Error() != "":
		return perr.Err
	default:
		return errInternal
	}
}
