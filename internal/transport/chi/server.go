package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/logger"
	healthuc "github.com/kailas-cloud/ordex/internal/usecase/health"
	orderuc "github.com/kailas-cloud/ordex/internal/usecase/order"
	"github.com/kailas-cloud/ordex/internal/version"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the orders HTTP API.
type Server struct {
	orders        *orderuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(orders *orderuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		orders: orders,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		invalidInputHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeOrderNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists),
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, ErrorCodeNotReady),
		sentinelHandler(domain.ErrStore, http.StatusInternalServerError, ErrorCodeStoreError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.CreateOrder)
		r.Get("/", s.ListOrders)
		r.Post("/update", s.UpdateOrders)
		r.Post("/delete", s.DeleteOrders)
		r.Get("/{id}", s.GetOrder)
		r.Patch("/{id}", s.PatchOrder)
		r.Delete("/{id}", s.DeleteOrder)
	})
}

// CreateOrder handles POST /orders.
func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var o domorder.Order
	if !s.decode(w, r, &o) {
		return
	}

	rec, err := s.orders.Create(r.Context(), o)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/orders/"+rec.ID)
	writeJSON(w, http.StatusCreated, CreateOrderResponse{ID: rec.ID})
}

// ListOrders handles GET /orders?limit=N.
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	orders, err := s.orders.List(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []domorder.Record{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /orders/{id}.
func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.orders.Get(orderContext(r, id), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// PatchOrder handles PATCH /orders/{id}. The body is a partial order; null
// fields are left unchanged.
func (s *Server) PatchOrder(w http.ResponseWriter, r *http.Request) {
	var spec map[string]any
	if !s.decode(w, r, &spec) {
		return
	}

	id := chi.URLParam(r, "id")
	res, err := s.orders.UpdateByID(orderContext(r, id), id, patch.Spec(spec))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMutation(w, res)
}

// UpdateOrders handles POST /orders/update.
func (s *Server) UpdateOrders(w http.ResponseWriter, r *http.Request) {
	var req UpdateByFilterRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.orders.Update(r.Context(), filter.Filter(req.Filter), patch.Spec(req.Update))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMutation(w, res)
}

// DeleteOrder handles DELETE /orders/{id}.
func (s *Server) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.orders.DeleteByID(orderContext(r, id), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMutation(w, res)
}

// DeleteOrders handles POST /orders/delete.
func (s *Server) DeleteOrders(w http.ResponseWriter, r *http.Request) {
	var req DeleteByFilterRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.orders.Delete(r.Context(), filter.Filter(req.Filter))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMutation(w, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON body. Numbers are kept as json.Number so that filter
// and update values reach the store unchanged.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// orderContext tags the request logger with the addressed order.
func orderContext(r *http.Request, id string) context.Context {
	return logger.With(r.Context(), zap.String("order_id", id))
}

func writeMutation(w http.ResponseWriter, res domain.MutationResult) {
	writeJSON(w, http.StatusOK, MutationResponse{
		Outcome: res.Kind.String(),
		Count:   res.Sentinel(),
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrNotReady,
		domain.ErrStore,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidInputHandler reports validation failures with their full message:
// it describes the caller's input, not server internals.
func invalidInputHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
