package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tableside/internal/errs"
	"tableside/internal/logger"
	"tableside/internal/models"
	"tableside/internal/services/tenant"
)

// Handler handles HTTP requests for the order service
type Handler struct {
	lifecycle *Lifecycle
	resolver  *tenant.Resolver
	logger    *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(lifecycle *Lifecycle, resolver *tenant.Resolver, log *logger.Logger) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		resolver:  resolver,
		logger:    log,
	}
}

// transitionRequest is the body of status-change endpoints.
type transitionRequest struct {
	Status    string `json:"status"`
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

// CreateOrder handles POST /orders requests. The tenant is resolved from
// the request's Host header plus the QR identifier in the body.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Content-Type must be application/json", requestID)
		return
	}

	var req models.CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	tenantCtx, err := h.resolver.Resolve(ctx, r.Host, req.QRIdentifier)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}
	if tenantCtx.Platform {
		h.writeErrorResponse(w, http.StatusNotFound, "Unknown restaurant", requestID)
		return
	}

	order, err := h.lifecycle.Create(ctx, tenantCtx, &req, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	response := models.CreateOrderResponse{
		OrderID:     order.ID,
		OrderNumber: order.DisplayNumber(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

// OrderSubroutes dispatches /orders/{id}/... requests.
func (h *Handler) OrderSubroutes(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	path := strings.TrimPrefix(r.URL.Path, "/orders/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 2 && parts[1] == "status":
		h.transitionOrder(w, r, parts[0], requestID)
	case len(parts) == 2 && parts[1] == "cancel":
		h.cancelOrder(w, r, parts[0], requestID)
	case len(parts) == 4 && parts[1] == "items" && parts[3] == "status":
		h.transitionItem(w, r, parts[0], parts[2], requestID)
	default:
		h.writeErrorResponse(w, http.StatusNotFound, "Not found", requestID)
	}
}

// transitionOrder handles POST /orders/{id}/status requests.
func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request, rawID, requestID string) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	orderID, err := uuid.Parse(rawID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	target, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	actor := models.Actor{ID: req.ActorID, Role: req.ActorRole}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.lifecycle.Transition(ctx, orderID, target, actor, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, order, requestID)
}

// cancelOrder handles POST /orders/{id}/cancel requests.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, rawID, requestID string) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	orderID, err := uuid.Parse(rawID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	actor := models.Actor{ID: req.ActorID, Role: req.ActorRole}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.lifecycle.Cancel(ctx, orderID, actor, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, order, requestID)
}

// transitionItem handles POST /orders/{id}/items/{itemId}/status requests.
func (h *Handler) transitionItem(w http.ResponseWriter, r *http.Request, rawOrderID, rawItemID, requestID string) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	itemID, err := uuid.Parse(rawItemID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid item id", requestID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	target, err := models.ParseItemStatus(req.Status)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := h.lifecycle.UpdateItemStatus(ctx, orderID, itemID, target, requestID)
	if err != nil {
		h.writeServiceError(w, err, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, item, requestID)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.lifecycle.HealthCheck(ctx)

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
		"healthy":   healthy,
	}

	w.Header().Set("Content-Type", "application/json")

	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response["status"] = "unhealthy"
	}

	json.NewEncoder(w).Encode(response)
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Tenant
// mismatches are presented as not-found so cross-tenant existence never
// leaks; invalid transitions include the current status so staff can
// reconcile.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errs.IsValidation(err):
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
	case errs.IsTenantMismatch(err), errs.IsNotFound(err):
		h.writeErrorResponse(w, http.StatusNotFound, "Not found", requestID)
	case errs.IsInvalidTransition(err):
		h.writeTransitionError(w, err, requestID)
	case errs.IsConcurrencyConflict(err):
		h.writeErrorResponse(w, http.StatusConflict, "Concurrent update, please retry", requestID)
	case errs.IsStoreUnavailable(err):
		h.logger.Error("store_unavailable", "Persistence port failed", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusServiceUnavailable, "Service temporarily unavailable", requestID)
	default:
		h.logger.Error("request_failed", "Unhandled service error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

// writeTransitionError includes the actual current status in the payload.
func (h *Handler) writeTransitionError(w http.ResponseWriter, err error, requestID string) {
	var transitionErr errs.InvalidTransitionError
	body := map[string]interface{}{
		"error":      err.Error(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}
	if errors.As(err, &transitionErr) {
		body["current_status"] = transitionErr.CurrentStatus
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	json.NewEncoder(w).Encode(body)
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/orders", h.withLogging(h.CreateOrder))
	mux.HandleFunc("/orders/", h.withLogging(h.OrderSubroutes))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))

	return mux
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"host":        r.Host,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
