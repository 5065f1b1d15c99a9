package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"tableside/internal/errs"
	"tableside/internal/logger"
	"tableside/internal/models"
	"tableside/internal/services/tenant"
)

type fakeDirectory struct {
	tenants map[string]*models.Tenant
	qrCodes map[string]*models.QRCode
}

func (d *fakeDirectory) TenantBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	if t, ok := d.tenants[subdomain]; ok {
		return t, nil
	}
	return nil, errs.NotFoundError{Resource: "tenant", Key: subdomain}
}

func (d *fakeDirectory) QRByIdentifier(_ context.Context, identifier string) (*models.QRCode, error) {
	if qr, ok := d.qrCodes[identifier]; ok {
		return qr, nil
	}
	return nil, errs.NotFoundError{Resource: "qr_code", Key: identifier}
}

func newHandlerFixture(t *testing.T) (*lifecycleFixture, *http.ServeMux) {
	t.Helper()

	f := newLifecycleFixture(t)

	directory := &fakeDirectory{
		tenants: map[string]*models.Tenant{
			"marios-pizza": {
				ID:        f.tenantCtx.TenantID,
				Subdomain: "marios-pizza",
				Timezone:  "UTC",
			},
		},
		qrCodes: map[string]*models.QRCode{
			"qr-other-tenant": {Identifier: "qr-other-tenant", TenantID: uuid.New()},
		},
	}

	resolver := tenant.NewResolver(directory, "tableside.app", logger.New("test"))
	handler := NewHandler(f.lifecycle, resolver, logger.New("test"))
	return f, handler.SetupRoutes()
}

func postJSON(mux *http.ServeMux, host, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Host = host
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateOrder(t *testing.T) {
	f, mux := newHandlerFixture(t)

	rec := postJSON(mux, "marios-pizza.tableside.app", "/orders", models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{
			{MenuItemID: f.pizza.ID.String(), Quantity: 2},
		},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp models.CreateOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "pending" {
		t.Errorf("status = %q, want pending", resp.Status)
	}
	if resp.TotalAmount != 25.00 {
		t.Errorf("total = %.2f, want 25.00", resp.TotalAmount)
	}
	if resp.OrderNumber == "" {
		t.Error("order number is empty")
	}
}

func TestHandlerCreateOrder_PlatformHost(t *testing.T) {
	f, mux := newHandlerFixture(t)

	for _, host := range []string{"tableside.app", "www.tableside.app", "app.tableside.app"} {
		rec := postJSON(mux, host, "/orders", models.CreateOrderRequest{
			Items: []models.CreateOrderItemRequest{
				{MenuItemID: f.pizza.ID.String(), Quantity: 1},
			},
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("host %s: status = %d, want 404", host, rec.Code)
		}
	}
}

func TestHandlerCreateOrder_UnknownSubdomain(t *testing.T) {
	f, mux := newHandlerFixture(t)

	rec := postJSON(mux, "ghost-kitchen.tableside.app", "/orders", models.CreateOrderRequest{
		Items: []models.CreateOrderItemRequest{
			{MenuItemID: f.pizza.ID.String(), Quantity: 1},
		},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerCreateOrder_QRMismatchIsNotFound(t *testing.T) {
	f, mux := newHandlerFixture(t)

	rec := postJSON(mux, "marios-pizza.tableside.app", "/orders", models.CreateOrderRequest{
		QRIdentifier: "qr-other-tenant",
		Items: []models.CreateOrderItemRequest{
			{MenuItemID: f.pizza.ID.String(), Quantity: 1},
		},
	})

	// The mismatch must be indistinguishable from a missing resource.
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerCreateOrder_BadRequests(t *testing.T) {
	_, mux := newHandlerFixture(t)

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{}`)))
		req.Host = "marios-pizza.tableside.app"

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{"surprise": true}`)))
		req.Host = "marios-pizza.tableside.app"
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty items", func(t *testing.T) {
		rec := postJSON(mux, "marios-pizza.tableside.app", "/orders", models.CreateOrderRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerTransitionOrder(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/status", order.ID),
		transitionRequest{Status: "confirmed", ActorID: "staff-1", ActorRole: models.RoleStaff})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var updated models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
}

func TestHandlerTransitionOrder_Conflict(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/status", order.ID),
		transitionRequest{Status: "delivered", ActorID: "staff-1", ActorRole: models.RoleStaff})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["current_status"] != "pending" {
		t.Errorf("current_status = %v, want pending", body["current_status"])
	}
}

func TestHandlerTransitionOrder_UnknownStatus(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/status", order.ID),
		transitionRequest{Status: "shipped", ActorID: "staff-1"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerTransitionOrder_UnknownOrder(t *testing.T) {
	_, mux := newHandlerFixture(t)

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/status", uuid.New()),
		transitionRequest{Status: "confirmed", ActorID: "staff-1"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerCancelOrder(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/cancel", order.ID),
		transitionRequest{ActorID: "guest-1", ActorRole: models.RoleGuest})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var cancelled models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestHandlerCancelOrder_RejectedAtPreparing(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)

	for _, status := range []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing} {
		if _, err := f.lifecycle.Transition(context.Background(), order.ID, status, models.Actor{ID: "staff-1"}, "test-request"); err != nil {
			t.Fatalf("prepare transition to %s returned error: %v", status, err)
		}
	}

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/cancel", order.ID),
		transitionRequest{ActorID: "guest-1", ActorRole: models.RoleGuest})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandlerTransitionItem(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)
	itemID := order.Items[0].ID

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/items/%s/status", order.ID, itemID),
		transitionRequest{Status: "confirmed", ActorID: "staff-1", ActorRole: models.RoleStaff})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var item models.OrderItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if item.Status != models.ItemConfirmed {
		t.Errorf("item status = %s, want confirmed", item.Status)
	}
}

func TestHandlerUnknownSubroute(t *testing.T) {
	f, mux := newHandlerFixture(t)
	order := f.createOrder(t)

	rec := postJSON(mux, "marios-pizza.tableside.app",
		fmt.Sprintf("/orders/%s/refund", order.ID), nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerHealthCheck(t *testing.T) {
	_, mux := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}
