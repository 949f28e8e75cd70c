package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/chowkart/chowkart/internal/api"
	"github.com/chowkart/chowkart/internal/factories"
	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *fulfillment.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := fulfillment.NewService(store.Orders(), store.Partners(), store.Vendors(), nil, nil, logger)
	server := httptest.NewServer(api.NewRouter(api.NewHandler(svc, logger), logger))
	t.Cleanup(server.Close)
	return server, svc, store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCreateOrderEndpoint(t *testing.T) {
	server, _, store := newTestServer(t)
	var vendors factories.VendorFactory
	vendor := vendors.CreateVendor("110001")
	if err := store.Vendors().Create(context.Background(), vendor); err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, server.URL+"/orders", fulfillment.CreateOrderInput{
		CustomerID:    "cust-1",
		VendorID:      vendor.ID,
		PaymentMethod: "upi",
		Items: []fulfillment.OrderItemInput{
			{MenuItemID: "m1", Name: "Masala Dosa", UnitPrice: 90, Quantity: 2},
		},
		DeliveryAddress: models.Address{Street: "MG Road", City: "New Delhi", State: "Delhi", Pincode: "110001"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatal(err)
	}
	if order.TotalAmount != 180 {
		t.Errorf("TotalAmount = %v, want 180", order.TotalAmount)
	}
	if order.Status != models.OrderStatusPlaced {
		t.Errorf("Status = %s, want placed", order.Status)
	}
}

func TestDomainErrorStatusCodes(t *testing.T) {
	server, svc, store := newTestServer(t)
	ctx := context.Background()

	var vendors factories.VendorFactory
	var partners factories.DeliveryPartnerFactory
	vendor := vendors.CreateVendor("110001")
	if err := store.Vendors().Create(ctx, vendor); err != nil {
		t.Fatal(err)
	}
	farPartner := partners.CreateDeliveryPartner("560001")
	if err := store.Partners().Create(ctx, farPartner); err != nil {
		t.Fatal(err)
	}

	var orders factories.OrderFactory
	order, err := svc.CreateOrder(ctx, orders.CreateOrderInput(vendor))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("unknown order is 404", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/orders/nope")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("invalid transition is 409", func(t *testing.T) {
		resp := postJSONMethod(t, http.MethodPut, server.URL+"/orders/"+order.ID+"/status", map[string]string{"status": "ready"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("failed assignment precondition is 422", func(t *testing.T) {
		for _, status := range []models.OrderStatus{
			models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusReady,
		} {
			if _, err := svc.TransitionStatus(ctx, order.ID, status, "vendor"); err != nil {
				t.Fatal(err)
			}
		}
		resp := postJSON(t, server.URL+"/orders/"+order.ID+"/assign", map[string]string{"partner_id": farPartner.ID})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("coverage mismatch is 403", func(t *testing.T) {
		url := fmt.Sprintf("%s/partners/%s/verification", server.URL, farPartner.ID)
		resp := postJSON(t, url, map[string]string{"vendor_id": vendor.ID, "action": "approve"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})
}

func TestTransitionStatusEndpoint(t *testing.T) {
	server, svc, store := newTestServer(t)
	ctx := context.Background()

	var vendors factories.VendorFactory
	vendor := vendors.CreateVendor("110001")
	if err := store.Vendors().Create(ctx, vendor); err != nil {
		t.Fatal(err)
	}
	var orders factories.OrderFactory
	order, err := svc.CreateOrder(ctx, orders.CreateOrderInput(vendor))
	if err != nil {
		t.Fatal(err)
	}

	resp := postJSONMethod(t, http.MethodPut, server.URL+"/orders/"+order.ID+"/status",
		map[string]string{"status": "confirmed", "actor": "vendor"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var updated models.Order
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.OrderStatusConfirmed {
		t.Errorf("Status = %s, want confirmed", updated.Status)
	}
}

func postJSONMethod(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}
