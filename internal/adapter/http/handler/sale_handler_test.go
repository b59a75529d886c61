package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

type saleServiceStub struct {
	checkoutFn func(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error)
	voidFn     func(ctx context.Context, input usecase.VoidInput) (*domain.Sale, error)
	getFn      func(ctx context.Context, id string) (*domain.Sale, error)
	listFn     func(ctx context.Context, filter usecase.SaleFilter) ([]*domain.Sale, error)
}

func (s *saleServiceStub) Checkout(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error) {
	return s.checkoutFn(ctx, input)
}

func (s *saleServiceStub) Void(ctx context.Context, input usecase.VoidInput) (*domain.Sale, error) {
	return s.voidFn(ctx, input)
}

func (s *saleServiceStub) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.getFn(ctx, id)
}

func (s *saleServiceStub) ListSales(ctx context.Context, filter usecase.SaleFilter) ([]*domain.Sale, error) {
	return s.listFn(ctx, filter)
}

type saleReturnServiceStub struct {
	listFn func(ctx context.Context, saleID string) ([]*domain.Return, error)
}

func (s *saleReturnServiceStub) ListReturnsBySale(ctx context.Context, saleID string) ([]*domain.Return, error) {
	return s.listFn(ctx, saleID)
}

func TestSaleHandler_Checkout_Success(t *testing.T) {
	sale := &domain.Sale{
		ID:            "sale-1",
		LocationID:    "loc-1",
		NetAmount:     decimal.NewFromInt(25),
		PaymentMethod: domain.PayCash,
		Status:        domain.SaleCompleted,
	}

	var captured usecase.CheckoutInput
	handler := NewSaleHandler(&saleServiceStub{
		checkoutFn: func(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error) {
			captured = input
			return sale, nil
		},
	}, &saleReturnServiceStub{})

	body, _ := json.Marshal(dto.CheckoutRequest{
		LocationID: "loc-1",
		Lines: []dto.CheckoutLineRequest{
			{ProductID: "prod-1", Quantity: decimal.NewFromInt(2)},
		},
		PaymentMethod: domain.PayCash,
	})

	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body))
	req = req.WithContext(domain.ContextWithUser(req.Context(), &domain.User{
		ID:   "user-1",
		Name: "Ada",
		Role: domain.RoleCashier,
	}))
	rec := httptest.NewRecorder()

	handler.Checkout(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.LocationID != "loc-1" || len(captured.Lines) != 1 {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
	if captured.ActorID != "user-1" {
		t.Fatalf("expected authenticated actor on input, got %s", captured.ActorID)
	}

	var resp dto.SaleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "sale-1" {
		t.Fatalf("expected sale ID sale-1, got %s", resp.ID)
	}
}

func TestSaleHandler_Checkout_InvalidJSON(t *testing.T) {
	handler := NewSaleHandler(&saleServiceStub{
		checkoutFn: func(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error) {
			t.Fatal("Checkout should not be called for invalid payload")
			return nil, nil
		},
	}, &saleReturnServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewBufferString("{invalid json"))
	rec := httptest.NewRecorder()

	handler.Checkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSaleHandler_Checkout_MissingLines(t *testing.T) {
	handler := NewSaleHandler(&saleServiceStub{
		checkoutFn: func(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error) {
			t.Fatal("Checkout should not be called for an empty cart")
			return nil, nil
		},
	}, &saleReturnServiceStub{})

	body, _ := json.Marshal(dto.CheckoutRequest{
		LocationID:    "loc-1",
		PaymentMethod: domain.PayCash,
	})

	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Checkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSaleHandler_Checkout_InsufficientStock(t *testing.T) {
	handler := NewSaleHandler(&saleServiceStub{
		checkoutFn: func(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error) {
			return nil, domain.PreconditionError("insufficient stock for product prod-1")
		},
	}, &saleReturnServiceStub{})

	body, _ := json.Marshal(dto.CheckoutRequest{
		LocationID: "loc-1",
		Lines: []dto.CheckoutLineRequest{
			{ProductID: "prod-1", Quantity: decimal.NewFromInt(99)},
		},
		PaymentMethod: domain.PayCash,
	})

	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Checkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSaleHandler_Void_Success(t *testing.T) {
	var captured usecase.VoidInput
	handler := NewSaleHandler(&saleServiceStub{
		voidFn: func(ctx context.Context, input usecase.VoidInput) (*domain.Sale, error) {
			captured = input
			return &domain.Sale{ID: input.SaleID, Status: domain.SaleVoided}, nil
		},
	}, &saleReturnServiceStub{})

	body, _ := json.Marshal(dto.VoidSaleRequest{Reason: "wrong customer"})
	req := newChiRequest(http.MethodPost, "/sales/sale-9/void", bytes.NewReader(body), map[string]string{"id": "sale-9"})
	rec := httptest.NewRecorder()

	handler.Void(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.SaleID != "sale-9" || captured.Reason != "wrong customer" {
		t.Fatalf("unexpected void input: %+v", captured)
	}
}

func TestSaleHandler_Get_NotFound(t *testing.T) {
	handler := NewSaleHandler(&saleServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Sale, error) {
			return nil, domain.ErrSaleNotFound
		},
	}, &saleReturnServiceStub{})

	req := newChiRequest(http.MethodGet, "/sales/missing", nil, map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSaleHandler_List_ParsesFilter(t *testing.T) {
	var captured usecase.SaleFilter
	handler := NewSaleHandler(&saleServiceStub{
		listFn: func(ctx context.Context, filter usecase.SaleFilter) ([]*domain.Sale, error) {
			captured = filter
			return []*domain.Sale{{ID: "sale-1"}}, nil
		},
	}, &saleReturnServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/sales?customer_id=cust-1&limit=5", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if captured.CustomerID != "cust-1" || captured.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}

func TestSaleHandler_ListReturns_ServiceError(t *testing.T) {
	handler := NewSaleHandler(&saleServiceStub{}, &saleReturnServiceStub{
		listFn: func(ctx context.Context, saleID string) ([]*domain.Return, error) {
			return nil, errors.New("db error")
		},
	})

	req := newChiRequest(http.MethodGet, "/sales/sale-1/returns", nil, map[string]string{"id": "sale-1"})
	rec := httptest.NewRecorder()

	handler.ListReturns(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// newChiRequest builds a request whose context carries chi URL params.
func newChiRequest(method, target string, body *bytes.Reader, params map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}

	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
