package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/product"
)

// --- モック定義 ---

// mockProductService はProductServiceInterfaceのモック実装。
type mockProductService struct {
	createFn           func(ctx context.Context, userID string, in product.Input) (*model.Product, error)
	getFn              func(ctx context.Context, userID string, role model.Role, productID string) (*model.Product, error)
	listByUserFn       func(ctx context.Context, userID string) ([]*model.Product, error)
	listServiceInfosFn func(ctx context.Context, userID string, role model.Role, productID string) ([]*model.ServiceInfo, error)
	updateFn           func(ctx context.Context, userID string, role model.Role, productID string, in product.Input) (*model.Product, error)
	deleteFn           func(ctx context.Context, userID string, role model.Role, productID string) error
}

func (m *mockProductService) Create(ctx context.Context, userID string, in product.Input) (*model.Product, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}
func (m *mockProductService) Get(ctx context.Context, userID string, role model.Role, productID string) (*model.Product, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, role, productID)
	}
	return nil, nil
}
func (m *mockProductService) ListByUser(ctx context.Context, userID string) ([]*model.Product, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockProductService) ListServiceInfos(ctx context.Context, userID string, role model.Role, productID string) ([]*model.ServiceInfo, error) {
	if m.listServiceInfosFn != nil {
		return m.listServiceInfosFn(ctx, userID, role, productID)
	}
	return nil, nil
}
func (m *mockProductService) Update(ctx context.Context, userID string, role model.Role, productID string, in product.Input) (*model.Product, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, role, productID, in)
	}
	return nil, nil
}
func (m *mockProductService) Delete(ctx context.Context, userID string, role model.Role, productID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, role, productID)
	}
	return nil
}

// --- POST /api/products テスト ---

func TestProductHandler_CreateProduct_Success(t *testing.T) {
	svc := &mockProductService{
		createFn: func(ctx context.Context, userID string, in product.Input) (*model.Product, error) {
			if in.PurchaseDate == nil {
				t.Error("purchase date should be parsed")
			}
			return &model.Product{
				ID:           "product-1",
				UserID:       userID,
				Name:         in.Name,
				Category:     in.Category,
				PurchaseDate: in.PurchaseDate,
			}, nil
		},
	}
	h := NewProductHandler(svc)

	body := bytes.NewReader([]byte(`{"name":"ノートPC","category":"PC","purchaseDate":"2025-03-01"}`))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/products", body), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.CreateProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["purchaseDate"] != "2025-03-01" {
		t.Errorf("purchaseDate = %v, want 2025-03-01", resp["purchaseDate"])
	}
}

func TestProductHandler_CreateProduct_MissingName(t *testing.T) {
	h := NewProductHandler(&mockProductService{})

	body := bytes.NewReader([]byte(`{"category":"PC"}`))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/products", body), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.CreateProduct(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// 購入日は省略可能
func TestProductHandler_CreateProduct_WithoutPurchaseDate(t *testing.T) {
	svc := &mockProductService{
		createFn: func(ctx context.Context, userID string, in product.Input) (*model.Product, error) {
			if in.PurchaseDate != nil {
				t.Error("purchase date should be nil when omitted")
			}
			return &model.Product{ID: "product-1", Name: in.Name}, nil
		},
	}
	h := NewProductHandler(svc)

	body := bytes.NewReader([]byte(`{"name":"冷蔵庫"}`))
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/products", body), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.CreateProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp struct {
		PurchaseDate *string `json:"purchaseDate"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PurchaseDate != nil {
		t.Errorf("purchaseDate = %v, want null", *resp.PurchaseDate)
	}
}

// --- GET /api/products/{id} テスト ---

func TestProductHandler_GetProduct_Forbidden(t *testing.T) {
	svc := &mockProductService{
		getFn: func(ctx context.Context, userID string, role model.Role, productID string) (*model.Product, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewProductHandler(svc)

	req := withChiURLParam(
		withUser(httptest.NewRequest(http.MethodGet, "/api/products/product-1", nil), "user-123", model.RoleUser),
		"id", "product-1",
	)
	w := httptest.NewRecorder()

	h.GetProduct(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// --- DELETE /api/products/{id} テスト ---

func TestProductHandler_DeleteProduct_Success(t *testing.T) {
	deleted := ""
	svc := &mockProductService{
		deleteFn: func(ctx context.Context, userID string, role model.Role, productID string) error {
			deleted = productID
			return nil
		},
	}
	h := NewProductHandler(svc)

	req := withChiURLParam(
		withUser(httptest.NewRequest(http.MethodDelete, "/api/products/product-1", nil), "user-123", model.RoleUser),
		"id", "product-1",
	)
	w := httptest.NewRecorder()

	h.DeleteProduct(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != "product-1" {
		t.Errorf("deleted = %q, want product-1", deleted)
	}
}

// --- GET /api/products/{id}/service-info テスト ---

func TestProductHandler_ListProductServiceInfos(t *testing.T) {
	svc := &mockProductService{
		listServiceInfosFn: func(ctx context.Context, userID string, role model.Role, productID string) ([]*model.ServiceInfo, error) {
			return []*model.ServiceInfo{
				{ID: "info-1", ProductID: productID, ServiceDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Cost: 8000},
			}, nil
		},
	}
	h := NewProductHandler(svc)

	req := withChiURLParam(
		withUser(httptest.NewRequest(http.MethodGet, "/api/products/product-1/service-info", nil), "user-123", model.RoleUser),
		"id", "product-1",
	)
	w := httptest.NewRecorder()

	h.ListProductServiceInfos(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0]["cost"] != float64(8000) {
		t.Errorf("unexpected response: %v", resp)
	}
}
