package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoshokan/internal/middleware"
	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/product"
)

// ProductServiceInterface は製品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	Create(ctx context.Context, userID string, in product.Input) (*model.Product, error)
	Get(ctx context.Context, userID string, role model.Role, productID string) (*model.Product, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Product, error)
	ListServiceInfos(ctx context.Context, userID string, role model.Role, productID string) ([]*model.ServiceInfo, error)
	Update(ctx context.Context, userID string, role model.Role, productID string, in product.Input) (*model.Product, error)
	Delete(ctx context.Context, userID string, role model.Role, productID string) error
}

// ProductHandler は製品管理のHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productRequest は製品の作成・更新リクエストのボディ。
type productRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	ModelNumber  string `json:"modelNumber"`
	SerialNumber string `json:"serialNumber"`
	PurchaseDate string `json:"purchaseDate"` // YYYY-MM-DD、省略可
	Notes        string `json:"notes"`
}

// productResponse は製品情報のAPIレスポンス。
type productResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Manufacturer string    `json:"manufacturer"`
	ModelNumber  string    `json:"modelNumber"`
	SerialNumber string    `json:"serialNumber"`
	PurchaseDate *string   `json:"purchaseDate"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toProductResponse(p *model.Product) productResponse {
	resp := productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Manufacturer: p.Manufacturer,
		ModelNumber:  p.ModelNumber,
		SerialNumber: p.SerialNumber,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.PurchaseDate != nil {
		d := p.PurchaseDate.Format(dateLayout)
		resp.PurchaseDate = &d
	}
	return resp
}

// toProductInput はリクエストボディをサービス層の入力に変換する。
func toProductInput(w http.ResponseWriter, req productRequest) (product.Input, bool) {
	in := product.Input{
		Name:         req.Name,
		Category:     req.Category,
		Manufacturer: req.Manufacturer,
		ModelNumber:  req.ModelNumber,
		SerialNumber: req.SerialNumber,
		Notes:        req.Notes,
	}
	if req.PurchaseDate != "" {
		d, err := parseDate("purchaseDate", req.PurchaseDate)
		if err != nil {
			handleServiceError(w, err)
			return product.Input{}, false
		}
		in.PurchaseDate = &d
	}
	return in, true
}

// CreateProduct は製品登録を処理する。
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	var req productRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "製品名は必須です。",
			Category: "validation",
			Action:   "製品名を指定してください。",
		})
		return
	}

	in, ok := toProductInput(w, req)
	if !ok {
		return
	}

	p, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

// ListProducts は自分の製品一覧を返す。
// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	products, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct は製品詳細を返す。
// GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, role, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// ListProductServiceInfos は製品のサービス情報一覧を返す。
// GET /api/products/{id}/service-info
func (h *ProductHandler) ListProductServiceInfos(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	infos, err := h.service.ListServiceInfos(r.Context(), userID, role, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]serviceInfoResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, toServiceInfoResponse(info))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateProduct は製品更新を処理する。
// PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req productRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	in, inputOK := toProductInput(w, req)
	if !inputOK {
		return
	}

	p, err := h.service.Update(r.Context(), userID, role, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProduct は製品削除を処理する。
// DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, role, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireUser はコンテキストからユーザーIDとロールを取り出す。
// 取り出せない場合は401レスポンスを書き込んでfalseを返す。
func requireUser(w http.ResponseWriter, r *http.Request) (string, model.Role, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return "", "", false
	}
	role, err := middleware.RoleFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return "", "", false
	}
	return userID, role, true
}
