package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/warranty"
)

// WarrantyServiceInterface は保証ハンドラーが必要とするサービスインターフェース。
type WarrantyServiceInterface interface {
	Create(ctx context.Context, userID string, in warranty.Input) (*model.Warranty, error)
	Update(ctx context.Context, userID string, role model.Role, warrantyID string, in warranty.Input) (*model.Warranty, error)
	Get(ctx context.Context, userID string, role model.Role, warrantyID string) (*model.WarrantyWithDocuments, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Warranty, error)
	Delete(ctx context.Context, userID string, role model.Role, warrantyID string) error
	AttachDocument(ctx context.Context, userID string, role model.Role, warrantyID, fileName string, r io.Reader) (*model.Document, error)
	RemoveDocument(ctx context.Context, userID string, role model.Role, warrantyID, docID string) error
}

// WarrantyHandlerConfig は保証ハンドラーの設定。
type WarrantyHandlerConfig struct {
	UploadMaxSize int64 // 書類アップロードの最大サイズ（バイト）
}

// WarrantyHandler は保証管理のHTTPハンドラー。
type WarrantyHandler struct {
	service WarrantyServiceInterface
	config  WarrantyHandlerConfig
}

// NewWarrantyHandler はWarrantyHandlerを生成する。
func NewWarrantyHandler(service WarrantyServiceInterface, config WarrantyHandlerConfig) *WarrantyHandler {
	return &WarrantyHandler{
		service: service,
		config:  config,
	}
}

// warrantyRequest は保証の作成・更新リクエストのボディ。
// statusフィールドは受け付けない: ボディに含まれていても無視され、
// レスポンスには常に導出された値が入る。
type warrantyRequest struct {
	ProductID        string `json:"productId"`
	PurchaseDate     string `json:"purchaseDate"`   // YYYY-MM-DD
	ExpirationDate   string `json:"expirationDate"` // YYYY-MM-DD
	WarrantyProvider string `json:"warrantyProvider"`
	WarrantyNumber   string `json:"warrantyNumber"`
	CoverageDetails  string `json:"coverageDetails"`
	Notes            string `json:"notes"`
}

// warrantyResponse は保証情報のAPIレスポンス。
type warrantyResponse struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"productId"`
	PurchaseDate     string    `json:"purchaseDate"`
	ExpirationDate   string    `json:"expirationDate"`
	Status           string    `json:"status"`
	WarrantyProvider string    `json:"warrantyProvider"`
	WarrantyNumber   string    `json:"warrantyNumber"`
	CoverageDetails  string    `json:"coverageDetails"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// documentResponse は書類情報のAPIレスポンス。保存パスは含めない。
type documentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadDate time.Time `json:"uploadDate"`
}

// warrantyDetailResponse は保証詳細（書類付き）のAPIレスポンス。
type warrantyDetailResponse struct {
	warrantyResponse
	Documents []documentResponse `json:"documents"`
}

func toWarrantyResponse(w *model.Warranty) warrantyResponse {
	return warrantyResponse{
		ID:               w.ID,
		ProductID:        w.ProductID,
		PurchaseDate:     w.PurchaseDate.Format(dateLayout),
		ExpirationDate:   w.ExpirationDate.Format(dateLayout),
		Status:           string(w.Status),
		WarrantyProvider: w.WarrantyProvider,
		WarrantyNumber:   w.WarrantyNumber,
		CoverageDetails:  w.CoverageDetails,
		Notes:            w.Notes,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func toDocumentResponse(doc model.Document) documentResponse {
	return documentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		UploadDate: doc.UploadDate,
	}
}

// toWarrantyInput はリクエストボディをサービス層の入力に変換する。
// 日付の解析に失敗した場合はエラーレスポンスを書き込んでfalseを返す。
func toWarrantyInput(w http.ResponseWriter, req warrantyRequest) (warranty.Input, bool) {
	purchaseDate, err := parseDate("purchaseDate", req.PurchaseDate)
	if err != nil {
		handleServiceError(w, err)
		return warranty.Input{}, false
	}
	expirationDate, err := parseDate("expirationDate", req.ExpirationDate)
	if err != nil {
		handleServiceError(w, err)
		return warranty.Input{}, false
	}

	return warranty.Input{
		ProductID:        req.ProductID,
		PurchaseDate:     purchaseDate,
		ExpirationDate:   expirationDate,
		WarrantyProvider: req.WarrantyProvider,
		WarrantyNumber:   req.WarrantyNumber,
		CoverageDetails:  req.CoverageDetails,
		Notes:            req.Notes,
	}, true
}

// CreateWarranty は保証登録を処理する。
// POST /api/warranties
func (h *WarrantyHandler) CreateWarranty(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req warrantyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	in, inputOK := toWarrantyInput(w, req)
	if !inputOK {
		return
	}

	created, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWarrantyResponse(created))
}

// ListWarranties は自分の保証一覧を返す。
// GET /api/warranties
func (h *WarrantyHandler) ListWarranties(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	warranties, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWarrantyResponses(warranties))
}

// GetWarranty は保証詳細を添付書類付きで返す。
// GET /api/warranties/{id}
func (h *WarrantyHandler) GetWarranty(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), userID, role, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := warrantyDetailResponse{
		warrantyResponse: toWarrantyResponse(&detail.Warranty),
		Documents:        make([]documentResponse, 0, len(detail.Documents)),
	}
	for _, doc := range detail.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateWarranty は保証更新を処理する。statusは再導出される。
// PUT /api/warranties/{id}
func (h *WarrantyHandler) UpdateWarranty(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req warrantyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	in, inputOK := toWarrantyInput(w, req)
	if !inputOK {
		return
	}

	updated, err := h.service.Update(r.Context(), userID, role, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWarrantyResponse(updated))
}

// DeleteWarranty は保証削除を処理する。添付書類もカスケード削除される。
// DELETE /api/warranties/{id}
func (h *WarrantyHandler) DeleteWarranty(w http.ResponseWriter, r *http.Request) {
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

// UploadDocument は保証への書類添付を処理する。
// multipart/form-dataの"file"フィールドを読み取り、サイズ上限を超えた場合は413を返す。
// POST /api/warranties/{id}/documents
func (h *WarrantyHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.UploadMaxSize)
	if err := r.ParseMultipartForm(h.config.UploadMaxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewUploadTooLargeError(h.config.UploadMaxSize))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "マルチパートフォームの解析に失敗しました。",
			Category: "validation",
			Action:   "multipart/form-data形式でfileフィールドを送信してください。",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "fileフィールドが見つかりません。",
			Category: "validation",
			Action:   "fileフィールドにファイルを指定してください。",
		})
		return
	}
	defer file.Close()

	doc, err := h.service.AttachDocument(r.Context(), userID, role, chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(*doc))
}

// DeleteDocument は保証からの書類削除を処理する。
// DELETE /api/warranties/{id}/documents/{docID}
func (h *WarrantyHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.service.RemoveDocument(r.Context(), userID, role, chi.URLParam(r, "id"), chi.URLParam(r, "docID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toWarrantyResponses は保証のスライスをレスポンス形式に変換する。
func toWarrantyResponses(warranties []*model.Warranty) []warrantyResponse {
	resp := make([]warrantyResponse, 0, len(warranties))
	for _, w := range warranties {
		resp = append(resp, toWarrantyResponse(w))
	}
	return resp
}
