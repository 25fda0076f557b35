package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hoshokan/internal/admin"
	"github.com/hitoshi/hoshokan/internal/model"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	ChangeUserRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, targetID string) error
	CreateServiceInfo(ctx context.Context, actorID string, in admin.ServiceInfoInput) (*model.ServiceInfo, error)
	UpdateServiceInfo(ctx context.Context, actorID, infoID string, in admin.ServiceInfoInput) (*model.ServiceInfo, error)
	DeleteServiceInfo(ctx context.Context, actorID, infoID string) error
	ListServiceInfos(ctx context.Context) ([]*model.ServiceInfo, error)
	ListAuditLogs(ctx context.Context, limit, offset int) ([]*model.AuditLog, error)
}

// AdminHandler は管理者向けエンドポイントのHTTPハンドラー。
// ルーティング側でRequireAdminミドルウェアの内側に配置される。
type AdminHandler struct {
	service AdminServiceInterface
	stats   StatsServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, stats StatsServiceInterface) *AdminHandler {
	return &AdminHandler{
		service: service,
		stats:   stats,
	}
}

// dashboardResponse は管理者ダッシュボードのAPIレスポンス。
type dashboardResponse struct {
	UserStats     map[string]int     `json:"userStats"`
	WarrantyStats map[string]int     `json:"warrantyStats"`
	ProductStats  map[string]int     `json:"productStats"`
	MonthlyData   []monthlyDataEntry `json:"monthlyData"`
}

// monthlyDataEntry は月別ヒストグラムの1エントリ。
type monthlyDataEntry struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// serviceInfoRequest はサービス情報の作成・更新リクエストのボディ。
type serviceInfoRequest struct {
	ProductID       string `json:"productId"`
	ServiceProvider string `json:"serviceProvider"`
	Description     string `json:"description"`
	ServiceDate     string `json:"serviceDate"` // YYYY-MM-DD
	Cost            int64  `json:"cost"`
}

// serviceInfoResponse はサービス情報のAPIレスポンス。
type serviceInfoResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	ServiceProvider string    `json:"serviceProvider"`
	Description     string    `json:"description"`
	ServiceDate     string    `json:"serviceDate"`
	Cost            int64     `json:"cost"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// auditLogResponse は監査ログのAPIレスポンス。
type auditLogResponse struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toServiceInfoResponse(info *model.ServiceInfo) serviceInfoResponse {
	return serviceInfoResponse{
		ID:              info.ID,
		ProductID:       info.ProductID,
		ServiceProvider: info.ServiceProvider,
		Description:     info.Description,
		ServiceDate:     info.ServiceDate.Format(dateLayout),
		Cost:            info.Cost,
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
	}
}

// Dashboard はシステム全体の統計を返す。
// 月別ヒストグラムは常に1月から12月まで12エントリを含む。
// GET /api/admin/dashboard/stats
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.stats.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := dashboardResponse{
		UserStats:     make(map[string]int, len(dashboard.UserStats)),
		WarrantyStats: make(map[string]int, len(dashboard.WarrantyStats)),
		ProductStats:  dashboard.ProductStats,
		MonthlyData:   make([]monthlyDataEntry, 0, len(dashboard.MonthlyData)),
	}
	for role, count := range dashboard.UserStats {
		resp.UserStats[string(role)] = count
	}
	for status, count := range dashboard.WarrantyStats {
		resp.WarrantyStats[string(status)] = count
	}
	for _, mc := range dashboard.MonthlyData {
		resp.MonthlyData = append(resp.MonthlyData, monthlyDataEntry{Month: mc.Month, Count: mc.Count})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListUsers は全ユーザー一覧を返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

// changeRoleRequest はロール変更リクエストのボディ。
type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeUserRole はユーザーのロール変更を処理する。
// PUT /api/admin/users/{id}/role
func (h *AdminHandler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req changeRoleRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.ChangeUserRole(r.Context(), actorID, chi.URLParam(r, "id"), model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteUser はユーザー削除を処理する。
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExpiringSoonAll はシステム全体のstatus='expiring'の保証一覧を返す。
// GET /api/admin/warranties/expiring
func (h *AdminHandler) ExpiringSoonAll(w http.ResponseWriter, r *http.Request) {
	warranties, err := h.stats.ExpiringSoonAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWarrantyResponses(warranties))
}

// ListServiceInfos は全サービス情報一覧を返す。
// GET /api/admin/service-info
func (h *AdminHandler) ListServiceInfos(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.ListServiceInfos(r.Context())
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

// toServiceInfoInput はリクエストボディをサービス層の入力に変換する。
func toServiceInfoInput(w http.ResponseWriter, req serviceInfoRequest) (admin.ServiceInfoInput, bool) {
	serviceDate, err := parseDate("serviceDate", req.ServiceDate)
	if err != nil {
		handleServiceError(w, err)
		return admin.ServiceInfoInput{}, false
	}
	return admin.ServiceInfoInput{
		ProductID:       req.ProductID,
		ServiceProvider: req.ServiceProvider,
		Description:     req.Description,
		ServiceDate:     serviceDate,
		Cost:            req.Cost,
	}, true
}

// CreateServiceInfo はサービス情報の作成を処理する。
// POST /api/admin/service-info
func (h *AdminHandler) CreateServiceInfo(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req serviceInfoRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	in, inputOK := toServiceInfoInput(w, req)
	if !inputOK {
		return
	}

	info, err := h.service.CreateServiceInfo(r.Context(), actorID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toServiceInfoResponse(info))
}

// UpdateServiceInfo はサービス情報の更新を処理する。
// PUT /api/admin/service-info/{id}
func (h *AdminHandler) UpdateServiceInfo(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req serviceInfoRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	in, inputOK := toServiceInfoInput(w, req)
	if !inputOK {
		return
	}

	info, err := h.service.UpdateServiceInfo(r.Context(), actorID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceInfoResponse(info))
}

// DeleteServiceInfo はサービス情報の削除を処理する。
// DELETE /api/admin/service-info/{id}
func (h *AdminHandler) DeleteServiceInfo(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteServiceInfo(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAuditLogs は監査ログを新しい順に返す。limit/offsetクエリに対応する。
// GET /api/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.service.ListAuditLogs(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]auditLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, auditLogResponse{
			ID:         log.ID,
			ActorID:    log.ActorID,
			Action:     string(log.Action),
			TargetType: log.TargetType,
			TargetID:   log.TargetID,
			Detail:     log.Detail,
			CreatedAt:  log.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
