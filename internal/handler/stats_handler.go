package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/stats"
)

// StatsServiceInterface は集計ハンドラーが必要とするサービスインターフェース。
type StatsServiceInterface interface {
	Overview(ctx context.Context, userID string) (*stats.Overview, error)
	ExpiringSoon(ctx context.Context, userID string) ([]*model.Warranty, error)
	ExpiringSoonAll(ctx context.Context) ([]*model.Warranty, error)
	Dashboard(ctx context.Context) (*stats.DashboardStats, error)
}

// StatsHandler は集計エンドポイントのHTTPハンドラー。
type StatsHandler struct {
	service StatsServiceInterface
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// overviewResponse はユーザーダッシュボード向け集計のAPIレスポンス。
type overviewResponse struct {
	TotalCount     int            `json:"totalCount"`
	ActiveCount    int            `json:"activeCount"`
	ExpiringCount  int            `json:"expiringCount"`
	ExpiredCount   int            `json:"expiredCount"`
	CategoryCounts map[string]int `json:"categoryCounts"`
}

// Overview はユーザーの保証集計を返す。保証が0件でもエラーにはならない。
// GET /api/warranties/stats/overview
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	overview, err := h.service.Overview(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		TotalCount:     overview.TotalCount,
		ActiveCount:    overview.ActiveCount,
		ExpiringCount:  overview.ExpiringCount,
		ExpiredCount:   overview.ExpiredCount,
		CategoryCounts: overview.CategoryCounts,
	})
}

// ExpiringSoon は自分のstatus='expiring'の保証一覧を有効期限の昇順で返す。
// GET /api/warranties/expiring
func (h *StatsHandler) ExpiringSoon(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireUser(w, r)
	if !ok {
		return
	}

	warranties, err := h.service.ExpiringSoon(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWarrantyResponses(warranties))
}
