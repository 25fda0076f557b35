package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/stats"
)

// --- モック定義 ---

// mockStatsService はStatsServiceInterfaceのモック実装。
type mockStatsService struct {
	overviewFn        func(ctx context.Context, userID string) (*stats.Overview, error)
	expiringSoonFn    func(ctx context.Context, userID string) ([]*model.Warranty, error)
	expiringSoonAllFn func(ctx context.Context) ([]*model.Warranty, error)
	dashboardFn       func(ctx context.Context) (*stats.DashboardStats, error)
}

func (m *mockStatsService) Overview(ctx context.Context, userID string) (*stats.Overview, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, userID)
	}
	return &stats.Overview{CategoryCounts: map[string]int{}}, nil
}
func (m *mockStatsService) ExpiringSoon(ctx context.Context, userID string) ([]*model.Warranty, error) {
	if m.expiringSoonFn != nil {
		return m.expiringSoonFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockStatsService) ExpiringSoonAll(ctx context.Context) ([]*model.Warranty, error) {
	if m.expiringSoonAllFn != nil {
		return m.expiringSoonAllFn(ctx)
	}
	return nil, nil
}
func (m *mockStatsService) Dashboard(ctx context.Context) (*stats.DashboardStats, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx)
	}
	return &stats.DashboardStats{}, nil
}

// --- GET /api/warranties/stats/overview テスト ---

func TestStatsHandler_Overview_Success(t *testing.T) {
	svc := &mockStatsService{
		overviewFn: func(ctx context.Context, userID string) (*stats.Overview, error) {
			return &stats.Overview{
				TotalCount:     5,
				ActiveCount:    2,
				ExpiringCount:  2,
				ExpiredCount:   1,
				CategoryCounts: map[string]int{"家電": 3, "PC": 2},
			}, nil
		},
	}
	h := NewStatsHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/warranties/stats/overview", nil), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.Overview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		TotalCount     int            `json:"totalCount"`
		ActiveCount    int            `json:"activeCount"`
		ExpiringCount  int            `json:"expiringCount"`
		ExpiredCount   int            `json:"expiredCount"`
		CategoryCounts map[string]int `json:"categoryCounts"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalCount != 5 {
		t.Errorf("totalCount = %d, want 5", resp.TotalCount)
	}
	if resp.CategoryCounts["家電"] != 3 {
		t.Errorf("categoryCounts[家電] = %d, want 3", resp.CategoryCounts["家電"])
	}
}

// 保証が0件でも200とゼロ値が返ることを検証
func TestStatsHandler_Overview_ZeroWarranties(t *testing.T) {
	h := NewStatsHandler(&mockStatsService{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/warranties/stats/overview", nil), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.Overview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["totalCount"] != float64(0) {
		t.Errorf("totalCount = %v, want 0", resp["totalCount"])
	}
}

// 集計失敗が汎用500になることを検証
func TestStatsHandler_Overview_AggregationFailure(t *testing.T) {
	svc := &mockStatsService{
		overviewFn: func(ctx context.Context, userID string) (*stats.Overview, error) {
			return nil, errors.New("scan failed")
		},
	}
	h := NewStatsHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/warranties/stats/overview", nil), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.Overview(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", errResp["code"])
	}
}

// --- GET /api/warranties/expiring テスト ---

func TestStatsHandler_ExpiringSoon_SortedByExpiration(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := &mockStatsService{
		expiringSoonFn: func(ctx context.Context, userID string) ([]*model.Warranty, error) {
			return []*model.Warranty{
				{ID: "w-1", PurchaseDate: base, ExpirationDate: base.AddDate(0, 0, 5), Status: model.WarrantyStatusExpiring},
				{ID: "w-2", PurchaseDate: base, ExpirationDate: base.AddDate(0, 0, 20), Status: model.WarrantyStatusExpiring},
			}, nil
		},
	}
	h := NewStatsHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/warranties/expiring", nil), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.ExpiringSoon(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []struct {
		ID             string `json:"id"`
		ExpirationDate string `json:"expirationDate"`
		Status         string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("length = %d, want 2", len(resp))
	}
	if resp[0].ID != "w-1" || resp[1].ID != "w-2" {
		t.Errorf("order = %s, %s; want w-1, w-2", resp[0].ID, resp[1].ID)
	}
	if resp[0].Status != "expiring" {
		t.Errorf("status = %q, want expiring", resp[0].Status)
	}
}

// 該当なしの場合は空配列が返ることを検証
func TestStatsHandler_ExpiringSoon_Empty(t *testing.T) {
	h := NewStatsHandler(&mockStatsService{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/warranties/expiring", nil), "user-123", model.RoleUser)
	w := httptest.NewRecorder()

	h.ExpiringSoon(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}
