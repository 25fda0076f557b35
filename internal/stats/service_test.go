package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
)

// --- モック ---

type mockStatsRepo struct {
	countByStatusForUserFn func(ctx context.Context, userID string) (map[model.WarrantyStatus]int, error)
	categoryCountsFn       func(ctx context.Context, userID string) (map[string]int, error)
	countUsersByRoleFn     func(ctx context.Context) (map[model.Role]int, error)
	countByStatusFn        func(ctx context.Context) (map[model.WarrantyStatus]int, error)
	countByCategoryFn      func(ctx context.Context) (map[string]int, error)
	monthlyCountsFn        func(ctx context.Context, from, to time.Time) (map[int]int, error)
}

func (m *mockStatsRepo) CountWarrantiesByStatusForUser(ctx context.Context, userID string) (map[model.WarrantyStatus]int, error) {
	if m.countByStatusForUserFn != nil {
		return m.countByStatusForUserFn(ctx, userID)
	}
	return map[model.WarrantyStatus]int{}, nil
}
func (m *mockStatsRepo) CategoryCountsForUser(ctx context.Context, userID string) (map[string]int, error) {
	if m.categoryCountsFn != nil {
		return m.categoryCountsFn(ctx, userID)
	}
	return map[string]int{}, nil
}
func (m *mockStatsRepo) CountUsersByRole(ctx context.Context) (map[model.Role]int, error) {
	if m.countUsersByRoleFn != nil {
		return m.countUsersByRoleFn(ctx)
	}
	return map[model.Role]int{}, nil
}
func (m *mockStatsRepo) CountWarrantiesByStatus(ctx context.Context) (map[model.WarrantyStatus]int, error) {
	if m.countByStatusFn != nil {
		return m.countByStatusFn(ctx)
	}
	return map[model.WarrantyStatus]int{}, nil
}
func (m *mockStatsRepo) CountProductsByCategory(ctx context.Context) (map[string]int, error) {
	if m.countByCategoryFn != nil {
		return m.countByCategoryFn(ctx)
	}
	return map[string]int{}, nil
}
func (m *mockStatsRepo) MonthlyWarrantyCounts(ctx context.Context, from, to time.Time) (map[int]int, error) {
	if m.monthlyCountsFn != nil {
		return m.monthlyCountsFn(ctx, from, to)
	}
	return map[int]int{}, nil
}

type mockWarrantyLister struct {
	listExpiringByUserFn func(ctx context.Context, userID string) ([]*model.Warranty, error)
	listExpiringAllFn    func(ctx context.Context) ([]*model.Warranty, error)
}

func (m *mockWarrantyLister) FindByID(ctx context.Context, id string) (*model.Warranty, error) {
	return nil, nil
}
func (m *mockWarrantyLister) FindWithDocuments(ctx context.Context, id string) (*model.WarrantyWithDocuments, error) {
	return nil, nil
}
func (m *mockWarrantyLister) Create(ctx context.Context, w *model.Warranty) error { return nil }
func (m *mockWarrantyLister) Update(ctx context.Context, w *model.Warranty) error { return nil }
func (m *mockWarrantyLister) DeleteByID(ctx context.Context, id string) error     { return nil }
func (m *mockWarrantyLister) ListByUserID(ctx context.Context, userID string) ([]*model.Warranty, error) {
	return nil, nil
}
func (m *mockWarrantyLister) ListExpiringByUserID(ctx context.Context, userID string) ([]*model.Warranty, error) {
	if m.listExpiringByUserFn != nil {
		return m.listExpiringByUserFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockWarrantyLister) ListExpiringAll(ctx context.Context) ([]*model.Warranty, error) {
	if m.listExpiringAllFn != nil {
		return m.listExpiringAllFn(ctx)
	}
	return nil, nil
}
func (m *mockWarrantyLister) AddDocument(ctx context.Context, doc *model.Document) error { return nil }
func (m *mockWarrantyLister) FindDocumentByID(ctx context.Context, docID string) (*model.Document, error) {
	return nil, nil
}
func (m *mockWarrantyLister) DeleteDocument(ctx context.Context, docID string) error { return nil }
func (m *mockWarrantyLister) ListDocumentsByWarrantyID(ctx context.Context, warrantyID string) ([]model.Document, error) {
	return nil, nil
}

// --- テスト ---

// Overviewの合計がstatus別件数の和になることを検証
func TestService_Overview(t *testing.T) {
	statsRepo := &mockStatsRepo{
		countByStatusForUserFn: func(ctx context.Context, userID string) (map[model.WarrantyStatus]int, error) {
			return map[model.WarrantyStatus]int{
				model.WarrantyStatusActive:   1,
				model.WarrantyStatusExpiring: 1,
				model.WarrantyStatusExpired:  1,
			}, nil
		},
		categoryCountsFn: func(ctx context.Context, userID string) (map[string]int, error) {
			return map[string]int{"家電": 2, "PC": 1}, nil
		},
	}

	svc := NewService(statsRepo, &mockWarrantyLister{}, nil)

	overview, err := svc.Overview(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}

	if overview.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", overview.TotalCount)
	}
	if overview.ActiveCount != 1 || overview.ExpiringCount != 1 || overview.ExpiredCount != 1 {
		t.Errorf("status counts = %d/%d/%d, want 1/1/1",
			overview.ActiveCount, overview.ExpiringCount, overview.ExpiredCount)
	}
	if overview.ActiveCount+overview.ExpiringCount+overview.ExpiredCount != overview.TotalCount {
		t.Error("sum of status counts should equal total")
	}
	if overview.CategoryCounts["家電"] != 2 {
		t.Errorf("CategoryCounts[家電] = %d, want 2", overview.CategoryCounts["家電"])
	}
}

// 保証が0件のユーザーのOverviewがすべて0になることを検証
func TestService_Overview_ZeroWarranties(t *testing.T) {
	svc := NewService(&mockStatsRepo{}, &mockWarrantyLister{}, nil)

	overview, err := svc.Overview(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if overview.TotalCount != 0 || overview.ActiveCount != 0 || overview.ExpiringCount != 0 || overview.ExpiredCount != 0 {
		t.Errorf("all counts should be zero, got %+v", overview)
	}
	if overview.CategoryCounts == nil {
		t.Error("CategoryCounts should be an empty map, not nil")
	}
}

// 集計クエリの失敗がエラーとして伝播することを検証
func TestService_Overview_QueryFailure(t *testing.T) {
	statsRepo := &mockStatsRepo{
		countByStatusForUserFn: func(ctx context.Context, userID string) (map[model.WarrantyStatus]int, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(statsRepo, &mockWarrantyLister{}, nil)

	_, err := svc.Overview(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error from failed query")
	}
}

// ExpiringSoonがリポジトリの返す順序を保持することを検証
func TestService_ExpiringSoon_PreservesOrder(t *testing.T) {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	lister := &mockWarrantyLister{
		listExpiringByUserFn: func(ctx context.Context, userID string) ([]*model.Warranty, error) {
			return []*model.Warranty{
				{ID: "w-1", ExpirationDate: base.AddDate(0, 0, 3)},
				{ID: "w-2", ExpirationDate: base.AddDate(0, 0, 10)},
				{ID: "w-3", ExpirationDate: base.AddDate(0, 0, 25)},
			}, nil
		},
	}
	svc := NewService(&mockStatsRepo{}, lister, nil)

	warranties, err := svc.ExpiringSoon(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ExpiringSoon returned error: %v", err)
	}

	for i := 1; i < len(warranties); i++ {
		if warranties[i].ExpirationDate.Before(warranties[i-1].ExpirationDate) {
			t.Errorf("expiring list is not sorted ascending at index %d", i)
		}
	}
}

// 月別ヒストグラムが常に12エントリを1月から順に返すことを検証
func TestService_Dashboard_MonthlyHistogramAlwaysTwelve(t *testing.T) {
	statsRepo := &mockStatsRepo{
		monthlyCountsFn: func(ctx context.Context, from, to time.Time) (map[int]int, error) {
			return map[int]int{3: 5, 11: 2}, nil
		},
	}
	svc := NewService(statsRepo, &mockWarrantyLister{}, nil)

	dashboard, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	if len(dashboard.MonthlyData) != 12 {
		t.Fatalf("MonthlyData length = %d, want 12", len(dashboard.MonthlyData))
	}
	if dashboard.MonthlyData[0].Month != "January" {
		t.Errorf("first month = %q, want %q", dashboard.MonthlyData[0].Month, "January")
	}
	if dashboard.MonthlyData[11].Month != "December" {
		t.Errorf("last month = %q, want %q", dashboard.MonthlyData[11].Month, "December")
	}
	if dashboard.MonthlyData[2].Count != 5 {
		t.Errorf("March count = %d, want 5", dashboard.MonthlyData[2].Count)
	}
	if dashboard.MonthlyData[10].Count != 2 {
		t.Errorf("November count = %d, want 2", dashboard.MonthlyData[10].Count)
	}
	if dashboard.MonthlyData[0].Count != 0 {
		t.Errorf("January count = %d, want 0", dashboard.MonthlyData[0].Count)
	}
}

// 保証が0件の年でも12エントリすべてが0で返ることを検証
func TestService_Dashboard_MonthlyHistogramAllZero(t *testing.T) {
	svc := NewService(&mockStatsRepo{}, &mockWarrantyLister{}, nil)

	dashboard, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	if len(dashboard.MonthlyData) != 12 {
		t.Fatalf("MonthlyData length = %d, want 12", len(dashboard.MonthlyData))
	}
	for i, mc := range dashboard.MonthlyData {
		if mc.Count != 0 {
			t.Errorf("month %d count = %d, want 0", i+1, mc.Count)
		}
		want := time.Month(i + 1).String()
		if mc.Month != want {
			t.Errorf("month %d name = %q, want %q", i+1, mc.Month, want)
		}
	}
}

// 月別集計の範囲が今年のローカル暦の1年間であることを検証
func TestService_Dashboard_MonthlyRangeIsCurrentYear(t *testing.T) {
	var gotFrom, gotTo time.Time
	statsRepo := &mockStatsRepo{
		monthlyCountsFn: func(ctx context.Context, from, to time.Time) (map[int]int, error) {
			gotFrom, gotTo = from, to
			return map[int]int{}, nil
		},
	}
	svc := NewService(statsRepo, &mockWarrantyLister{}, nil)
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Dashboard(context.Background()); err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	wantFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	if !gotFrom.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", gotFrom, wantFrom)
	}
	if !gotTo.Equal(wantFrom.AddDate(1, 0, 0)) {
		t.Errorf("to = %v, want %v", gotTo, wantFrom.AddDate(1, 0, 0))
	}
}
