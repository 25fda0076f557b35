// Package stats は保証・製品・ユーザーの集計サービスを提供する。
//
// すべての集計は呼び出しごとにストアをスキャンするオンデマンド計算で、
// 事前計算済みビューやキャッシュは持たない。複数クエリで構成される
// 集計（ダッシュボード統計）は各クエリが独立しており、並行する書き込みが
// あった場合に互いに異なる瞬間のデータを観測することがある（ベストエフォート）。
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/repository"
)

// MetricsRecorder は集計クエリのレイテンシ記録インターフェース。
type MetricsRecorder interface {
	ObserveAggregationLatency(operation string, duration time.Duration)
}

// Service は集計のサービス層。
type Service struct {
	statsRepo    repository.StatsRepository
	warrantyRepo repository.WarrantyRepository
	metrics      MetricsRecorder // nilの場合は記録しない

	now func() time.Time // テストで差し替え可能
}

// NewService はServiceを生成する。
func NewService(
	statsRepo repository.StatsRepository,
	warrantyRepo repository.WarrantyRepository,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		statsRepo:    statsRepo,
		warrantyRepo: warrantyRepo,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Overview はユーザーダッシュボード向けの保証サマリー。
type Overview struct {
	TotalCount     int
	ActiveCount    int
	ExpiringCount  int
	ExpiredCount   int
	CategoryCounts map[string]int
}

// MonthlyCount は月別の保証作成数。Monthは英語の月名（January〜December）。
type MonthlyCount struct {
	Month string
	Count int
}

// DashboardStats は管理者ダッシュボード向けのシステム全体統計。
type DashboardStats struct {
	UserStats     map[model.Role]int
	WarrantyStats map[model.WarrantyStatus]int
	ProductStats  map[string]int
	MonthlyData   []MonthlyCount
}

// Overview はユーザーの保証数をstatus別・カテゴリ別に集計する。
// 保証が0件の場合はすべて0の結果を返す（エラーではない）。
func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	defer s.observe("user_overview", s.now())

	statusCounts, err := s.statsRepo.CountWarrantiesByStatusForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("status別集計に失敗しました: %w", err)
	}

	categoryCounts, err := s.statsRepo.CategoryCountsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別集計に失敗しました: %w", err)
	}
	if categoryCounts == nil {
		categoryCounts = map[string]int{}
	}

	active := statusCounts[model.WarrantyStatusActive]
	expiring := statusCounts[model.WarrantyStatusExpiring]
	expired := statusCounts[model.WarrantyStatusExpired]

	return &Overview{
		TotalCount:     active + expiring + expired,
		ActiveCount:    active,
		ExpiringCount:  expiring,
		ExpiredCount:   expired,
		CategoryCounts: categoryCounts,
	}, nil
}

// ExpiringSoon はユーザーのstatus='expiring'の保証を有効期限の昇順で返す。
// 保存済みstatusのフィルタであり、日付からの再導出はしない。
func (s *Service) ExpiringSoon(ctx context.Context, userID string) ([]*model.Warranty, error) {
	defer s.observe("expiring_soon", s.now())

	warranties, err := s.warrantyRepo.ListExpiringByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("期限間近の保証一覧の取得に失敗しました: %w", err)
	}
	return warranties, nil
}

// ExpiringSoonAll はシステム全体のstatus='expiring'の保証を有効期限の昇順で返す。
// 管理者向け。
func (s *Service) ExpiringSoonAll(ctx context.Context) ([]*model.Warranty, error) {
	defer s.observe("expiring_soon_all", s.now())

	warranties, err := s.warrantyRepo.ListExpiringAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("期限間近の保証一覧の取得に失敗しました: %w", err)
	}
	return warranties, nil
}

// Dashboard は管理者ダッシュボード向けのシステム全体統計を返す。
// 4つの集計は独立したクエリで、トランザクション整合性は保証しない。
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	defer s.observe("admin_dashboard", s.now())

	userStats, err := s.statsRepo.CountUsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("ロール別ユーザー数の集計に失敗しました: %w", err)
	}

	warrantyStats, err := s.statsRepo.CountWarrantiesByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("status別保証数の集計に失敗しました: %w", err)
	}

	productStats, err := s.statsRepo.CountProductsByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別製品数の集計に失敗しました: %w", err)
	}

	monthlyData, err := s.monthlyHistogram(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		UserStats:     userStats,
		WarrantyStats: warrantyStats,
		ProductStats:  productStats,
		MonthlyData:   monthlyData,
	}, nil
}

// monthlyHistogram はサーバーのローカル暦での今年1年分の月別保証作成数を返す。
// 作成が1件もない月も含め、常に1月から12月まで順に12エントリを返す。
func (s *Service) monthlyHistogram(ctx context.Context) ([]MonthlyCount, error) {
	now := s.now()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(1, 0, 0)

	counts, err := s.statsRepo.MonthlyWarrantyCounts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("月別保証数の集計に失敗しました: %w", err)
	}

	histogram := make([]MonthlyCount, 0, 12)
	for m := time.January; m <= time.December; m++ {
		histogram = append(histogram, MonthlyCount{
			Month: m.String(),
			Count: counts[int(m)],
		})
	}
	return histogram, nil
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAggregationLatency(operation, time.Since(start))
	}
}
