package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
)

// PostgresStatsRepo はPostgreSQLを使用した集計リポジトリ。
// 各クエリは独立しており、スナップショットの共有はしない（ベストエフォート整合性）。
type PostgresStatsRepo struct {
	db *sql.DB
}

// NewPostgresStatsRepo はPostgresStatsRepoを生成する。
func NewPostgresStatsRepo(db *sql.DB) *PostgresStatsRepo {
	return &PostgresStatsRepo{db: db}
}

// CountWarrantiesByStatusForUser はユーザーの保証数をstatus別に返す。
// 保証が0件の場合は空のマップを返す。
func (r *PostgresStatsRepo) CountWarrantiesByStatusForUser(ctx context.Context, userID string) (map[model.WarrantyStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM warranties WHERE user_id = $1 GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("status別保証数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.WarrantyStatus]int)
	for rows.Next() {
		var status model.WarrantyStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}
	return counts, nil
}

// CategoryCountsForUser はユーザーの保証を製品カテゴリ別に集計する。
// JOINで製品が解決できない保証と、カテゴリが空の製品は結果に含まれない。
func (r *PostgresStatsRepo) CategoryCountsForUser(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.category, COUNT(*)
		 FROM warranties w
		 JOIN products p ON w.product_id = p.id
		 WHERE w.user_id = $1 AND p.category <> ''
		 GROUP BY p.category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別保証数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStringCounts(rows)
}

// CountUsersByRole は全ユーザー数をロール別に返す。
func (r *PostgresStatsRepo) CountUsersByRole(ctx context.Context) (map[model.Role]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, COUNT(*) FROM users GROUP BY role`,
	)
	if err != nil {
		return nil, fmt.Errorf("ロール別ユーザー数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Role]int)
	for rows.Next() {
		var role model.Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}
	return counts, nil
}

// CountWarrantiesByStatus はシステム全体の保証数をstatus別に返す。
func (r *PostgresStatsRepo) CountWarrantiesByStatus(ctx context.Context) (map[model.WarrantyStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM warranties GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("status別保証数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.WarrantyStatus]int)
	for rows.Next() {
		var status model.WarrantyStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}
	return counts, nil
}

// CountProductsByCategory はシステム全体の製品数をカテゴリ別に返す。
func (r *PostgresStatsRepo) CountProductsByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM products WHERE category <> '' GROUP BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別製品数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanStringCounts(rows)
}

// MonthlyWarrantyCounts は指定期間内に作成された保証数を月番号（1〜12）別に返す。
// 期間は[from, to)の半開区間。作成がない月はマップに含まれない。
// 月境界の判定がDBセッションのタイムゾーン設定に左右されないよう、
// 月への割り当てはfromと同じタイムゾーンでGo側で行う。
func (r *PostgresStatsRepo) MonthlyWarrantyCounts(ctx context.Context, from, to time.Time) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at FROM warranties
		 WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("月別保証数の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	var createdAts []time.Time
	for rows.Next() {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		createdAts = append(createdAts, createdAt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}

	return bucketByMonth(createdAts, from.Location()), nil
}

// bucketByMonth は作成時刻を指定タイムゾーンの月番号（1〜12）別に集計する。
func bucketByMonth(times []time.Time, loc *time.Location) map[int]int {
	counts := make(map[int]int)
	for _, t := range times {
		counts[int(t.In(loc).Month())]++
	}
	return counts
}

func scanStringCounts(rows *sql.Rows) (map[string]int, error) {
	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}
	return counts, nil
}

// compile-time interface check
var _ StatsRepository = (*PostgresStatsRepo)(nil)
