package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hoshokan/internal/model"
)

// PostgresServiceInfoRepo はPostgreSQLを使用したサービス情報リポジトリ。
type PostgresServiceInfoRepo struct {
	db *sql.DB
}

// NewPostgresServiceInfoRepo はPostgresServiceInfoRepoを生成する。
func NewPostgresServiceInfoRepo(db *sql.DB) *PostgresServiceInfoRepo {
	return &PostgresServiceInfoRepo{db: db}
}

const serviceInfoColumns = `id, product_id, service_provider, description, service_date, cost, created_at, updated_at`

func scanServiceInfo(scan func(dest ...any) error) (*model.ServiceInfo, error) {
	info := &model.ServiceInfo{}
	err := scan(&info.ID, &info.ProductID, &info.ServiceProvider, &info.Description, &info.ServiceDate, &info.Cost, &info.CreatedAt, &info.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// FindByID は指定IDのサービス情報を取得する。見つからない場合はnilを返す。
func (r *PostgresServiceInfoRepo) FindByID(ctx context.Context, id string) (*model.ServiceInfo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+serviceInfoColumns+` FROM service_infos WHERE id = $1`,
		id,
	)
	info, err := scanServiceInfo(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("サービス情報の取得に失敗しました: %w", err)
	}
	return info, nil
}

// Create はサービス情報を作成する。
func (r *PostgresServiceInfoRepo) Create(ctx context.Context, info *model.ServiceInfo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO service_infos (id, product_id, service_provider, description, service_date, cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		info.ID, info.ProductID, info.ServiceProvider, info.Description, info.ServiceDate, info.Cost, info.CreatedAt, info.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("サービス情報の作成に失敗しました: %w", err)
	}
	return nil
}

// Update はサービス情報を更新する。
func (r *PostgresServiceInfoRepo) Update(ctx context.Context, info *model.ServiceInfo) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE service_infos
		 SET service_provider = $2, description = $3, service_date = $4, cost = $5, updated_at = NOW()
		 WHERE id = $1`,
		info.ID, info.ServiceProvider, info.Description, info.ServiceDate, info.Cost,
	)
	if err != nil {
		return fmt.Errorf("サービス情報の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("サービス情報が見つかりません: %s", info.ID)
	}
	return nil
}

// DeleteByID は指定IDのサービス情報を削除する。
func (r *PostgresServiceInfoRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM service_infos WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("サービス情報の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("サービス情報が見つかりません: %s", id)
	}
	return nil
}

// List は全サービス情報をサービス実施日の降順で返す。
func (r *PostgresServiceInfoRepo) List(ctx context.Context) ([]*model.ServiceInfo, error) {
	return r.queryServiceInfos(ctx,
		`SELECT `+serviceInfoColumns+` FROM service_infos ORDER BY service_date DESC`,
	)
}

// ListByProductID は製品のサービス情報一覧をサービス実施日の降順で返す。
func (r *PostgresServiceInfoRepo) ListByProductID(ctx context.Context, productID string) ([]*model.ServiceInfo, error) {
	return r.queryServiceInfos(ctx,
		`SELECT `+serviceInfoColumns+` FROM service_infos WHERE product_id = $1 ORDER BY service_date DESC`,
		productID,
	)
}

func (r *PostgresServiceInfoRepo) queryServiceInfos(ctx context.Context, query string, args ...any) ([]*model.ServiceInfo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("サービス情報一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var infos []*model.ServiceInfo
	for rows.Next() {
		info, err := scanServiceInfo(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("サービス情報行の読み取りに失敗しました: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("サービス情報一覧の走査に失敗しました: %w", err)
	}
	return infos, nil
}

// compile-time interface check
var _ ServiceInfoRepository = (*PostgresServiceInfoRepo)(nil)
