package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hoshokan/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した製品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, user_id, name, category, manufacturer, model_number, serial_number, purchase_date, notes, created_at, updated_at`

func scanProduct(scan func(dest ...any) error) (*model.Product, error) {
	p := &model.Product{}
	err := scan(&p.ID, &p.UserID, &p.Name, &p.Category, &p.Manufacturer, &p.ModelNumber, &p.SerialNumber, &p.PurchaseDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDの製品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	)
	p, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("製品の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Create は製品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, p *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, user_id, name, category, manufacturer, model_number, serial_number, purchase_date, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.UserID, p.Name, p.Category, p.Manufacturer, p.ModelNumber, p.SerialNumber, p.PurchaseDate, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("製品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は製品情報を更新する。
func (r *PostgresProductRepo) Update(ctx context.Context, p *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, category = $3, manufacturer = $4, model_number = $5, serial_number = $6, purchase_date = $7, notes = $8, updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Name, p.Category, p.Manufacturer, p.ModelNumber, p.SerialNumber, p.PurchaseDate, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("製品の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("製品が見つかりません: %s", p.ID)
	}
	return nil
}

// DeleteByID は指定IDの製品を削除する。
// 関連するwarranties、service_infosはCASCADE削除される。
func (r *PostgresProductRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("製品の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("製品が見つかりません: %s", id)
	}
	return nil
}

// ListByUserID はユーザーの製品一覧を作成日時の昇順で返す。
func (r *PostgresProductRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("製品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("製品行の読み取りに失敗しました: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("製品一覧の走査に失敗しました: %w", err)
	}
	return products, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
