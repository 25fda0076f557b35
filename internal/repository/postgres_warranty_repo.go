package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hoshokan/internal/model"
)

// PostgresWarrantyRepo はPostgreSQLを使用した保証リポジトリ。
type PostgresWarrantyRepo struct {
	db *sql.DB
}

// NewPostgresWarrantyRepo はPostgresWarrantyRepoを生成する。
func NewPostgresWarrantyRepo(db *sql.DB) *PostgresWarrantyRepo {
	return &PostgresWarrantyRepo{db: db}
}

const warrantyColumns = `id, user_id, product_id, purchase_date, expiration_date, status, warranty_provider, warranty_number, coverage_details, notes, created_at, updated_at`

func scanWarranty(scan func(dest ...any) error) (*model.Warranty, error) {
	w := &model.Warranty{}
	err := scan(&w.ID, &w.UserID, &w.ProductID, &w.PurchaseDate, &w.ExpirationDate, &w.Status, &w.WarrantyProvider, &w.WarrantyNumber, &w.CoverageDetails, &w.Notes, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// FindByID は指定IDの保証を取得する。見つからない場合はnilを返す。
func (r *PostgresWarrantyRepo) FindByID(ctx context.Context, id string) (*model.Warranty, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+warrantyColumns+` FROM warranties WHERE id = $1`,
		id,
	)
	w, err := scanWarranty(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("保証の取得に失敗しました: %w", err)
	}
	return w, nil
}

// FindWithDocuments は指定IDの保証を添付書類付きで取得する。見つからない場合はnilを返す。
func (r *PostgresWarrantyRepo) FindWithDocuments(ctx context.Context, id string) (*model.WarrantyWithDocuments, error) {
	w, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}

	docs, err := r.ListDocumentsByWarrantyID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.WarrantyWithDocuments{Warranty: *w, Documents: docs}, nil
}

// Create は保証を作成する。statusは呼び出し側で導出済みであること。
func (r *PostgresWarrantyRepo) Create(ctx context.Context, w *model.Warranty) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO warranties (id, user_id, product_id, purchase_date, expiration_date, status, warranty_provider, warranty_number, coverage_details, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		w.ID, w.UserID, w.ProductID, w.PurchaseDate, w.ExpirationDate, w.Status, w.WarrantyProvider, w.WarrantyNumber, w.CoverageDetails, w.Notes, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("保証の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は保証を上書き更新する。statusは呼び出し側で導出済みであること。
func (r *PostgresWarrantyRepo) Update(ctx context.Context, w *model.Warranty) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE warranties
		 SET product_id = $2, purchase_date = $3, expiration_date = $4, status = $5, warranty_provider = $6, warranty_number = $7, coverage_details = $8, notes = $9, updated_at = NOW()
		 WHERE id = $1`,
		w.ID, w.ProductID, w.PurchaseDate, w.ExpirationDate, w.Status, w.WarrantyProvider, w.WarrantyNumber, w.CoverageDetails, w.Notes,
	)
	if err != nil {
		return fmt.Errorf("保証の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("保証が見つかりません: %s", w.ID)
	}
	return nil
}

// DeleteByID は指定IDの保証を削除する。warranty_documentsはCASCADE削除される。
func (r *PostgresWarrantyRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM warranties WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("保証の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("保証が見つかりません: %s", id)
	}
	return nil
}

// ListByUserID はユーザーの保証一覧を作成日時の昇順で返す。
func (r *PostgresWarrantyRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Warranty, error) {
	return r.queryWarranties(ctx,
		`SELECT `+warrantyColumns+` FROM warranties WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
}

// ListExpiringByUserID はユーザーのstatus='expiring'の保証を有効期限の昇順で返す。
// 有効期限が同一の場合はcreated_atで作成順を維持する。
// 保存済みstatusのフィルタであり、日付からの再導出はしない。
func (r *PostgresWarrantyRepo) ListExpiringByUserID(ctx context.Context, userID string) ([]*model.Warranty, error) {
	return r.queryWarranties(ctx,
		`SELECT `+warrantyColumns+` FROM warranties
		 WHERE user_id = $1 AND status = 'expiring'
		 ORDER BY expiration_date ASC, created_at ASC`,
		userID,
	)
}

// ListExpiringAll はシステム全体のstatus='expiring'の保証を有効期限の昇順で返す。
func (r *PostgresWarrantyRepo) ListExpiringAll(ctx context.Context) ([]*model.Warranty, error) {
	return r.queryWarranties(ctx,
		`SELECT `+warrantyColumns+` FROM warranties
		 WHERE status = 'expiring'
		 ORDER BY expiration_date ASC, created_at ASC`,
	)
}

func (r *PostgresWarrantyRepo) queryWarranties(ctx context.Context, query string, args ...any) ([]*model.Warranty, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("保証一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var warranties []*model.Warranty
	for rows.Next() {
		w, err := scanWarranty(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("保証行の読み取りに失敗しました: %w", err)
		}
		warranties = append(warranties, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("保証一覧の走査に失敗しました: %w", err)
	}
	return warranties, nil
}

// AddDocument は保証に書類を追加する。
func (r *PostgresWarrantyRepo) AddDocument(ctx context.Context, doc *model.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO warranty_documents (id, warranty_id, name, path, upload_date)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.WarrantyID, doc.Name, doc.Path, doc.UploadDate,
	)
	if err != nil {
		return fmt.Errorf("書類の追加に失敗しました: %w", err)
	}
	return nil
}

// FindDocumentByID は指定IDの書類を取得する。見つからない場合はnilを返す。
func (r *PostgresWarrantyRepo) FindDocumentByID(ctx context.Context, docID string) (*model.Document, error) {
	doc := &model.Document{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, warranty_id, name, path, upload_date FROM warranty_documents WHERE id = $1`,
		docID,
	).Scan(&doc.ID, &doc.WarrantyID, &doc.Name, &doc.Path, &doc.UploadDate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("書類の取得に失敗しました: %w", err)
	}
	return doc, nil
}

// DeleteDocument は指定IDの書類レコードを削除する。
func (r *PostgresWarrantyRepo) DeleteDocument(ctx context.Context, docID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM warranty_documents WHERE id = $1`,
		docID,
	)
	if err != nil {
		return fmt.Errorf("書類の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("書類が見つかりません: %s", docID)
	}
	return nil
}

// ListDocumentsByWarrantyID は保証の書類一覧をアップロード順で返す。
func (r *PostgresWarrantyRepo) ListDocumentsByWarrantyID(ctx context.Context, warrantyID string) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, warranty_id, name, path, upload_date
		 FROM warranty_documents WHERE warranty_id = $1 ORDER BY upload_date ASC`,
		warrantyID,
	)
	if err != nil {
		return nil, fmt.Errorf("書類一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.WarrantyID, &doc.Name, &doc.Path, &doc.UploadDate); err != nil {
			return nil, fmt.Errorf("書類行の読み取りに失敗しました: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("書類一覧の走査に失敗しました: %w", err)
	}
	return docs, nil
}

// compile-time interface check
var _ WarrantyRepository = (*PostgresWarrantyRepo)(nil)
