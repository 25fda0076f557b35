// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateRole はユーザーのロールを更新する。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、products、warrantiesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProductRepository は製品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの製品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// Create は製品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は製品情報を更新する。
	Update(ctx context.Context, product *model.Product) error

	// DeleteByID は指定IDの製品を削除する。
	// 関連するwarranties、service_infosはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ListByUserID はユーザーの製品一覧を作成日時の昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Product, error)
}

// WarrantyRepository は保証データの永続化インターフェース。
type WarrantyRepository interface {
	// FindByID は指定IDの保証を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Warranty, error)

	// FindWithDocuments は指定IDの保証を添付書類付きで取得する。見つからない場合はnilを返す。
	FindWithDocuments(ctx context.Context, id string) (*model.WarrantyWithDocuments, error)

	// Create は保証を作成する。statusは呼び出し側で導出済みであること。
	Create(ctx context.Context, warranty *model.Warranty) error

	// Update は保証を上書き更新する。statusは呼び出し側で導出済みであること。
	Update(ctx context.Context, warranty *model.Warranty) error

	// DeleteByID は指定IDの保証を削除する。warranty_documentsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ListByUserID はユーザーの保証一覧を作成日時の昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Warranty, error)

	// ListExpiringByUserID はユーザーのstatus='expiring'の保証を有効期限の昇順で返す。
	// 有効期限が同一の場合は作成順を維持する。保存済みstatusのフィルタであり再導出はしない。
	ListExpiringByUserID(ctx context.Context, userID string) ([]*model.Warranty, error)

	// ListExpiringAll はシステム全体のstatus='expiring'の保証を有効期限の昇順で返す。
	ListExpiringAll(ctx context.Context) ([]*model.Warranty, error)

	// AddDocument は保証に書類を追加する。
	AddDocument(ctx context.Context, doc *model.Document) error

	// FindDocumentByID は指定IDの書類を取得する。見つからない場合はnilを返す。
	FindDocumentByID(ctx context.Context, docID string) (*model.Document, error)

	// DeleteDocument は指定IDの書類レコードを削除する。
	DeleteDocument(ctx context.Context, docID string) error

	// ListDocumentsByWarrantyID は保証の書類一覧をアップロード順で返す。
	ListDocumentsByWarrantyID(ctx context.Context, warrantyID string) ([]model.Document, error)
}

// ServiceInfoRepository はサービス情報の永続化インターフェース。
type ServiceInfoRepository interface {
	// FindByID は指定IDのサービス情報を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ServiceInfo, error)

	// Create はサービス情報を作成する。
	Create(ctx context.Context, info *model.ServiceInfo) error

	// Update はサービス情報を更新する。
	Update(ctx context.Context, info *model.ServiceInfo) error

	// DeleteByID は指定IDのサービス情報を削除する。
	DeleteByID(ctx context.Context, id string) error

	// List は全サービス情報をサービス実施日の降順で返す。
	List(ctx context.Context) ([]*model.ServiceInfo, error)

	// ListByProductID は製品のサービス情報一覧をサービス実施日の降順で返す。
	ListByProductID(ctx context.Context, productID string) ([]*model.ServiceInfo, error)
}

// AuditLogRepository は監査ログの永続化インターフェース。
type AuditLogRepository interface {
	// Create は監査ログを追記する。
	Create(ctx context.Context, log *model.AuditLog) error

	// List は監査ログを新しい順にlimit件返す。
	List(ctx context.Context, limit, offset int) ([]*model.AuditLog, error)
}

// StatsRepository は集計クエリのインターフェース。
// すべて読み取り専用で、事前計算やキャッシュは行わず呼び出しごとにスキャンする。
type StatsRepository interface {
	// CountWarrantiesByStatusForUser はユーザーの保証数をstatus別に返す。
	// 保証が0件の場合は空のマップを返す（エラーではない）。
	CountWarrantiesByStatusForUser(ctx context.Context, userID string) (map[model.WarrantyStatus]int, error)

	// CategoryCountsForUser はユーザーの保証を製品カテゴリ別に集計する。
	// カテゴリが解決できない（空の）製品は結果から除外する。
	CategoryCountsForUser(ctx context.Context, userID string) (map[string]int, error)

	// CountUsersByRole は全ユーザー数をロール別に返す。
	CountUsersByRole(ctx context.Context) (map[model.Role]int, error)

	// CountWarrantiesByStatus はシステム全体の保証数をstatus別に返す。
	CountWarrantiesByStatus(ctx context.Context) (map[model.WarrantyStatus]int, error)

	// CountProductsByCategory はシステム全体の製品数をカテゴリ別に返す。
	// カテゴリが空の製品は除外する。
	CountProductsByCategory(ctx context.Context) (map[string]int, error)

	// MonthlyWarrantyCounts は指定期間内に作成された保証数を月番号（1〜12）別に返す。
	// 作成がない月はマップに含まれない。12ヶ月分の穴埋めは呼び出し側で行う。
	MonthlyWarrantyCounts(ctx context.Context, from, to time.Time) (map[int]int, error)
}
