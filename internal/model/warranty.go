// Package model はドメインモデルを定義する。
package model

import "time"

// WarrantyStatus は保証のライフサイクル状態を表す。
// 有効期限から導出される値であり、クライアントが直接設定することはできない。
type WarrantyStatus string

const (
	// WarrantyStatusActive は有効期限まで十分な余裕がある状態。
	WarrantyStatusActive WarrantyStatus = "active"
	// WarrantyStatusExpiring は有効期限が30日以内に迫っている状態。
	WarrantyStatusExpiring WarrantyStatus = "expiring"
	// WarrantyStatusExpired は有効期限が過ぎた状態。
	WarrantyStatusExpired WarrantyStatus = "expired"
)

// Warranty は製品購入と保証期間・保証提供者を結びつけるユーザー所有のレコードを表す。
// Statusは保存のたびに再計算される導出フィールドで、読み取り時には再計算されない。
type Warranty struct {
	ID               string
	UserID           string
	ProductID        string
	PurchaseDate     time.Time
	ExpirationDate   time.Time
	Status           WarrantyStatus
	WarrantyProvider string
	WarrantyNumber   string
	CoverageDetails  string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Document は保証に添付されたアップロード済み書類を表す。
// 追加と削除のみ可能で、並び替えのセマンティクスは持たない。
type Document struct {
	ID         string
	WarrantyID string
	Name       string
	Path       string
	UploadDate time.Time
}

// WarrantyWithDocuments は保証と添付書類一覧を結合したモデル。
// warranty_documentsテーブルとJOINして取得される。
type WarrantyWithDocuments struct {
	Warranty
	Documents []Document
}
