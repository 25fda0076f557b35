// Package status は保証ライフサイクル状態の導出ルールを提供する。
// 状態の解釈はすべてこのパッケージのDeriveを経由すること。
package status

import (
	"time"

	"github.com/hitoshi/hoshokan/internal/model"
)

// ExpiringWindowDays は「期限間近」と判定する先読み日数。
// レコード単位・ユーザー単位では設定できないグローバル定数。
const ExpiringWindowDays = 30

// Derive は有効期限と評価時点から保証の状態を導出する。
// 判定は必ずこの順序で行う: 期限切れ → 期限間近 → 有効。
// 期限切れ判定が先にあるため、過去の日付は常にexpiredになる。
// 有効期限が評価時点からちょうど30日後の場合は境界を含みexpiringとなる。
func Derive(expirationDate, now time.Time) model.WarrantyStatus {
	if expirationDate.Before(now) {
		return model.WarrantyStatusExpired
	}
	if !expirationDate.After(now.AddDate(0, 0, ExpiringWindowDays)) {
		return model.WarrantyStatusExpiring
	}
	return model.WarrantyStatusActive
}

// ValidateDates は購入日と有効期限の前後関係を検証する。
// 有効期限が購入日より後でない場合はエラーを返す。
func ValidateDates(purchaseDate, expirationDate time.Time) error {
	if !expirationDate.After(purchaseDate) {
		return model.NewInvalidDateOrderError()
	}
	return nil
}
