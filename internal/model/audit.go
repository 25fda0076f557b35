// Package model はドメインモデルを定義する。
package model

import "time"

// AuditAction は監査ログに記録される操作種別を表す。
type AuditAction string

const (
	// AuditActionUserRoleChange はユーザーロール変更操作。
	AuditActionUserRoleChange AuditAction = "user.role_change"
	// AuditActionUserDelete はユーザー削除操作。
	AuditActionUserDelete AuditAction = "user.delete"
	// AuditActionServiceInfoCreate はサービス情報作成操作。
	AuditActionServiceInfoCreate AuditAction = "service_info.create"
	// AuditActionServiceInfoUpdate はサービス情報更新操作。
	AuditActionServiceInfoUpdate AuditAction = "service_info.update"
	// AuditActionServiceInfoDelete はサービス情報削除操作。
	AuditActionServiceInfoDelete AuditAction = "service_info.delete"
	// AuditActionWarrantyDelete は管理者による保証削除操作。
	AuditActionWarrantyDelete AuditAction = "warranty.delete"
)

// AuditLog は管理者操作の監査記録を表す。
// 追記のみで更新されず、保持期間を超えたものはクリーンアップジョブが削除する。
type AuditLog struct {
	ID         string
	ActorID    string
	Action     AuditAction
	TargetType string
	TargetID   string
	Detail     string
	CreatedAt  time.Time
}
