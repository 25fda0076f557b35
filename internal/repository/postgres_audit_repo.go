package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hoshokan/internal/model"
)

// PostgresAuditLogRepo はPostgreSQLを使用した監査ログリポジトリ。
type PostgresAuditLogRepo struct {
	db *sql.DB
}

// NewPostgresAuditLogRepo はPostgresAuditLogRepoを生成する。
func NewPostgresAuditLogRepo(db *sql.DB) *PostgresAuditLogRepo {
	return &PostgresAuditLogRepo{db: db}
}

// Create は監査ログを追記する。
func (r *PostgresAuditLogRepo) Create(ctx context.Context, log *model.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, target_type, target_id, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.ActorID, log.Action, log.TargetType, log.TargetID, log.Detail, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("監査ログの記録に失敗しました: %w", err)
	}
	return nil
}

// List は監査ログを新しい順にlimit件返す。
func (r *PostgresAuditLogRepo) List(ctx context.Context, limit, offset int) ([]*model.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_id, action, target_type, target_id, detail, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("監査ログ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var logs []*model.AuditLog
	for rows.Next() {
		log := &model.AuditLog{}
		if err := rows.Scan(&log.ID, &log.ActorID, &log.Action, &log.TargetType, &log.TargetID, &log.Detail, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("監査ログ行の読み取りに失敗しました: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("監査ログ一覧の走査に失敗しました: %w", err)
	}
	return logs, nil
}

// compile-time interface check
var _ AuditLogRepository = (*PostgresAuditLogRepo)(nil)
