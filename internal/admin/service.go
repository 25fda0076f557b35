// Package admin は管理者向け操作のドメインロジックを提供する。
//
// ユーザー管理・サービス情報管理の変更系操作はすべて監査ログに記録される。
// 監査ログは追記のみで、保持期間を超えたものはクリーンアップジョブが削除する。
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/repository"
	"github.com/hitoshi/hoshokan/internal/security"
)

// auditLogDefaultLimit は監査ログ一覧のデフォルト取得件数。
const auditLogDefaultLimit = 100

// Service は管理者操作のサービス層。
type Service struct {
	userRepo        repository.UserRepository
	serviceInfoRepo repository.ServiceInfoRepository
	productRepo     repository.ProductRepository
	auditRepo       repository.AuditLogRepository
	sanitizer       security.TextSanitizerService

	now func() time.Time // テストで差し替え可能
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	serviceInfoRepo repository.ServiceInfoRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditLogRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		userRepo:        userRepo,
		serviceInfoRepo: serviceInfoRepo,
		productRepo:     productRepo,
		auditRepo:       auditRepo,
		sanitizer:       sanitizer,
		now:             time.Now,
	}
}

// ListUsers は全ユーザーを作成日時の昇順で返す。
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// ChangeUserRole はユーザーのロールを変更し、監査ログに記録する。
// 自分自身のロールは変更できない（最後の管理者の降格を防ぐ）。
func (s *Service) ChangeUserRole(ctx context.Context, actorID, targetID string, role model.Role) (*model.User, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, model.NewInvalidRoleError(string(role))
	}
	if actorID == targetID {
		return nil, model.NewForbiddenError()
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	previous := user.Role
	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	user.Role = role

	s.record(ctx, actorID, model.AuditActionUserRoleChange, "user", targetID,
		fmt.Sprintf("ロール変更: %s -> %s", previous, role))

	return user, nil
}

// DeleteUser はユーザーを削除し、監査ログに記録する。
// 自分自身は削除できない。関連データはCASCADE削除される。
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return model.NewForbiddenError()
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.userRepo.DeleteByID(ctx, targetID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	s.record(ctx, actorID, model.AuditActionUserDelete, "user", targetID,
		fmt.Sprintf("ユーザー削除: %s", user.Email))

	return nil
}

// ServiceInfoInput はサービス情報の作成・更新リクエストを表す。
type ServiceInfoInput struct {
	ProductID       string
	ServiceProvider string
	Description     string
	ServiceDate     time.Time
	Cost            int64
}

// CreateServiceInfo はサービス情報を作成し、監査ログに記録する。
func (s *Service) CreateServiceInfo(ctx context.Context, actorID string, in ServiceInfoInput) (*model.ServiceInfo, error) {
	product, err := s.productRepo.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("製品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(in.ProductID)
	}

	nowTime := s.now()
	info := &model.ServiceInfo{
		ID:              uuid.New().String(),
		ProductID:       in.ProductID,
		ServiceProvider: s.sanitizer.Sanitize(in.ServiceProvider),
		Description:     s.sanitizer.Sanitize(in.Description),
		ServiceDate:     in.ServiceDate,
		Cost:            in.Cost,
		CreatedAt:       nowTime,
		UpdatedAt:       nowTime,
	}

	if err := s.serviceInfoRepo.Create(ctx, info); err != nil {
		return nil, fmt.Errorf("サービス情報の作成に失敗しました: %w", err)
	}

	s.record(ctx, actorID, model.AuditActionServiceInfoCreate, "service_info", info.ID, "")

	return info, nil
}

// UpdateServiceInfo はサービス情報を更新し、監査ログに記録する。
func (s *Service) UpdateServiceInfo(ctx context.Context, actorID, infoID string, in ServiceInfoInput) (*model.ServiceInfo, error) {
	info, err := s.serviceInfoRepo.FindByID(ctx, infoID)
	if err != nil {
		return nil, fmt.Errorf("サービス情報の取得に失敗しました: %w", err)
	}
	if info == nil {
		return nil, model.NewServiceInfoNotFoundError(infoID)
	}

	product, err := s.productRepo.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("製品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(in.ProductID)
	}

	info.ProductID = in.ProductID
	info.ServiceProvider = s.sanitizer.Sanitize(in.ServiceProvider)
	info.Description = s.sanitizer.Sanitize(in.Description)
	info.ServiceDate = in.ServiceDate
	info.Cost = in.Cost
	info.UpdatedAt = s.now()

	if err := s.serviceInfoRepo.Update(ctx, info); err != nil {
		return nil, fmt.Errorf("サービス情報の更新に失敗しました: %w", err)
	}

	s.record(ctx, actorID, model.AuditActionServiceInfoUpdate, "service_info", infoID, "")

	return info, nil
}

// DeleteServiceInfo はサービス情報を削除し、監査ログに記録する。
func (s *Service) DeleteServiceInfo(ctx context.Context, actorID, infoID string) error {
	info, err := s.serviceInfoRepo.FindByID(ctx, infoID)
	if err != nil {
		return fmt.Errorf("サービス情報の取得に失敗しました: %w", err)
	}
	if info == nil {
		return model.NewServiceInfoNotFoundError(infoID)
	}

	if err := s.serviceInfoRepo.DeleteByID(ctx, infoID); err != nil {
		return fmt.Errorf("サービス情報の削除に失敗しました: %w", err)
	}

	s.record(ctx, actorID, model.AuditActionServiceInfoDelete, "service_info", infoID, "")

	return nil
}

// ListServiceInfos は全サービス情報をサービス実施日の降順で返す。
func (s *Service) ListServiceInfos(ctx context.Context) ([]*model.ServiceInfo, error) {
	infos, err := s.serviceInfoRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("サービス情報一覧の取得に失敗しました: %w", err)
	}
	return infos, nil
}

// ListAuditLogs は監査ログを新しい順に返す。
// limitが0以下の場合はデフォルト件数を使う。
func (s *Service) ListAuditLogs(ctx context.Context, limit, offset int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = auditLogDefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.auditRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("監査ログの取得に失敗しました: %w", err)
	}
	return logs, nil
}

// Record は監査ログを追記する。warranty.AuditRecorderを実装する。
func (s *Service) Record(ctx context.Context, actorID string, action model.AuditAction, targetType, targetID, detail string) error {
	log := &model.AuditLog{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}
	if err := s.auditRepo.Create(ctx, log); err != nil {
		return fmt.Errorf("監査ログの記録に失敗しました: %w", err)
	}
	return nil
}

// record は監査ログを記録する。主操作は成功しているため、記録の失敗は
// ログに残して握りつぶす。
func (s *Service) record(ctx context.Context, actorID string, action model.AuditAction, targetType, targetID, detail string) {
	if err := s.Record(ctx, actorID, action, targetType, targetID, detail); err != nil {
		slog.Error("監査ログの記録に失敗しました",
			slog.String("action", string(action)),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
	}
}
