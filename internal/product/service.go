// Package product は製品管理のドメインロジックを提供する。
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/repository"
	"github.com/hitoshi/hoshokan/internal/security"
)

// Service は製品管理のサービス層。
type Service struct {
	productRepo     repository.ProductRepository
	serviceInfoRepo repository.ServiceInfoRepository
	sanitizer       security.TextSanitizerService

	now func() time.Time // テストで差し替え可能
}

// NewService はServiceを生成する。
func NewService(
	productRepo repository.ProductRepository,
	serviceInfoRepo repository.ServiceInfoRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		productRepo:     productRepo,
		serviceInfoRepo: serviceInfoRepo,
		sanitizer:       sanitizer,
		now:             time.Now,
	}
}

// Input は製品の作成・更新リクエストを表す。
type Input struct {
	Name         string
	Category     string
	Manufacturer string
	ModelNumber  string
	SerialNumber string
	PurchaseDate *time.Time
	Notes        string
}

// Create は製品を作成する。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.Product, error) {
	nowTime := s.now()
	p := &model.Product{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         s.sanitizer.Sanitize(in.Name),
		Category:     s.sanitizer.Sanitize(in.Category),
		Manufacturer: s.sanitizer.Sanitize(in.Manufacturer),
		ModelNumber:  s.sanitizer.Sanitize(in.ModelNumber),
		SerialNumber: s.sanitizer.Sanitize(in.SerialNumber),
		PurchaseDate: in.PurchaseDate,
		Notes:        s.sanitizer.Sanitize(in.Notes),
		CreatedAt:    nowTime,
		UpdatedAt:    nowTime,
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("製品の作成に失敗しました: %w", err)
	}
	return p, nil
}

// Get は製品を取得する。所有者または管理者のみ閲覧できる。
func (s *Service) Get(ctx context.Context, userID string, role model.Role, productID string) (*model.Product, error) {
	return s.findAuthorized(ctx, userID, role, productID)
}

// ListByUser はユーザーの製品一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Product, error) {
	products, err := s.productRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("製品一覧の取得に失敗しました: %w", err)
	}
	return products, nil
}

// ListServiceInfos は製品のサービス情報一覧を返す。所有者または管理者のみ閲覧できる。
func (s *Service) ListServiceInfos(ctx context.Context, userID string, role model.Role, productID string) ([]*model.ServiceInfo, error) {
	if _, err := s.findAuthorized(ctx, userID, role, productID); err != nil {
		return nil, err
	}

	infos, err := s.serviceInfoRepo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("サービス情報一覧の取得に失敗しました: %w", err)
	}
	return infos, nil
}

// Update は製品を更新する。所有者または管理者のみ実行できる。
func (s *Service) Update(ctx context.Context, userID string, role model.Role, productID string, in Input) (*model.Product, error) {
	p, err := s.findAuthorized(ctx, userID, role, productID)
	if err != nil {
		return nil, err
	}

	p.Name = s.sanitizer.Sanitize(in.Name)
	p.Category = s.sanitizer.Sanitize(in.Category)
	p.Manufacturer = s.sanitizer.Sanitize(in.Manufacturer)
	p.ModelNumber = s.sanitizer.Sanitize(in.ModelNumber)
	p.SerialNumber = s.sanitizer.Sanitize(in.SerialNumber)
	p.PurchaseDate = in.PurchaseDate
	p.Notes = s.sanitizer.Sanitize(in.Notes)
	p.UpdatedAt = s.now()

	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("製品の更新に失敗しました: %w", err)
	}
	return p, nil
}

// Delete は製品を削除する。所有者または管理者のみ実行できる。
// 関連する保証とサービス情報はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, userID string, role model.Role, productID string) error {
	if _, err := s.findAuthorized(ctx, userID, role, productID); err != nil {
		return err
	}

	if err := s.productRepo.DeleteByID(ctx, productID); err != nil {
		return fmt.Errorf("製品の削除に失敗しました: %w", err)
	}
	return nil
}

// findAuthorized は製品を取得し、所有者または管理者であることを確認する。
func (s *Service) findAuthorized(ctx context.Context, userID string, role model.Role, productID string) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("製品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	if p.UserID != userID && role != model.RoleAdmin {
		return nil, model.NewForbiddenError()
	}
	return p, nil
}
