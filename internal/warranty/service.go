// Package warranty は保証管理のドメインロジックを提供する。
//
// 保証のstatusは書き込みのたびにこのパッケージが再導出する。
// 読み取り時には再導出しないため、最後の保存から時間が経過した
// レコードは古いstatusを示すことがある（既知のステイルネス窓）。
package warranty

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hoshokan/internal/model"
	"github.com/hitoshi/hoshokan/internal/repository"
	"github.com/hitoshi/hoshokan/internal/security"
	"github.com/hitoshi/hoshokan/internal/status"
	"github.com/hitoshi/hoshokan/internal/storage"
)

// AuditRecorder は管理者操作の監査記録インターフェース。
type AuditRecorder interface {
	Record(ctx context.Context, actorID string, action model.AuditAction, targetType, targetID, detail string) error
}

// MetricsRecorder は保証操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordWarrantySaved(status model.WarrantyStatus)
	RecordDocumentUploaded()
}

// Service は保証管理のサービス層。
type Service struct {
	warrantyRepo repository.WarrantyRepository
	productRepo  repository.ProductRepository
	sanitizer    security.TextSanitizerService
	docStore     storage.DocumentStore
	audit        AuditRecorder   // nilの場合は記録しない
	metrics      MetricsRecorder // nilの場合は記録しない

	now func() time.Time // テストで差し替え可能
}

// NewService はServiceを生成する。
func NewService(
	warrantyRepo repository.WarrantyRepository,
	productRepo repository.ProductRepository,
	sanitizer security.TextSanitizerService,
	docStore storage.DocumentStore,
	audit AuditRecorder,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		warrantyRepo: warrantyRepo,
		productRepo:  productRepo,
		sanitizer:    sanitizer,
		docStore:     docStore,
		audit:        audit,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Input は保証の作成・更新リクエストを表す。
// statusフィールドは存在しない: クライアントはstatusを設定できず、
// 保存直前に必ず有効期限から導出される。
type Input struct {
	ProductID        string
	PurchaseDate     time.Time
	ExpirationDate   time.Time
	WarrantyProvider string
	WarrantyNumber   string
	CoverageDetails  string
	Notes            string
}

// Create は保証を作成する。
// 製品の存在と所有権を確認し、日付を検証した上で、
// statusを導出してから永続化する。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.Warranty, error) {
	if err := s.validateInput(ctx, userID, in); err != nil {
		return nil, err
	}

	nowTime := s.now()
	w := &model.Warranty{
		ID:               uuid.New().String(),
		UserID:           userID,
		ProductID:        in.ProductID,
		PurchaseDate:     in.PurchaseDate,
		ExpirationDate:   in.ExpirationDate,
		Status:           status.Derive(in.ExpirationDate, nowTime),
		WarrantyProvider: s.sanitizer.Sanitize(in.WarrantyProvider),
		WarrantyNumber:   s.sanitizer.Sanitize(in.WarrantyNumber),
		CoverageDetails:  s.sanitizer.Sanitize(in.CoverageDetails),
		Notes:            s.sanitizer.Sanitize(in.Notes),
		CreatedAt:        nowTime,
		UpdatedAt:        nowTime,
	}

	if err := s.warrantyRepo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("保証の作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordWarrantySaved(w.Status)
	}

	return w, nil
}

// Update は保証を更新する。所有者または管理者のみ実行できる。
// 更新のたびにstatusを再導出する（書き込みトリガーの再計算）。
func (s *Service) Update(ctx context.Context, userID string, role model.Role, warrantyID string, in Input) (*model.Warranty, error) {
	w, err := s.findAuthorized(ctx, userID, role, warrantyID)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(ctx, w.UserID, in); err != nil {
		return nil, err
	}

	w.ProductID = in.ProductID
	w.PurchaseDate = in.PurchaseDate
	w.ExpirationDate = in.ExpirationDate
	w.Status = status.Derive(in.ExpirationDate, s.now())
	w.WarrantyProvider = s.sanitizer.Sanitize(in.WarrantyProvider)
	w.WarrantyNumber = s.sanitizer.Sanitize(in.WarrantyNumber)
	w.CoverageDetails = s.sanitizer.Sanitize(in.CoverageDetails)
	w.Notes = s.sanitizer.Sanitize(in.Notes)
	w.UpdatedAt = s.now()

	if err := s.warrantyRepo.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("保証の更新に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordWarrantySaved(w.Status)
	}

	return w, nil
}

// Get は保証を添付書類付きで返す。所有者または管理者のみ閲覧できる。
// statusは保存済みの値をそのまま返し、読み取り時の再導出はしない。
func (s *Service) Get(ctx context.Context, userID string, role model.Role, warrantyID string) (*model.WarrantyWithDocuments, error) {
	w, err := s.warrantyRepo.FindWithDocuments(ctx, warrantyID)
	if err != nil {
		return nil, fmt.Errorf("保証の取得に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.NewWarrantyNotFoundError(warrantyID)
	}
	if w.UserID != userID && role != model.RoleAdmin {
		return nil, model.NewForbiddenError()
	}
	return w, nil
}

// ListByUser はユーザーの保証一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Warranty, error) {
	warranties, err := s.warrantyRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("保証一覧の取得に失敗しました: %w", err)
	}
	return warranties, nil
}

// Delete は保証を削除する。所有者または管理者のみ実行できる。
// 添付書類のファイルもディスクから削除する（カスケード削除）。
// 管理者が他人の保証を削除した場合は監査ログに記録する。
func (s *Service) Delete(ctx context.Context, userID string, role model.Role, warrantyID string) error {
	w, err := s.findAuthorized(ctx, userID, role, warrantyID)
	if err != nil {
		return err
	}

	docs, err := s.warrantyRepo.ListDocumentsByWarrantyID(ctx, warrantyID)
	if err != nil {
		return fmt.Errorf("書類一覧の取得に失敗しました: %w", err)
	}

	// レコードを先に削除する。warranty_documentsはCASCADE削除される。
	if err := s.warrantyRepo.DeleteByID(ctx, warrantyID); err != nil {
		return fmt.Errorf("保証の削除に失敗しました: %w", err)
	}

	// ファイル削除の失敗はロールバックできないため、ログに残して続行する。
	for _, doc := range docs {
		if err := s.docStore.Delete(doc.Path); err != nil {
			slog.Error("書類ファイルの削除に失敗しました",
				slog.String("warranty_id", warrantyID),
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if role == model.RoleAdmin && w.UserID != userID && s.audit != nil {
		if err := s.audit.Record(ctx, userID, model.AuditActionWarrantyDelete, "warranty", warrantyID, "管理者による保証削除"); err != nil {
			slog.Error("監査ログの記録に失敗しました",
				slog.String("warranty_id", warrantyID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// AttachDocument は保証に書類を添付する。所有者または管理者のみ実行できる。
// ファイルを保存した後にDBへの記録が失敗した場合はファイルを削除する。
func (s *Service) AttachDocument(ctx context.Context, userID string, role model.Role, warrantyID, fileName string, r io.Reader) (*model.Document, error) {
	if _, err := s.findAuthorized(ctx, userID, role, warrantyID); err != nil {
		return nil, err
	}

	docID := uuid.New().String()
	path, err := s.docStore.Save(docID, fileName, r)
	if err != nil {
		return nil, fmt.Errorf("書類ファイルの保存に失敗しました: %w", err)
	}

	doc := &model.Document{
		ID:         docID,
		WarrantyID: warrantyID,
		Name:       s.sanitizer.Sanitize(fileName),
		Path:       path,
		UploadDate: s.now(),
	}

	if err := s.warrantyRepo.AddDocument(ctx, doc); err != nil {
		if delErr := s.docStore.Delete(path); delErr != nil {
			slog.Error("孤立した書類ファイルの削除に失敗しました",
				slog.String("path", path),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("書類の登録に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordDocumentUploaded()
	}

	return doc, nil
}

// RemoveDocument は保証から書類を取り除き、ファイルも削除する。
func (s *Service) RemoveDocument(ctx context.Context, userID string, role model.Role, warrantyID, docID string) error {
	if _, err := s.findAuthorized(ctx, userID, role, warrantyID); err != nil {
		return err
	}

	doc, err := s.warrantyRepo.FindDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("書類の取得に失敗しました: %w", err)
	}
	if doc == nil || doc.WarrantyID != warrantyID {
		return model.NewDocumentNotFoundError(docID)
	}

	if err := s.warrantyRepo.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("書類の削除に失敗しました: %w", err)
	}

	if err := s.docStore.Delete(doc.Path); err != nil {
		slog.Error("書類ファイルの削除に失敗しました",
			slog.String("document_id", docID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// validateInput は製品の存在・所有権と日付の前後関係を検証する。
func (s *Service) validateInput(ctx context.Context, ownerID string, in Input) error {
	product, err := s.productRepo.FindByID(ctx, in.ProductID)
	if err != nil {
		return fmt.Errorf("製品の取得に失敗しました: %w", err)
	}
	if product == nil || product.UserID != ownerID {
		return model.NewProductNotFoundError(in.ProductID)
	}

	return status.ValidateDates(in.PurchaseDate, in.ExpirationDate)
}

// findAuthorized は保証を取得し、所有者または管理者であることを確認する。
func (s *Service) findAuthorized(ctx context.Context, userID string, role model.Role, warrantyID string) (*model.Warranty, error) {
	w, err := s.warrantyRepo.FindByID(ctx, warrantyID)
	if err != nil {
		return nil, fmt.Errorf("保証の取得に失敗しました: %w", err)
	}
	if w == nil {
		return nil, model.NewWarrantyNotFoundError(warrantyID)
	}
	if w.UserID != userID && role != model.RoleAdmin {
		return nil, model.NewForbiddenError()
	}
	return w, nil
}
