// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, warranty, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeWarrantyNotFound    = "WARRANTY_NOT_FOUND"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeDocumentNotFound    = "DOCUMENT_NOT_FOUND"
	ErrCodeServiceInfoNotFound = "SERVICE_INFO_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeInvalidDate         = "INVALID_DATE"
	ErrCodeInvalidDateOrder    = "INVALID_DATE_ORDER"
	ErrCodeInvalidRole         = "INVALID_ROLE"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUploadTooLarge      = "UPLOAD_TOO_LARGE"
)

// NewWarrantyNotFoundError は保証未検出エラーを生成する。
func NewWarrantyNotFoundError(warrantyID string) *APIError {
	return &APIError{
		Code:     ErrCodeWarrantyNotFound,
		Message:  fmt.Sprintf("指定された保証が見つかりません: %s", warrantyID),
		Category: "warranty",
		Action:   "保証IDを確認してください。",
	}
}

// NewProductNotFoundError は製品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された製品が見つかりません: %s", productID),
		Category: "warranty",
		Action:   "製品IDを確認してください。",
	}
}

// NewDocumentNotFoundError は書類未検出エラーを生成する。
func NewDocumentNotFoundError(documentID string) *APIError {
	return &APIError{
		Code:     ErrCodeDocumentNotFound,
		Message:  fmt.Sprintf("指定された書類が見つかりません: %s", documentID),
		Category: "warranty",
		Action:   "書類IDを確認してください。",
	}
}

// NewServiceInfoNotFoundError はサービス情報未検出エラーを生成する。
func NewServiceInfoNotFoundError(serviceInfoID string) *APIError {
	return &APIError{
		Code:     ErrCodeServiceInfoNotFound,
		Message:  fmt.Sprintf("指定されたサービス情報が見つかりません: %s", serviceInfoID),
		Category: "warranty",
		Action:   "サービス情報IDを確認してください。",
	}
}

// NewInvalidDateError は解析できない日付エラーを生成する。
func NewInvalidDateError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("日付の形式が正しくありません: %s", field),
		Category: "validation",
		Action:   "日付はYYYY-MM-DD形式で指定してください。",
	}
}

// NewInvalidDateOrderError は購入日と有効期限の前後関係エラーを生成する。
func NewInvalidDateOrderError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateOrder,
		Message:  "有効期限は購入日より後の日付を指定してください。",
		Category: "validation",
		Action:   "購入日と有効期限を確認してください。",
	}
}

// NewInvalidRoleError は無効なロールエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには user または admin のいずれかを指定してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者権限が必要な操作です。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUploadTooLargeError はアップロードサイズ超過エラーを生成する。
func NewUploadTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeUploadTooLarge,
		Message:  fmt.Sprintf("アップロードサイズが上限（%dバイト）を超えています。", maxBytes),
		Category: "validation",
		Action:   "ファイルサイズを小さくして再度お試しください。",
	}
}
