// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, preview, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeLoginFailed     = "LOGIN_FAILED"
	ErrCodeInvalidLogin    = "INVALID_LOGIN_FORM"
	ErrCodeInvalidSection  = "INVALID_SECTION"
	ErrCodeInvalidAssetURL = "INVALID_ASSET_URL"
	ErrCodeRootNotMounted  = "ROOT_NOT_MOUNTED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeCSRFInvalid     = "CSRF_INVALID"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewLoginFailedError は認証情報の不一致エラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidLoginFormError はログインフォームの入力エラーを生成する。
func NewInvalidLoginFormError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLogin,
		Message:  fmt.Sprintf("入力内容が不正です: %s", field),
		Category: "validation",
		Action:   "メールアドレスとパスワードを入力してください。",
	}
}

// NewInvalidSectionError は未定義のセクション指定エラーを生成する。
func NewInvalidSectionError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSection,
		Message:  fmt.Sprintf("無効なセクションです: %s", slug),
		Category: "validation",
		Action:   "featured、info、browse、wishlist、acquired、orders のいずれかを指定してください。",
	}
}

// NewInvalidAssetURLError は3DアセットURLの不正エラーを生成する。
func NewInvalidAssetURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAssetURL,
		Message:  fmt.Sprintf("無効なアセットURLです: %s", reason),
		Category: "preview",
		Action:   "http:// または https:// で始まるURL、またはファイル名・パスを指定してください。",
	}
}

// NewRootNotMountedError は認証済みルートが存在しない場合のエラーを生成する。
func NewRootNotMountedError() *APIError {
	return &APIError{
		Code:     ErrCodeRootNotMounted,
		Message:  "メイン画面が表示されていません。",
		Category: "system",
		Action:   "ページを再読み込みしてください。",
	}
}

// NewRateLimitedError はデバイスごとのレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	}
}

// NewCSRFInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "リクエストを検証できませんでした。",
		Category: "auth",
		Action:   "ページを再読み込みしてから操作し直してください。",
	}
}
