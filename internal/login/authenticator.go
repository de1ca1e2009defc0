// Package login はログインフォームの検証と認証情報の照合を提供する。
//
// 照合に成功した場合はidentity（メールアドレス）だけを返す。
// 認証フラグの保存とサブツリーの切り替えはauthgateの責務。
package login

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/aquire/internal/model"
)

// Credentials はログインフォームの入力値。
type Credentials struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=72"`
}

// Accounts はメールアドレス（小文字）からbcryptハッシュへの対応表。
type Accounts map[string][]byte

// ParseAccounts は "email:hash,email:hash" 形式の設定値を解釈する。
// 空文字列の場合は空のAccountsを返す。
func ParseAccounts(value string) (Accounts, error) {
	accounts := make(Accounts)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, hash, ok := strings.Cut(pair, ":")
		email = strings.ToLower(strings.TrimSpace(email))
		hash = strings.TrimSpace(hash)
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("invalid account entry %q: must be email:bcrypt-hash", pair)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for %s: %w", email, err)
		}
		accounts[email] = []byte(hash)
	}
	return accounts, nil
}

// Authenticator はログインフォームを検証し、登録済みアカウントと照合する。
// アカウントが1件も登録されていない場合はオープンモードで動作し、
// 形式の正しいメールアドレスと空でないパスワードをすべて受け入れる。
type Authenticator struct {
	accounts Accounts
	validate *validator.Validate
}

// NewAuthenticator はAuthenticatorを生成する。
func NewAuthenticator(accounts Accounts) *Authenticator {
	return &Authenticator{
		accounts: accounts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// OpenMode はアカウント未登録で動作しているかを返す。
func (a *Authenticator) OpenMode() bool {
	return len(a.accounts) == 0
}

// Authenticate は認証情報を照合し、成功した場合はidentityを返す。
// 失敗はすべて*model.APIErrorで返す。
func (a *Authenticator) Authenticate(creds Credentials) (string, error) {
	creds.Email = strings.TrimSpace(creds.Email)

	if err := a.validate.Struct(creds); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return "", model.NewInvalidLoginFormError(strings.ToLower(verrs[0].Field()))
		}
		return "", model.NewInvalidLoginFormError("form")
	}

	if a.OpenMode() {
		return creds.Email, nil
	}

	hash, ok := a.accounts[strings.ToLower(creds.Email)]
	if !ok {
		return "", model.NewLoginFailedError()
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)); err != nil {
		return "", model.NewLoginFailedError()
	}
	return creds.Email, nil
}
