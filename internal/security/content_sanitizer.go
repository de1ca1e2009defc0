// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は商品説明のHTMLをサニタイズする。
// カタログ側が保持するHTMLは信頼せず、閲覧画面へ埋め込む直前に許可リストで整形する。
package security

import (
	"html/template"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は商品説明のサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, strong, em, small）のみを通過させる。
	// aタグのhrefはhttpsのみ許可し、target="_blank"とrel="noopener noreferrer"を付与する。
	// 画像は商品のImageURLで表示するため、説明文中のimgは除去する。
	Sanitize(rawHTML string) string

	// HTML はSanitizeの結果をテンプレートにそのまま埋め込める型で返す。
	HTML(rawHTML string) template.HTML
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなので、1インスタンスを共有する。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "small",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// HTML はサニタイズ済みのHTMLをtemplate.HTMLとして返す。
func (s *contentSanitizer) HTML(rawHTML string) template.HTML {
	return template.HTML(s.policy.Sanitize(rawHTML))
}
