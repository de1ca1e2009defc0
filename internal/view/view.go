// Package view は埋め込みテンプレートからシェルのHTMLを描画する。
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/hitoshi/aquire/internal/model"
	"github.com/hitoshi/aquire/internal/security"
	"github.com/hitoshi/aquire/internal/shell"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static は/static/配下で配信するファイルシステムを返す。
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// glyphs はアイコンキーに対応する表示用の記号。
var glyphs = map[string]string{
	"star.fill":                      "★",
	"info.circle":                    "ⓘ",
	"square.grid.2x2":                "▦",
	"heart":                          "♡",
	"shippingbox.fill":               "▣",
	"list.bullet.rectangle.portrait": "☰",
}

// Glyph はアイコンキーに対応する記号を返す。未知のキーは空文字列。
func Glyph(icon string) string {
	return glyphs[icon]
}

// DebugOverlay はデバッグオーバーレイに表示する値。Enabledがfalseなら描画しない。
type DebugOverlay struct {
	Enabled  bool
	DeviceID string
	Subtree  string
	Platform string
	Strategy string
	Section  string
}

// LoginPage はログイン画面のデータ。
type LoginPage struct {
	CSRFToken string
	Email     string
	Error     *model.APIError
	OpenMode  bool
	Debug     DebugOverlay
}

// ShellPage は認証済みルートの画面データ。
type ShellPage struct {
	CSRFToken string
	Frame     shell.Frame
	Error     *model.APIError
	Debug     DebugOverlay
}

// Renderer はページを描画する。
type Renderer struct {
	templates *template.Template
}

// New はテンプレートを解析してRendererを生成する。
// 商品説明のHTMLはsanitizerを通してから埋め込む。
func New(sanitizer security.ContentSanitizerService) (*Renderer, error) {
	funcs := template.FuncMap{
		"glyph":    Glyph,
		"sanitize": sanitizer.HTML,
	}

	tmpl, err := template.New("aquire").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Login はログイン画面を描画する。
func (r *Renderer) Login(w io.Writer, page LoginPage) error {
	return r.templates.ExecuteTemplate(w, "login", page)
}

// Shell は認証済みルートの画面を描画する。
func (r *Renderer) Shell(w io.Writer, page ShellPage) error {
	return r.templates.ExecuteTemplate(w, "shell", page)
}
