// Package preview は3Dアセットのプレビューサンドボックスを提供する。
//
// プレビュー機能はプラットフォームごとに1回だけ解決される。
// iOSではネイティブビューア（AR Quick Look）にデータソース/デリゲート経由でアセットを渡し、
// それ以外のプラットフォームでは外部依存のない代替ビューを表示する。
package preview

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidAssetURL はアセットURLとして受け付けられない値を表す。
var ErrInvalidAssetURL = errors.New("invalid asset url")

// ParseAssetURL はプレビュー要求のURLを解釈する。
// http/httpsの絶対URLと、スキームもホストも持たない相対参照（"/assets/a.usdz"、"model.usdz"）を受け付ける。
// 相対参照はページのURLを基準に解決される。
func ParseAssetURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidAssetURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidAssetURL, err)
	}

	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return nil, ErrInvalidAssetURL
		}
	case u.Scheme == "" && u.Host == "" && u.Path != "":
	default:
		return nil, ErrInvalidAssetURL
	}

	return u, nil
}

// FileName はURLのパスの最後のセグメントを返す。
//
// クエリ文字列とフラグメントはパスに含まれないため表示しない
// （"https://x/a/b/model.usdz?v=2" は "model.usdz"）。
// 末尾のスラッシュは無視し、セグメントはパーセントデコード済みの値を返す。
// パスが "/" だけの場合は "/"、空の場合は空文字列を返す。
func FileName(u *url.URL) string {
	if u == nil {
		return ""
	}
	path := u.Path
	if path == "" {
		return ""
	}

	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// cloneURL はURLを複製する。保持したURLが呼び出し側から書き換えられないようにする。
func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
