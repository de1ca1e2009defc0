// Package platform はクライアントプラットフォームの判定と、
// プラットフォームごとの機能可用性チェックを提供する。
//
// 判定結果は認証済みルートのマウント時に1回だけ解決され、
// ナビゲーション戦略と3Dプレビュー機能の選択に使われる。
package platform

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Kind はクライアントプラットフォームの種別。
type Kind string

const (
	KindIOS   Kind = "ios"
	KindMacOS Kind = "macos"
	KindOther Kind = "other"
)

// OrdersMinMacOS はmacOSでOrders画面を表示するのに必要な最小バージョン。
const OrdersMinMacOS = "13.0"

// Info は解決済みのプラットフォーム情報。Versionは不明な場合は空文字列。
type Info struct {
	Kind    Kind   `json:"kind"`
	Version string `json:"version,omitempty"`
}

// String はログ出力用の表現を返す。
func (i Info) String() string {
	if i.Version == "" {
		return string(i.Kind)
	}
	return string(i.Kind) + ":" + i.Version
}

// SupportsNativeViewer はネイティブ3Dビューア（AR Quick Look）が利用可能かを返す。
func (i Info) SupportsNativeViewer() bool {
	return i.Kind == KindIOS
}

// SupportsOrders はOrders画面が利用可能かを返す。
// macOSのみバージョン制約があり、バージョン不明の場合は利用不可として扱う。
func (i Info) SupportsOrders() bool {
	if i.Kind != KindMacOS {
		return true
	}
	return i.AtLeast(OrdersMinMacOS)
}

// AtLeast はバージョンがmin以上かを返す。どちらかが解釈できない場合はfalse。
func (i Info) AtLeast(min string) bool {
	have := canonical(i.Version)
	want := canonical(min)
	if have == "" || want == "" {
		return false
	}
	return semver.Compare(have, want) >= 0
}

// canonical は "14.2.1" や "10_15_7" をsemver形式（"v14.2.1"）に変換する。
// 解釈できない場合は空文字列を返す。
func canonical(version string) string {
	v := strings.ReplaceAll(strings.TrimSpace(version), "_", ".")
	if v == "" {
		return ""
	}
	// semverは3要素までなので、4要素以上のビルド番号は切り捨てる
	if parts := strings.Split(v, "."); len(parts) > 3 {
		v = strings.Join(parts[:3], ".")
	}
	v = "v" + v
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// ParseOverride は設定値（"auto"、"ios"、"macos:14.0" など）を解釈する。
// "auto" または空文字列の場合はok=falseを返し、リクエストから判定することを示す。
func ParseOverride(value string) (info Info, ok bool, err error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "auto" {
		return Info{}, false, nil
	}

	kind, version, _ := strings.Cut(value, ":")
	switch Kind(kind) {
	case KindIOS, KindMacOS, KindOther:
	default:
		return Info{}, false, fmt.Errorf("unknown platform %q: must be one of auto, ios, macos, other", kind)
	}
	if version != "" && canonical(version) == "" {
		return Info{}, false, fmt.Errorf("invalid platform version %q", version)
	}

	return Info{Kind: Kind(kind), Version: version}, true, nil
}

var (
	iPhoneOSPattern = regexp.MustCompile(`(?:iPhone|CPU) OS (\d+(?:_\d+){0,2})`)
	macOSPattern    = regexp.MustCompile(`Mac OS X (\d+(?:[_.]\d+){0,2})`)
)

// Detect はリクエストヘッダーからプラットフォームを判定する。
// User-Agent Client Hints（Sec-CH-UA-Platform / Sec-CH-UA-Platform-Version）を優先し、
// なければUser-Agent文字列を解析する。
func Detect(r *http.Request) Info {
	if hint := strings.Trim(r.Header.Get("Sec-CH-UA-Platform"), `"`); hint != "" {
		version := strings.Trim(r.Header.Get("Sec-CH-UA-Platform-Version"), `"`)
		switch strings.ToLower(hint) {
		case "ios":
			return Info{Kind: KindIOS, Version: version}
		case "macos":
			return Info{Kind: KindMacOS, Version: version}
		default:
			return Info{Kind: KindOther, Version: version}
		}
	}

	return FromUserAgent(r.UserAgent())
}

// FromUserAgent はUser-Agent文字列からプラットフォームを判定する。
func FromUserAgent(ua string) Info {
	switch {
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad") || strings.Contains(ua, "iPod"):
		info := Info{Kind: KindIOS}
		if m := iPhoneOSPattern.FindStringSubmatch(ua); m != nil {
			info.Version = strings.ReplaceAll(m[1], "_", ".")
		}
		return info
	case strings.Contains(ua, "Macintosh"):
		info := Info{Kind: KindMacOS}
		if m := macOSPattern.FindStringSubmatch(ua); m != nil {
			info.Version = strings.ReplaceAll(m[1], "_", ".")
		}
		return info
	default:
		return Info{Kind: KindOther}
	}
}

// Resolver はルートのマウント時にプラットフォームを解決する。
// 設定で固定されている場合はリクエストに関係なく固定値を返す。
type Resolver struct {
	fixed  Info
	forced bool
}

// NewResolver は設定値からResolverを生成する。
func NewResolver(override string) (*Resolver, error) {
	info, ok, err := ParseOverride(override)
	if err != nil {
		return nil, err
	}
	return &Resolver{fixed: info, forced: ok}, nil
}

// Resolve はリクエストに対するプラットフォームを返す。
func (r *Resolver) Resolve(req *http.Request) Info {
	if r.forced {
		return r.fixed
	}
	return Detect(req)
}
