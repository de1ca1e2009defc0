// Package navigation はセクション選択のナビゲーション戦略を提供する。
//
// カプセルバー（iOS向けのフローティングタブバー）とサイドバー（macOS・その他向けのリスト）の
// 2つの戦略が、同じselection.Modelを読み書きする。どちらもsection.All()から項目を組み立てるため、
// 選択肢の集合・表示名・アイコンキーが戦略間で食い違うことはない。
package navigation

import (
	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/section"
	"github.com/hitoshi/aquire/internal/selection"
)

// Kind はナビゲーション戦略の種別。
type Kind string

const (
	KindCapsuleBar Kind = "capsule"
	KindSidebar    Kind = "sidebar"
)

// Entry はクロームに並ぶ1つの選択肢。
type Entry struct {
	Section  section.Section `json:"-"`
	Slug     string          `json:"slug"`
	Title    string          `json:"title"`
	Icon     string          `json:"icon"`
	Selected bool            `json:"selected"`
	// ShowsLabel はアイコンに加えて表示名を描画するかどうか。
	ShowsLabel bool `json:"shows_label"`
	// Animating は遷移アニメーション中の項目であることを示す（カプセルバーのみ）。
	Animating bool `json:"animating,omitempty"`
}

// Chrome はナビゲーションUIの描画に必要なビューモデル。
type Chrome struct {
	Kind       Kind        `json:"kind"`
	Entries    []Entry     `json:"entries"`
	Transition *Transition `json:"transition,omitempty"`
}

// Strategy はナビゲーション戦略の共通契約。
type Strategy interface {
	// Kind は戦略の種別を返す。
	Kind() Kind
	// Chrome は現在の選択に対するクロームを組み立てる。
	Chrome(current section.Section) Chrome
	// Choose はユーザーの選択操作を反映し、確定したセクションを返す。
	// reportedがnilの場合は選択コントロールが一時的に未選択を報告したことを表す。
	Choose(m *selection.Model, reported *section.Section) section.Section
	// ContentSection はコンテンツ領域に表示するセクションを返す。
	ContentSection(current section.Section) section.Section
}

// ForPlatform はプラットフォームに対応する戦略を返す。ルートのマウント時に1回だけ呼ぶ。
func ForPlatform(info platform.Info, animator *Animator) Strategy {
	if info.Kind == platform.KindIOS {
		return NewCapsuleBar(animator)
	}
	return NewSidebar()
}

// entries はsection.All()から選択肢を組み立てる。両戦略で共有する唯一の組み立て処理。
func entries(current section.Section, showsLabel func(selected bool) bool) []Entry {
	all := section.All()
	out := make([]Entry, 0, len(all))
	for _, s := range all {
		selected := s == current
		out = append(out, Entry{
			Section:    s,
			Slug:       s.Slug(),
			Title:      s.Title(),
			Icon:       s.Icon(),
			Selected:   selected,
			ShowsLabel: showsLabel(selected),
		})
	}
	return out
}
