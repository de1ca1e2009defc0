package navigation

import (
	"github.com/hitoshi/aquire/internal/section"
	"github.com/hitoshi/aquire/internal/selection"
)

// Sidebar は6つのセクションを単一選択リストとして描画する戦略。アニメーションは持たない。
type Sidebar struct{}

// NewSidebar はSidebarを生成する。
func NewSidebar() *Sidebar {
	return &Sidebar{}
}

// Kind は戦略の種別を返す。
func (s *Sidebar) Kind() Kind { return KindSidebar }

// Chrome は現在の選択に対するサイドバーを組み立てる。全項目がアイコンと表示名を持つ。
func (s *Sidebar) Chrome(current section.Section) Chrome {
	return Chrome{
		Kind: KindSidebar,
		Entries: entries(current, func(bool) bool {
			return true
		}),
	}
}

// Choose は選択をモデルへ確定させる。
// リストの選択コントロールは操作中に一時的に未選択を報告することがあるため、
// nilや未定義の値はFeaturedとして扱う。
func (s *Sidebar) Choose(m *selection.Model, reported *section.Section) section.Section {
	target := section.Featured
	if reported != nil {
		target = reported.OrFeatured()
	}
	m.Select(target)
	return target
}

// ContentSection はコンテンツ領域に表示するセクションを返す。
func (s *Sidebar) ContentSection(current section.Section) section.Section {
	return current.OrFeatured()
}

var _ Strategy = (*Sidebar)(nil)
