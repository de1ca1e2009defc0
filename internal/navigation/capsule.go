package navigation

import (
	"github.com/hitoshi/aquire/internal/section"
	"github.com/hitoshi/aquire/internal/selection"
)

// CapsuleBar はフローティングコンテナに6つのセクションを横並びで配置する戦略。
// 選択中の項目はアイコンと表示名、それ以外はアイコンのみで描画する。
type CapsuleBar struct {
	animator *Animator
}

// NewCapsuleBar はCapsuleBarを生成する。animatorがnilの場合はデフォルトのAnimatorを使う。
func NewCapsuleBar(animator *Animator) *CapsuleBar {
	if animator == nil {
		animator = NewAnimator(DefaultTransitionDuration)
	}
	return &CapsuleBar{animator: animator}
}

// Kind は戦略の種別を返す。
func (c *CapsuleBar) Kind() Kind { return KindCapsuleBar }

// Chrome は現在の選択に対するカプセルバーを組み立てる。
func (c *CapsuleBar) Chrome(current section.Section) Chrome {
	chrome := Chrome{
		Kind: KindCapsuleBar,
		Entries: entries(current, func(selected bool) bool {
			return selected
		}),
	}

	if t, ok := c.animator.Current(); ok {
		chrome.Transition = &t
		for i := range chrome.Entries {
			if chrome.Entries[i].Section == t.To {
				chrome.Entries[i].Animating = true
			}
		}
	}
	return chrome
}

// Choose は選択をモデルへ確定させてから遷移アニメーションを開始する。
// アニメーションは確定済みの状態に重ねる装飾で、確定を遅らせることはない。
// カプセルバーは常に項目を報告するため、reportedがnilの場合は何もしない。
func (c *CapsuleBar) Choose(m *selection.Model, reported *section.Section) section.Section {
	if reported == nil || !reported.Valid() {
		return m.Current()
	}

	prev := m.Current()
	m.Select(*reported)
	c.animator.Start(prev, *reported)
	return *reported
}

// ContentSection はコンテンツ領域に表示するセクションを返す。
func (c *CapsuleBar) ContentSection(current section.Section) section.Section {
	return current.OrFeatured()
}

var _ Strategy = (*CapsuleBar)(nil)
