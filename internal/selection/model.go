// Package selection は現在アクティブなセクションを保持するレジスタを提供する。
package selection

import (
	"sync"

	"github.com/hitoshi/aquire/internal/section"
)

// ChangeFunc は選択変更の通知を受け取るコールバック。
type ChangeFunc func(prev, next section.Section)

// Model は現在のセクションを1つだけ保持する。
// 認証済みルートのマウントで生成され、アンマウントで破棄される。永続化はしない。
// どのセクションからどのセクションへも1ステップで遷移でき、遷移の制約はない。
type Model struct {
	mu        sync.Mutex
	current   section.Section
	listeners []ChangeFunc
}

// New はFeaturedを選択した状態のModelを生成する。
func New() *Model {
	return &Model{current: section.Featured}
}

// Current は現在のセクションを返す。
func (m *Model) Current() section.Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Select は選択を同期的に更新し、登録済みのリスナーへ通知する。
// 戻った時点でCurrentは必ずsを返す。同じ値の再選択でも通知する（再描画のトリガーになる）。
func (m *Model) Select(s section.Section) {
	m.mu.Lock()
	prev := m.current
	m.current = s
	listeners := append([]ChangeFunc(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, s)
	}
}

// OnChange は選択変更時に呼ばれるリスナーを登録する。
func (m *Model) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}
