package navigation

import (
	"sync"
	"time"

	"github.com/hitoshi/aquire/internal/section"
)

// DefaultTransitionDuration はタップ時のスプリングアニメーションの応答時間。
const DefaultTransitionDuration = 300 * time.Millisecond

// Transition はカプセルバーの遷移アニメーション1回分。
// 見た目のための装飾であり、選択状態の確定には関与しない。
type Transition struct {
	Generation uint64          `json:"generation"`
	From       section.Section `json:"-"`
	To         section.Section `json:"-"`
	FromSlug   string          `json:"from"`
	ToSlug     string          `json:"to"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"-"`
	DurationMS int64           `json:"duration_ms"`
}

// Active はnow時点でアニメーションが進行中かを返す。
func (t Transition) Active(now time.Time) bool {
	return !now.Before(t.StartedAt) && now.Before(t.StartedAt.Add(t.Duration))
}

// Animator は進行中の遷移を最大1つだけ保持する。
// 新しい遷移を開始すると進行中のものは置き換えられる。Startはブロックしない。
type Animator struct {
	mu       sync.Mutex
	now      func() time.Time
	duration time.Duration
	gen      uint64
	current  *Transition
}

// NewAnimator はAnimatorを生成する。durationが0以下の場合はデフォルト値を使う。
func NewAnimator(duration time.Duration) *Animator {
	if duration <= 0 {
		duration = DefaultTransitionDuration
	}
	return &Animator{now: time.Now, duration: duration}
}

// Start は新しい遷移を開始し、進行中の遷移を置き換える。
func (a *Animator) Start(from, to section.Section) Transition {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	t := Transition{
		Generation: a.gen,
		From:       from,
		To:         to,
		FromSlug:   from.Slug(),
		ToSlug:     to.Slug(),
		StartedAt:  a.now(),
		Duration:   a.duration,
		DurationMS: a.duration.Milliseconds(),
	}
	a.current = &t
	return t
}

// Current は進行中の遷移を返す。終了済み、または開始されていない場合はfalse。
func (a *Animator) Current() (Transition, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil || !a.current.Active(a.now()) {
		return Transition{}, false
	}
	return *a.current, true
}
