package navigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/aquire/internal/platform"
	"github.com/hitoshi/aquire/internal/section"
	"github.com/hitoshi/aquire/internal/selection"
)

type entryKey struct {
	slug, title, icon string
}

func entrySet(c Chrome) map[entryKey]bool {
	set := make(map[entryKey]bool, len(c.Entries))
	for _, e := range c.Entries {
		set[entryKey{e.Slug, e.Title, e.Icon}] = true
	}
	return set
}

// TestStrategies_OfferIdenticalEntries は両戦略が同一の選択肢集合を提供することを検証する。
func TestStrategies_OfferIdenticalEntries(t *testing.T) {
	capsule := NewCapsuleBar(nil)
	sidebar := NewSidebar()

	for _, current := range section.All() {
		c := capsule.Chrome(current)
		s := sidebar.Chrome(current)

		require.Len(t, c.Entries, 6)
		require.Len(t, s.Entries, 6)
		assert.Equal(t, entrySet(c), entrySet(s), "current=%v", current)

		for i := range c.Entries {
			assert.Equal(t, c.Entries[i].Section, s.Entries[i].Section, "order must match")
		}
	}
}

func TestCapsuleBar_SelectedEntryShowsLabel(t *testing.T) {
	chrome := NewCapsuleBar(nil).Chrome(section.Browse)

	assert.Equal(t, KindCapsuleBar, chrome.Kind)
	for _, e := range chrome.Entries {
		if e.Section == section.Browse {
			assert.True(t, e.Selected)
			assert.True(t, e.ShowsLabel, "selected entry renders icon + label")
		} else {
			assert.False(t, e.Selected)
			assert.False(t, e.ShowsLabel, "unselected entry %v renders icon only", e.Section)
		}
	}
}

func TestSidebar_AllEntriesShowLabel(t *testing.T) {
	chrome := NewSidebar().Chrome(section.Orders)

	assert.Equal(t, KindSidebar, chrome.Kind)
	assert.Nil(t, chrome.Transition)
	selected := 0
	for _, e := range chrome.Entries {
		assert.True(t, e.ShowsLabel)
		if e.Selected {
			selected++
			assert.Equal(t, section.Orders, e.Section)
		}
	}
	assert.Equal(t, 1, selected)
}

// TestCapsuleBar_ChooseCommitsImmediately は選択がアニメーションに関係なく即座に確定することを検証する。
func TestCapsuleBar_ChooseCommitsImmediately(t *testing.T) {
	animator := NewAnimator(time.Hour)
	capsule := NewCapsuleBar(animator)

	for _, from := range section.All() {
		for _, to := range section.All() {
			m := selection.New()
			m.Select(from)

			target := to
			got := capsule.Choose(m, &target)

			assert.Equal(t, to, got)
			assert.Equal(t, to, m.Current(), "from %v to %v", from, to)
		}
	}
}

func TestCapsuleBar_NewTransitionSupersedesInFlight(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	animator := NewAnimator(time.Second)
	animator.now = func() time.Time { return now }
	capsule := NewCapsuleBar(animator)
	m := selection.New()

	first := section.Info
	capsule.Choose(m, &first)
	second := section.Orders
	capsule.Choose(m, &second)

	tr, ok := animator.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), tr.Generation)
	assert.Equal(t, section.Info, tr.From)
	assert.Equal(t, section.Orders, tr.To)

	chrome := capsule.Chrome(m.Current())
	require.NotNil(t, chrome.Transition)
	for _, e := range chrome.Entries {
		assert.Equal(t, e.Section == section.Orders, e.Animating, "entry %v", e.Section)
	}
}

func TestAnimator_TransitionEnds(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	animator := NewAnimator(300 * time.Millisecond)
	animator.now = func() time.Time { return now }

	_, ok := animator.Current()
	assert.False(t, ok, "no transition before Start")

	tr := animator.Start(section.Featured, section.Browse)
	assert.Equal(t, int64(300), tr.DurationMS)

	_, ok = animator.Current()
	assert.True(t, ok)

	now = now.Add(300 * time.Millisecond)
	_, ok = animator.Current()
	assert.False(t, ok, "transition is bounded by its duration")
}

func TestCapsuleBar_NilReportIsIgnored(t *testing.T) {
	capsule := NewCapsuleBar(nil)
	m := selection.New()
	m.Select(section.Acquired)

	got := capsule.Choose(m, nil)

	assert.Equal(t, section.Acquired, got)
	assert.Equal(t, section.Acquired, m.Current())
	_, animating := capsule.animator.Current()
	assert.False(t, animating)
}

func TestSidebar_UnselectedFallsBackToFeatured(t *testing.T) {
	sidebar := NewSidebar()
	m := selection.New()
	m.Select(section.Wishlist)

	got := sidebar.Choose(m, nil)

	assert.Equal(t, section.Featured, got)
	assert.Equal(t, section.Featured, m.Current())

	invalid := section.Section(99)
	assert.Equal(t, section.Featured, sidebar.Choose(m, &invalid))
	assert.Equal(t, section.Featured, sidebar.ContentSection(invalid))
}

func TestSidebar_Choose(t *testing.T) {
	sidebar := NewSidebar()
	m := selection.New()

	target := section.Orders
	assert.Equal(t, section.Orders, sidebar.Choose(m, &target))
	assert.Equal(t, section.Orders, m.Current())
	assert.Equal(t, section.Orders, sidebar.ContentSection(m.Current()))
}

func TestForPlatform(t *testing.T) {
	tests := []struct {
		info platform.Info
		want Kind
	}{
		{platform.Info{Kind: platform.KindIOS, Version: "17.4"}, KindCapsuleBar},
		{platform.Info{Kind: platform.KindMacOS, Version: "14.0"}, KindSidebar},
		{platform.Info{Kind: platform.KindOther}, KindSidebar},
	}

	for _, tt := range tests {
		t.Run(tt.info.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ForPlatform(tt.info, nil).Kind())
		})
	}
}
