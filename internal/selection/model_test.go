package selection

import (
	"testing"

	"github.com/hitoshi/aquire/internal/section"
)

func TestNew_DefaultsToFeatured(t *testing.T) {
	m := New()
	if got := m.Current(); got != section.Featured {
		t.Errorf("Current() = %v, want featured", got)
	}
}

// TestSelect_FullyConnected は任意のセクションから任意のセクションへ即座に遷移できることを検証する。
func TestSelect_FullyConnected(t *testing.T) {
	for _, from := range section.All() {
		for _, to := range section.All() {
			m := New()
			m.Select(from)
			m.Select(to)
			if got := m.Current(); got != to {
				t.Errorf("Select(%v) after %v: Current() = %v", to, from, got)
			}
		}
	}
}

func TestOnChange_ReceivesPrevAndNext(t *testing.T) {
	m := New()

	type change struct{ prev, next section.Section }
	var got []change
	m.OnChange(func(prev, next section.Section) {
		got = append(got, change{prev, next})
	})

	m.Select(section.Browse)
	m.Select(section.Orders)

	want := []change{
		{section.Featured, section.Browse},
		{section.Browse, section.Orders},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestOnChange_StateCommittedBeforeNotify はリスナー呼び出し時点で状態が確定していることを検証する。
func TestOnChange_StateCommittedBeforeNotify(t *testing.T) {
	m := New()

	var seen section.Section
	m.OnChange(func(_, _ section.Section) {
		seen = m.Current()
	})

	m.Select(section.Wishlist)

	if seen != section.Wishlist {
		t.Errorf("listener saw %v, want wishlist", seen)
	}
}

func TestOnChange_NilIgnored(t *testing.T) {
	m := New()
	m.OnChange(nil)
	m.Select(section.Info)

	if m.Current() != section.Info {
		t.Errorf("Current() = %v, want info", m.Current())
	}
}
