package platform

import (
	"net/http/httptest"
	"testing"
)

const (
	uaIPhone    = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	uaIPad      = "Mozilla/5.0 (iPad; CPU OS 16_6_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	uaMacSafari = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
	uaMacFF     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0"
	uaLinux     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

func TestFromUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Info
	}{
		{"iPhone", uaIPhone, Info{Kind: KindIOS, Version: "17.4"}},
		{"iPad", uaIPad, Info{Kind: KindIOS, Version: "16.6.1"}},
		{"Mac Safari", uaMacSafari, Info{Kind: KindMacOS, Version: "10.15.7"}},
		{"Mac Firefox", uaMacFF, Info{Kind: KindMacOS, Version: "14.4"}},
		{"Linux", uaLinux, Info{Kind: KindOther}},
		{"empty", "", Info{Kind: KindOther}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromUserAgent(tt.ua); got != tt.want {
				t.Errorf("FromUserAgent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetect_PrefersClientHints(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", uaMacSafari)
	req.Header.Set("Sec-CH-UA-Platform", `"macOS"`)
	req.Header.Set("Sec-CH-UA-Platform-Version", `"14.2.1"`)

	got := Detect(req)
	want := Info{Kind: KindMacOS, Version: "14.2.1"}
	if got != want {
		t.Errorf("Detect() = %+v, want %+v", got, want)
	}
}

func TestDetect_FallsBackToUserAgent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", uaIPhone)

	if got := Detect(req); got.Kind != KindIOS {
		t.Errorf("Detect().Kind = %q, want ios", got.Kind)
	}
}

func TestSupportsOrders(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Kind: KindMacOS, Version: "12.7"}, false},
		{Info{Kind: KindMacOS, Version: "10.15.7"}, false},
		{Info{Kind: KindMacOS, Version: "13.0"}, true},
		{Info{Kind: KindMacOS, Version: "14.2.1"}, true},
		{Info{Kind: KindMacOS, Version: "13"}, true},
		{Info{Kind: KindMacOS}, false},
		{Info{Kind: KindMacOS, Version: "garbage"}, false},
		{Info{Kind: KindIOS, Version: "12.0"}, true},
		{Info{Kind: KindOther}, true},
	}

	for _, tt := range tests {
		t.Run(tt.info.String(), func(t *testing.T) {
			if got := tt.info.SupportsOrders(); got != tt.want {
				t.Errorf("SupportsOrders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupportsNativeViewer(t *testing.T) {
	if !(Info{Kind: KindIOS}).SupportsNativeViewer() {
		t.Error("ios should support the native viewer")
	}
	if (Info{Kind: KindMacOS, Version: "14.0"}).SupportsNativeViewer() {
		t.Error("macos should not support the native viewer")
	}
	if (Info{Kind: KindOther}).SupportsNativeViewer() {
		t.Error("other should not support the native viewer")
	}
}

func TestAtLeast_DropsBuildComponent(t *testing.T) {
	info := Info{Kind: KindMacOS, Version: "13.6.4.1"}
	if !info.AtLeast("13.0") {
		t.Error("13.6.4.1 should be at least 13.0")
	}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		value   string
		want    Info
		ok      bool
		wantErr bool
	}{
		{"", Info{}, false, false},
		{"auto", Info{}, false, false},
		{"ios", Info{Kind: KindIOS}, true, false},
		{"macos:14.0", Info{Kind: KindMacOS, Version: "14.0"}, true, false},
		{"MacOS:12.1", Info{Kind: KindMacOS, Version: "12.1"}, true, false},
		{"other", Info{Kind: KindOther}, true, false},
		{"windows", Info{}, false, true},
		{"macos:abc", Info{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok, err := ParseOverride(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseOverride(%q) = (%+v, %v), want (%+v, %v)", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", uaIPhone)

	auto, err := NewResolver("auto")
	if err != nil {
		t.Fatalf("NewResolver(auto) error: %v", err)
	}
	if got := auto.Resolve(req); got.Kind != KindIOS {
		t.Errorf("auto Resolve().Kind = %q, want ios", got.Kind)
	}

	forced, err := NewResolver("macos:12.0")
	if err != nil {
		t.Fatalf("NewResolver(macos:12.0) error: %v", err)
	}
	want := Info{Kind: KindMacOS, Version: "12.0"}
	if got := forced.Resolve(req); got != want {
		t.Errorf("forced Resolve() = %+v, want %+v", got, want)
	}

	if _, err := NewResolver("plan9"); err == nil {
		t.Error("expected error for unknown platform")
	}
}
