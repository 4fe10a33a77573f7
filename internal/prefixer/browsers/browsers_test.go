package browsers

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"10", "10", 0},
		{"10", "10.0", 0},
		{"9", "10", -1},
		{"12.1", "12", 1},
		{"4.4.4", "4.4", 1},
		{"3.1", "3.10", -1},
		{"all", "0", 0},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"4-25", "4", true},
		{"4-25", "25", true},
		{"4-25", "26", false},
		{"6.1-8", "6", false},
		{"6.1-8", "7", true},
		{"10", "10", true},
		{"10", "11", false},
		{"all", "all", true},
		{"all", "130", true},
		{"", "1", false},
		{"4-25", "all", false},
	}
	for _, tt := range tests {
		r, err := ParseRange(tt.spec)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tt.spec, err)
		}
		if got := r.Contains(tt.version); got != tt.want {
			t.Errorf("Range(%q).Contains(%q) = %v, want %v", tt.spec, tt.version, got, tt.want)
		}
	}

	if _, err := ParseRange("x-y"); err == nil {
		t.Error("expected error for non-numeric range")
	}
}

func targetsString(ts []Target) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		queries []string
		want    string
	}{
		{"exact", []string{"IE 10"}, "ie 10"},
		{"exact zero padded", []string{"ie 10.0"}, "ie 10"},
		{"alias", []string{"FF 130"}, "firefox 130"},
		{"mobile alias", []string{"ChromeAndroid 130"}, "and_chr 130"},
		{"all versions", []string{"op_mini all"}, "op_mini all"},
		{"comparison", []string{"ie >= 10"}, "ie 11, ie 10"},
		{"strict comparison", []string{"ie < 7"}, "ie 6, ie 5.5"},
		{"range", []string{"safari 6-8"}, "safari 8, safari 7, safari 6.1, safari 6"},
		{"last of browser", []string{"last 2 Chrome versions"}, "chrome 131, chrome 130"},
		{"esr", []string{"Firefox ESR"}, "firefox 128, firefox 115"},
		{"usage", []string{"> 10%"}, "and_chr 130, chrome 130"},
		{"union", []string{"ie 10, ie 11"}, "ie 11, ie 10"},
		{"or keyword", []string{"ie 10 or edge 18"}, "edge 18, ie 10"},
		{"list entries", []string{"ie 10", "edge 18"}, "edge 18, ie 10"},
		{"and", []string{"chrome > 129 and chrome < 131"}, "chrome 130"},
		{"not", []string{"ie >= 10, not ie 11"}, "ie 10"},
		{"not everything", []string{"ie 10", "not ie 10"}, ""},
		{"dedupe", []string{"ie 10, ie 10"}, "ie 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.queries)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if s := targetsString(got); s != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.queries, s, tt.want)
			}
		})
	}
}

func TestResolve_Defaults(t *testing.T) {
	got, err := Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	set := make(map[string]bool)
	for _, target := range got {
		set[target.String()] = true
	}

	for _, want := range []string{"chrome 130", "chrome 131", "firefox 115", "firefox 128", "and_chr 130", "safari 18.1"} {
		if !set[want] {
			t.Errorf("defaults missing %s", want)
		}
	}
	for _, unwanted := range []string{"ie 11", "ie 10", "ie_mob 11", "bb 10"} {
		if set[unwanted] {
			t.Errorf("defaults should exclude dead %s", unwanted)
		}
	}

	explicit, err := Resolve([]string{"defaults"})
	if err != nil {
		t.Fatalf("Resolve(defaults): %v", err)
	}
	if targetsString(explicit) != targetsString(got) {
		t.Error("empty query list should equal defaults")
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		query string
		want  error
	}{
		{"foo 10", ErrUnknownBrowser},
		{"last 2 foo versions", ErrUnknownBrowser},
		{"ie 99", ErrUnknownVersion},
		{"firefox 1", ErrUnknownVersion},
		{"firefox 9999", ErrUnknownVersion},
		{"wat", ErrUnknownQuery},
		{"not dead", ErrNotFirst},
	}
	for _, tt := range tests {
		_, err := Resolve([]string{tt.query})
		if !errors.Is(err, tt.want) {
			t.Errorf("Resolve(%q) error = %v, want %v", tt.query, err, tt.want)
		}
	}
}

func TestResolver_CacheReturnsCopies(t *testing.T) {
	r, err := NewResolver(Embedded(), 2)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	first, err := r.Resolve([]string{"ie >= 10"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	first[0].Version = "mutated"

	second, err := r.Resolve([]string{"ie >= 10"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if targetsString(second) != "ie 11, ie 10" {
		t.Errorf("cached result was modified: %s", targetsString(second))
	}
}

func TestResolver_Coverage(t *testing.T) {
	r := Default()
	got := r.Coverage([]Target{{"and_chr", "130"}, {"chrome", "130"}, {"nope", "1"}})
	if math.Abs(got-54.48) > 1e-9 {
		t.Errorf("Coverage = %v, want 54.48", got)
	}
}

func TestAgent_PrefixFor(t *testing.T) {
	d := Embedded()
	tests := []struct {
		browser, version, want string
	}{
		{"opera", "12.1", "-o-"},
		{"opera", "15", "-webkit-"},
		{"edge", "18", "-ms-"},
		{"edge", "79", "-webkit-"},
		{"ie", "10", "-ms-"},
		{"firefox", "20", "-moz-"},
		{"op_mini", "all", "-o-"},
		{"Safari", "6", "-webkit-"},
	}
	for _, tt := range tests {
		if got := d.Prefix(Target{tt.browser, tt.version}); got != tt.want {
			t.Errorf("Prefix(%s %s) = %q, want %q", tt.browser, tt.version, got, tt.want)
		}
	}
	if got := d.Prefix(Target{"nope", "1"}); got != "" {
		t.Errorf("Prefix(unknown) = %q", got)
	}
}

func TestAgent_IsDead(t *testing.T) {
	d := Embedded()
	ie, _ := d.Agent("Explorer")
	if !ie.IsDead("11") {
		t.Error("ie 11 should be dead")
	}
	samsung, _ := d.Agent("samsung")
	if !samsung.IsDead("4") || samsung.IsDead("26") {
		t.Error("samsung dead range wrong")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "ie: [unclosed"},
		{"no versions", "ie:\n  prefix: ms\n"},
		{"no prefix", "ie:\n  versions:\n    - {version: \"10\", usage: 1}\n"},
		{"bad dead range", "ie:\n  prefix: ms\n  dead: x-y\n  versions:\n    - {version: \"10\", usage: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolve_VersionBetweenEntries(t *testing.T) {
	tests := []struct {
		query string
		want  Target
	}{
		{"firefox 30", Target{"firefox", "29"}},
		{"firefox 20", Target{"firefox", "16"}},
		{"firefox 29", Target{"firefox", "29"}},
		{"ff 21", Target{"firefox", "21"}},
	}
	for _, tt := range tests {
		got, err := Resolve([]string{tt.query})
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.query, err)
			continue
		}
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("Resolve(%q) = %v, want [%v]", tt.query, got, tt.want)
		}
	}
}
