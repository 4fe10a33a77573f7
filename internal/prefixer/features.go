package prefixer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/autoprefix/internal/prefixer/browsers"
)

//go:embed data/features.yaml
var featuresYAML []byte

// Feature kinds.
const (
	KindProperty = "property"
	KindValue    = "value"
	KindAtRule   = "at-rule"
	KindFlexbox  = "flexbox"
)

// Flexbox generations.
const (
	Spec2009  = "2009"
	Spec2012  = "2012"
	SpecFinal = "final"
)

// prefixOrder is the order prefixed copies are written in.
var prefixOrder = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

// Feature describes when a CSS feature needs vendor prefixes.
type Feature struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Props    []string          `yaml:"props"`
	Values   []string          `yaml:"values"`
	AtRules  []string          `yaml:"at_rules"`
	Function bool              `yaml:"function"`
	Spec     string            `yaml:"spec"`
	Browsers map[string]string `yaml:"browsers"`

	ranges map[string]browsers.Range
}

// Features indexes feature data for lookups during processing.
type Features struct {
	all     []*Feature
	byName  map[string]*Feature
	byProp  map[string]*Feature
	byValue map[string][]*Feature
	byAt    map[string]*Feature
	flexbox map[string]*Feature
}

// LoadFeatures parses feature data in the embedded YAML format.
func LoadFeatures(b []byte) (*Features, error) {
	var list []*Feature
	if err := yaml.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse features: %w", err)
	}

	fs := &Features{
		byName:  make(map[string]*Feature),
		byProp:  make(map[string]*Feature),
		byValue: make(map[string][]*Feature),
		byAt:    make(map[string]*Feature),
		flexbox: make(map[string]*Feature),
	}
	for _, f := range list {
		if f.Name == "" {
			return nil, fmt.Errorf("feature without a name")
		}
		if _, dup := fs.byName[f.Name]; dup {
			return nil, fmt.Errorf("feature %s: defined twice", f.Name)
		}
		f.ranges = make(map[string]browsers.Range, len(f.Browsers))
		for agent, spec := range f.Browsers {
			r, err := browsers.ParseRange(spec)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %s: %w", f.Name, agent, err)
			}
			f.ranges[strings.ToLower(agent)] = r
		}

		switch f.Kind {
		case KindProperty:
			for _, p := range f.Props {
				fs.byProp[p] = f
			}
		case KindValue:
			for _, p := range f.Props {
				fs.byValue[p] = append(fs.byValue[p], f)
			}
		case KindAtRule:
			for _, a := range f.AtRules {
				fs.byAt[a] = f
			}
		case KindFlexbox:
			switch f.Spec {
			case Spec2009, Spec2012, SpecFinal:
				fs.flexbox[f.Spec] = f
			default:
				return nil, fmt.Errorf("feature %s: unknown flexbox spec %q", f.Name, f.Spec)
			}
		default:
			return nil, fmt.Errorf("feature %s: unknown kind %q", f.Name, f.Kind)
		}
		fs.byName[f.Name] = f
		fs.all = append(fs.all, f)
	}
	return fs, nil
}

var embeddedFeatures = sync.OnceValue(func() *Features {
	fs, err := LoadFeatures(featuresYAML)
	if err != nil {
		panic(fmt.Sprintf("prefixer: embedded feature data: %v", err))
	}
	return fs
})

// EmbeddedFeatures returns the feature data compiled into the binary.
func EmbeddedFeatures() *Features {
	return embeddedFeatures()
}

// Feature returns a feature by name.
func (fs *Features) Feature(name string) (*Feature, bool) {
	f, ok := fs.byName[name]
	return f, ok
}

// needs reports whether target requires a prefix for f.
func (f *Feature) needs(t browsers.Target) bool {
	r, ok := f.ranges[t.Browser]
	return ok && r.Contains(t.Version)
}

// Prefixes holds the vendor prefixes each feature needs for one set of
// targets.
type Prefixes struct {
	features *Features
	targets  []browsers.Target
	needed   map[string][]string
}

// Select computes the prefixes the targets need.
func (fs *Features) Select(data *browsers.Data, targets []browsers.Target) *Prefixes {
	p := &Prefixes{
		features: fs,
		targets:  targets,
		needed:   make(map[string][]string, len(fs.all)),
	}
	for _, f := range fs.all {
		set := make(map[string]bool)
		for _, t := range targets {
			if f.needs(t) {
				if prefix := data.Prefix(t); prefix != "" {
					set[prefix] = true
				}
			}
		}
		for _, prefix := range prefixOrder {
			if set[prefix] {
				p.needed[f.Name] = append(p.needed[f.Name], prefix)
			}
		}
	}
	return p
}

// Needed returns the prefixes feature needs, in output order.
func (p *Prefixes) Needed(feature string) []string {
	return p.needed[feature]
}

// Needs reports whether feature needs prefix.
func (p *Prefixes) Needs(feature, prefix string) bool {
	for _, x := range p.needed[feature] {
		if x == prefix {
			return true
		}
	}
	return false
}

// Targets returns the targets the prefixes were computed for.
func (p *Prefixes) Targets() []browsers.Target {
	return p.targets
}

// splitPrefix separates a vendor prefix from a name: "-webkit-box" gives
// "-webkit-" and "box". Custom properties have no prefix.
func splitPrefix(name string) (prefix, base string) {
	if len(name) < 3 || name[0] != '-' || name[1] == '-' {
		return "", name
	}
	i := strings.IndexByte(name[1:], '-')
	if i < 0 {
		return "", name
	}
	return name[:i+2], name[i+2:]
}

func maxPrefixLen(prefixes []string) int {
	n := 0
	for _, p := range prefixes {
		n = max(n, len(p))
	}
	return n
}

func filterPrefixes(prefixes []string, only string) []string {
	if only == "" {
		return prefixes
	}
	for _, p := range prefixes {
		if p == only {
			return []string{p}
		}
	}
	return nil
}
