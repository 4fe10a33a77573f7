package browsers

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/agents.yaml
var agentsYAML []byte

// Version is one release of a browser with its global usage share in
// percent.
type Version struct {
	Version string  `yaml:"version"`
	Usage   float64 `yaml:"usage"`
}

// Legacy describes an older vendor prefix used up to a version, such as
// -o- for Opera Presto.
type Legacy struct {
	Prefix string `yaml:"prefix"`
	Until  string `yaml:"until"`
}

// Agent is a browser family.
type Agent struct {
	Name     string    `yaml:"-"`
	Title    string    `yaml:"title"`
	Prefix   string    `yaml:"prefix"`
	Aliases  []string  `yaml:"aliases"`
	Legacy   *Legacy   `yaml:"legacy"`
	Dead     string    `yaml:"dead"`
	ESR      []string  `yaml:"esr"`
	Versions []Version `yaml:"versions"`

	dead Range
}

// PrefixFor returns the vendor prefix, with dashes, the agent uses at
// version.
func (a *Agent) PrefixFor(version string) string {
	if a.Legacy != nil && CompareVersions(version, a.Legacy.Until) <= 0 {
		return "-" + a.Legacy.Prefix + "-"
	}
	return "-" + a.Prefix + "-"
}

// IsDead reports whether version no longer receives updates.
func (a *Agent) IsDead(version string) bool {
	return a.dead.Contains(version)
}

// Usage returns the usage share of version, or 0 when unknown.
func (a *Agent) Usage(version string) float64 {
	if v, ok := a.find(version); ok {
		return v.Usage
	}
	return 0
}

func (a *Agent) find(version string) (Version, bool) {
	for _, v := range a.Versions {
		if v.Version == version {
			return v, true
		}
	}
	if !isVersion(version) {
		return Version{}, false
	}
	for _, v := range a.Versions {
		if isVersion(v.Version) && CompareVersions(v.Version, version) == 0 {
			return v, true
		}
	}
	return Version{}, false
}

// nearest returns the newest listed release not newer than version. The
// table keeps only releases where prefix support changes, so a version
// between two entries behaves like the older one. Versions outside the
// listed range are not found.
func (a *Agent) nearest(version string) (Version, bool) {
	if v, ok := a.find(version); ok {
		return v, true
	}
	if !isVersion(version) {
		return Version{}, false
	}
	var (
		best  Version
		found bool
		newer bool
	)
	for _, v := range a.Versions {
		if !isVersion(v.Version) {
			continue
		}
		if CompareVersions(v.Version, version) > 0 {
			newer = true
			continue
		}
		if !found || CompareVersions(v.Version, best.Version) > 0 {
			best, found = v, true
		}
	}
	return best, found && newer
}

// Data holds the browser agents known to the resolver.
type Data struct {
	agents  map[string]*Agent
	aliases map[string]string
	names   []string
}

// Load parses agent data in the embedded YAML format.
func Load(b []byte) (*Data, error) {
	var raw map[string]*Agent
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse agents: %w", err)
	}

	d := &Data{
		agents:  make(map[string]*Agent, len(raw)),
		aliases: make(map[string]string),
	}
	for name, a := range raw {
		if a == nil {
			return nil, fmt.Errorf("agent %s: empty definition", name)
		}
		if len(a.Versions) == 0 {
			return nil, fmt.Errorf("agent %s: no versions", name)
		}
		if a.Prefix == "" {
			return nil, fmt.Errorf("agent %s: no prefix", name)
		}
		dead, err := ParseRange(a.Dead)
		if err != nil {
			return nil, fmt.Errorf("agent %s: dead: %w", name, err)
		}
		key := strings.ToLower(name)
		a.Name = key
		a.dead = dead
		d.agents[key] = a
		d.names = append(d.names, key)
		for _, alias := range a.Aliases {
			d.aliases[strings.ToLower(alias)] = key
		}
	}
	sort.Strings(d.names)
	return d, nil
}

var embedded = sync.OnceValue(func() *Data {
	d, err := Load(agentsYAML)
	if err != nil {
		panic(fmt.Sprintf("browsers: embedded agent data: %v", err))
	}
	return d
})

// Embedded returns the agent data compiled into the binary.
func Embedded() *Data {
	return embedded()
}

// Agent looks a browser up by name or alias, ignoring case.
func (d *Data) Agent(name string) (*Agent, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if a, ok := d.agents[key]; ok {
		return a, true
	}
	if canonical, ok := d.aliases[key]; ok {
		return d.agents[canonical], true
	}
	return nil, false
}

// Names returns the canonical agent names in sorted order.
func (d *Data) Names() []string {
	return append([]string(nil), d.names...)
}

// Prefix returns the vendor prefix a target needs, or "" when the browser
// is unknown.
func (d *Data) Prefix(t Target) string {
	a, ok := d.Agent(t.Browser)
	if !ok {
		return ""
	}
	return a.PrefixFor(t.Version)
}
