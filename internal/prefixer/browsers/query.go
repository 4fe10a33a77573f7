package browsers

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for query resolution.
var (
	ErrUnknownQuery   = errors.New("unknown browser query")
	ErrUnknownBrowser = errors.New("unknown browser")
	ErrUnknownVersion = errors.New("unknown version")
	ErrNotFirst       = errors.New("not query without a preceding query")
)

// DefaultQueries is what "defaults" expands to.
var DefaultQueries = []string{"> 0.5%", "last 2 versions", "Firefox ESR", "not dead"}

// Target is one browser version a stylesheet must support.
type Target struct {
	Browser string
	Version string
}

func (t Target) String() string {
	return t.Browser + " " + t.Version
}

type clause struct {
	text string
	and  bool
	not  bool
}

var (
	orSplit  = regexp.MustCompile(`(?i)\s+or\s+|\s*,\s*`)
	andSplit = regexp.MustCompile(`(?i)\s+and\s+`)
	notQuery = regexp.MustCompile(`(?i)^not\s+`)
)

func parseClauses(queries []string) []clause {
	var out []clause
	for _, q := range queries {
		for _, part := range orSplit.Split(q, -1) {
			for i, sub := range andSplit.Split(part, -1) {
				sub = strings.TrimSpace(sub)
				if sub == "" {
					continue
				}
				c := clause{text: sub, and: i > 0}
				if loc := notQuery.FindStringIndex(sub); loc != nil {
					c.not = true
					c.text = sub[loc[1]:]
				}
				out = append(out, c)
			}
		}
	}
	return out
}

type matcher struct {
	re *regexp.Regexp
	fn func(d *Data, m []string) ([]Target, error)
}

var matchers = []matcher{
	{regexp.MustCompile(`(?i)^dead$`), selectDead},
	{regexp.MustCompile(`(?i)^last\s+(\d+)\s+versions?$`), selectLast},
	{regexp.MustCompile(`(?i)^last\s+(\d+)\s+(\w+)\s+versions?$`), selectLastOf},
	{regexp.MustCompile(`^(>=?|<=?)\s*(\d*\.?\d+)%$`), selectUsage},
	{regexp.MustCompile(`(?i)^(firefox|ff|fx)\s+esr$`), selectESR},
	{regexp.MustCompile(`^(\w+)\s+(>=?|<=?)\s*([\d.]+)$`), selectCompare},
	{regexp.MustCompile(`^(\w+)\s+([\d.]+)\s*-\s*([\d.]+)$`), selectRange},
	{regexp.MustCompile(`(?i)^(\w+)\s+([\d.]+|all)$`), selectExact},
}

func resolve(d *Data, queries []string) ([]Target, error) {
	var result []Target
	for i, c := range parseClauses(queries) {
		if c.not && i == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNotFirst, "not "+c.text)
		}
		found, err := selectQuery(d, c.text)
		if err != nil {
			return nil, err
		}
		switch {
		case c.not:
			result = subtract(result, found)
		case c.and:
			result = intersect(result, found)
		default:
			result = append(result, found...)
		}
	}
	return normalize(result), nil
}

var defaultsQuery = regexp.MustCompile(`(?i)^defaults$`)

func selectQuery(d *Data, q string) ([]Target, error) {
	if defaultsQuery.MatchString(q) {
		return resolve(d, DefaultQueries)
	}
	for _, m := range matchers {
		if sub := m.re.FindStringSubmatch(q); sub != nil {
			return m.fn(d, sub)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, q)
}

func selectDead(d *Data, _ []string) ([]Target, error) {
	var out []Target
	for _, name := range d.names {
		a := d.agents[name]
		for _, v := range a.Versions {
			if a.IsDead(v.Version) {
				out = append(out, Target{name, v.Version})
			}
		}
	}
	return out, nil
}

func lastVersions(a *Agent, n int) []Target {
	start := max(len(a.Versions)-n, 0)
	out := make([]Target, 0, len(a.Versions)-start)
	for _, v := range a.Versions[start:] {
		out = append(out, Target{a.Name, v.Version})
	}
	return out
}

func selectLast(d *Data, m []string) ([]Target, error) {
	n, _ := strconv.Atoi(m[1])
	var out []Target
	for _, name := range d.names {
		out = append(out, lastVersions(d.agents[name], n)...)
	}
	return out, nil
}

func selectLastOf(d *Data, m []string) ([]Target, error) {
	n, _ := strconv.Atoi(m[1])
	a, err := agent(d, m[2])
	if err != nil {
		return nil, err
	}
	return lastVersions(a, n), nil
}

func compareFloat(op string, x, y float64) bool {
	switch op {
	case ">":
		return x > y
	case ">=":
		return x >= y
	case "<":
		return x < y
	default:
		return x <= y
	}
}

func selectUsage(d *Data, m []string) ([]Target, error) {
	limit, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, m[0])
	}
	var out []Target
	for _, name := range d.names {
		for _, v := range d.agents[name].Versions {
			if compareFloat(m[1], v.Usage, limit) {
				out = append(out, Target{name, v.Version})
			}
		}
	}
	return out, nil
}

func selectESR(d *Data, _ []string) ([]Target, error) {
	a, err := agent(d, "firefox")
	if err != nil {
		return nil, err
	}
	out := make([]Target, 0, len(a.ESR))
	for _, v := range a.ESR {
		out = append(out, Target{a.Name, v})
	}
	return out, nil
}

func selectCompare(d *Data, m []string) ([]Target, error) {
	a, err := agent(d, m[1])
	if err != nil {
		return nil, err
	}
	var out []Target
	for _, v := range a.Versions {
		if !isVersion(v.Version) {
			continue
		}
		c := float64(CompareVersions(v.Version, m[3]))
		if compareFloat(m[2], c, 0) {
			out = append(out, Target{a.Name, v.Version})
		}
	}
	return out, nil
}

func selectRange(d *Data, m []string) ([]Target, error) {
	a, err := agent(d, m[1])
	if err != nil {
		return nil, err
	}
	r := Range{Min: m[2], Max: m[3]}
	var out []Target
	for _, v := range a.Versions {
		if r.Contains(v.Version) {
			out = append(out, Target{a.Name, v.Version})
		}
	}
	return out, nil
}

func selectExact(d *Data, m []string) ([]Target, error) {
	a, err := agent(d, m[1])
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(m[2], "all") {
		out := make([]Target, 0, len(a.Versions))
		for _, v := range a.Versions {
			out = append(out, Target{a.Name, v.Version})
		}
		return out, nil
	}
	v, ok := a.nearest(m[2])
	if !ok {
		return nil, fmt.Errorf("%w %s of %s", ErrUnknownVersion, m[2], a.Title)
	}
	return []Target{{a.Name, v.Version}}, nil
}

func agent(d *Data, name string) (*Agent, error) {
	a, ok := d.Agent(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBrowser, name)
	}
	return a, nil
}

func subtract(from, remove []Target) []Target {
	drop := make(map[Target]bool, len(remove))
	for _, t := range remove {
		drop[t] = true
	}
	out := from[:0:0]
	for _, t := range from {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}

func intersect(a, b []Target) []Target {
	keep := make(map[Target]bool, len(b))
	for _, t := range b {
		keep[t] = true
	}
	out := a[:0:0]
	for _, t := range a {
		if keep[t] {
			out = append(out, t)
		}
	}
	return out
}

// normalize removes duplicates and sorts by browser name, newest version
// first.
func normalize(ts []Target) []Target {
	seen := make(map[Target]bool, len(ts))
	out := make([]Target, 0, len(ts))
	for _, t := range ts {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Browser != out[j].Browser {
			return out[i].Browser < out[j].Browser
		}
		return CompareVersions(out[i].Version, out[j].Version) > 0
	})
	return out
}
