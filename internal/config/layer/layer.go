// Package layer holds the prioritized configuration layers of autoprefix.
//
// Every configuration source (built-in defaults, TOML files, browserslist
// discovery, .env, the environment, command-line flags and runtime
// overrides) becomes one Layer. A Stack merges them, higher priorities
// overriding lower ones.
package layer

import "time"

// Layer is a single configuration source.
type Layer struct {
	// Name identifies the layer ("defaults", "user", "project", ...).
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where the layer was loaded from.
	Source Source

	// Path is the file the layer was read from, empty for in-memory layers.
	Path string

	// Data holds the configuration values as a nested map.
	Data map[string]any

	// ModTime is when the layer was last (re)loaded.
	ModTime time.Time

	// ReadOnly rejects Set and Delete on this layer.
	ReadOnly bool
}

// New creates an empty layer.
func New(name string, source Source, priority int) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Data:     make(map[string]any),
		ModTime:  time.Now(),
	}
}

// NewWithData creates a layer holding data.
func NewWithData(name string, source Source, priority int, data map[string]any) *Layer {
	l := New(name, source, priority)
	if data != nil {
		l.Data = data
	}
	return l
}

// FromFile creates a read-only layer for a file-backed source.
func FromFile(source Source, path string, data map[string]any) *Layer {
	l := NewWithData(StandardName(source), source, DefaultPriority(source), data)
	l.Path = path
	l.ReadOnly = true
	return l
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:     l.Name,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Data:     cloneMap(l.Data),
		ModTime:  l.ModTime,
		ReadOnly: l.ReadOnly,
	}
}

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceDefaults is the built-in default configuration.
	SourceDefaults Source = iota
	// SourceBrowserslist is a browserslist discovered in package.json or .browserslistrc.
	SourceBrowserslist
	// SourceUser is $XDG_CONFIG_HOME/autoprefix/config.toml.
	SourceUser
	// SourceProject is .autoprefix.toml in the project directory.
	SourceProject
	// SourceDotenv is the project's .env file.
	SourceDotenv
	// SourceEnv is the process environment.
	SourceEnv
	// SourceArgs is command-line flags.
	SourceArgs
	// SourceSession is in-memory runtime overrides.
	SourceSession
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceBrowserslist:
		return "browserslist"
	case SourceUser:
		return "user"
	case SourceProject:
		return "project"
	case SourceDotenv:
		return "dotenv"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		dst := make([]any, len(v))
		for i := range v {
			dst[i] = cloneValue(v[i])
		}
		return dst
	case []string:
		return append([]string(nil), v...)
	default:
		return val
	}
}
