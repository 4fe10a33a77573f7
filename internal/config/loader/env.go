package loader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Kind is the type an environment value is converted to.
type Kind uint8

const (
	KindString Kind = iota
	KindBool
	KindList
)

// EnvVar maps one environment variable onto a configuration path.
type EnvVar struct {
	Path string
	Kind Kind
}

// DefaultEnvMapping returns the AUTOPREFIX_* variables autoprefix reads.
func DefaultEnvMapping() map[string]EnvVar {
	return map[string]EnvVar{
		"AUTOPREFIX_BROWSERS":    {Path: "autoprefixer.browsers", Kind: KindList},
		"AUTOPREFIX_CASCADE":     {Path: "autoprefixer.cascade", Kind: KindBool},
		"AUTOPREFIX_REMOVE":      {Path: "autoprefixer.remove", Kind: KindBool},
		"AUTOPREFIX_RUN_ON_SAVE": {Path: "autoprefixer.runOnSave", Kind: KindBool},
		"AUTOPREFIX_HTML":        {Path: "autoprefixer.html", Kind: KindBool},
		"AUTOPREFIX_LOG_LEVEL":   {Path: "logging.level", Kind: KindString},
		"AUTOPREFIX_LOG_FILE":    {Path: "logging.file", Kind: KindString},
	}
}

// LookupFunc returns the value of a variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	lookup  LookupFunc
	mapping map[string]EnvVar
}

// NewEnvLoader creates a loader over the process environment.
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{lookup: os.LookupEnv, mapping: DefaultEnvMapping()}
}

// NewEnvLoaderWithLookup creates a loader over an arbitrary variable source.
func NewEnvLoaderWithLookup(lookup LookupFunc) *EnvLoader {
	return &EnvLoader{lookup: lookup, mapping: DefaultEnvMapping()}
}

// Load reads every mapped variable that is set. Malformed booleans are
// reported and the variable is skipped.
func (l *EnvLoader) Load() (map[string]any, error) {
	out := make(map[string]any)

	names := make([]string, 0, len(l.mapping))
	for name := range l.mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	var bad []string
	for _, name := range names {
		raw, ok := l.lookup(name)
		if !ok {
			continue
		}
		v := l.mapping[name]
		val, err := convert(raw, v.Kind)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s=%q", name, raw))
			continue
		}
		setByPath(out, strings.Split(v.Path, "."), val)
	}
	if len(bad) > 0 {
		return out, fmt.Errorf("invalid environment values: %s", strings.Join(bad, ", "))
	}
	return out, nil
}

// DotenvLoader loads the same variables from a .env file. Values in the
// file are never exported to the process environment.
type DotenvLoader struct {
	fs   FileSystem
	path string
}

// NewDotenvLoader creates a loader for the .env file at path.
func NewDotenvLoader(path string) *DotenvLoader {
	return &DotenvLoader{fs: DefaultFS(), path: path}
}

// Path returns the file this loader reads.
func (l *DotenvLoader) Path() string { return l.path }

// Load parses the file with godotenv and maps its AUTOPREFIX_* entries.
func (l *DotenvLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}
	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, &ParseError{Path: l.path, Message: err.Error(), Err: err}
	}
	env := NewEnvLoaderWithLookup(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
	out, err := env.Load()
	if err != nil {
		return out, fmt.Errorf("%s: %w", l.path, err)
	}
	return out, nil
}

func convert(raw string, kind Kind) (any, error) {
	switch kind {
	case KindBool:
		return ParseBool(raw)
	case KindList:
		return SplitList(raw), nil
	default:
		return raw, nil
	}
}

// ParseBool accepts true/false, yes/no, on/off and 1/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// SplitList splits a comma-separated query list, trimming blanks. The
// result is []any so it merges like a TOML array.
func SplitList(s string) []any {
	out := []any{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
