package config

import (
	"strings"

	"github.com/dshills/autoprefix/internal/config/loader"
)

// Keys read by autoprefix.
const (
	KeyBrowsers  = "autoprefixer.browsers"
	KeyCascade   = "autoprefixer.cascade"
	KeyRemove    = "autoprefixer.remove"
	KeyRunOnSave = "autoprefixer.runOnSave"
	KeyHTML      = "autoprefixer.html"
	KeyLogLevel  = "logging.level"
	KeyLogFile   = "logging.file"
)

// DefaultBrowsers is the browserslist used when nothing else is configured.
var DefaultBrowsers = []string{"defaults"}

// AutoprefixerSettings is the typed view of the autoprefixer section.
type AutoprefixerSettings struct {
	Browsers  []string
	Cascade   bool
	Remove    bool
	RunOnSave bool
	HTML      bool
}

// LoggingSettings is the typed view of the logging section.
type LoggingSettings struct {
	Level string
	File  string
}

func defaultConfig() map[string]any {
	browsers := make([]any, len(DefaultBrowsers))
	for i, b := range DefaultBrowsers {
		browsers[i] = b
	}
	return map[string]any{
		"autoprefixer": map[string]any{
			"browsers":  browsers,
			"cascade":   true,
			"remove":    true,
			"runOnSave": false,
			"html":      true,
		},
		"logging": map[string]any{
			"level": "info",
			"file":  "",
		},
	}
}

// Autoprefixer returns the effective autoprefixer settings. Values of the
// wrong type fall back to their defaults.
func (c *Config) Autoprefixer() AutoprefixerSettings {
	s := AutoprefixerSettings{
		Browsers: append([]string(nil), DefaultBrowsers...),
		Cascade:  true,
		Remove:   true,
		HTML:     true,
	}
	if v, err := c.GetStringSlice(KeyBrowsers); err == nil {
		s.Browsers = v
	}
	if v, err := c.GetBool(KeyCascade); err == nil {
		s.Cascade = v
	}
	if v, err := c.GetBool(KeyRemove); err == nil {
		s.Remove = v
	}
	if v, err := c.GetBool(KeyRunOnSave); err == nil {
		s.RunOnSave = v
	}
	if v, err := c.GetBool(KeyHTML); err == nil {
		s.HTML = v
	}
	return s
}

// Logging returns the effective logging settings.
func (c *Config) Logging() LoggingSettings {
	s := LoggingSettings{Level: "info"}
	if v, err := c.GetString(KeyLogLevel); err == nil && v != "" {
		s.Level = v
	}
	if v, err := c.GetString(KeyLogFile); err == nil {
		s.File = v
	}
	return s
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// normalize validates value for path and converts it to the stored form.
// Keys autoprefix does not know are accepted unchanged.
func normalize(path string, value any) (any, error) {
	switch path {
	case KeyBrowsers:
		switch v := value.(type) {
		case string:
			return loader.SplitList(v), nil
		case []string:
			out := make([]any, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out, nil
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return nil, &ValidationError{Path: path, Value: value, Message: "browsers must be a list of queries"}
				}
			}
			return v, nil
		}
		return nil, &TypeError{Path: path, Expected: "list", Actual: typeName(value)}

	case KeyCascade, KeyRemove, KeyRunOnSave, KeyHTML:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := loader.ParseBool(v)
			if err != nil {
				return nil, &ValidationError{Path: path, Value: value, Message: "not a boolean"}
			}
			return b, nil
		}
		return nil, &TypeError{Path: path, Expected: "bool", Actual: typeName(value)}

	case KeyLogLevel:
		s, ok := value.(string)
		if !ok {
			return nil, &TypeError{Path: path, Expected: "string", Actual: typeName(value)}
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if !logLevels[s] {
			return nil, &ValidationError{Path: path, Value: value, Message: "level must be debug, info, warn or error"}
		}
		return s, nil

	case KeyLogFile:
		s, ok := value.(string)
		if !ok {
			return nil, &TypeError{Path: path, Expected: "string", Actual: typeName(value)}
		}
		return s, nil
	}
	return value, nil
}
