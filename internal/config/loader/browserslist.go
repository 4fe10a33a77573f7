package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// File names searched for a browserslist.
const (
	BrowserslistRC = ".browserslistrc"
	PackageJSON    = "package.json"
)

// browserslistEnv is the section used when a config declares several.
const browserslistEnv = "production"

// BrowserslistLoader discovers a browserslist for a project the way the
// browserslist tool does: starting in dir and walking up, the first
// .browserslistrc or package.json with a "browserslist" key wins.
type BrowserslistLoader struct {
	fs    FileSystem
	dir   string
	found string
}

// NewBrowserslistLoader creates a loader that starts searching in dir.
func NewBrowserslistLoader(dir string) *BrowserslistLoader {
	return &BrowserslistLoader{fs: DefaultFS(), dir: dir}
}

// NewBrowserslistLoaderWithFS creates a loader reading through fsys.
func NewBrowserslistLoaderWithFS(fsys FileSystem, dir string) *BrowserslistLoader {
	return &BrowserslistLoader{fs: fsys, dir: dir}
}

// Path returns the file the last Load read the queries from.
func (l *BrowserslistLoader) Path() string { return l.found }

// Load returns {"autoprefixer": {"browsers": [...]}} or nil when no
// browserslist is found.
func (l *BrowserslistLoader) Load() (map[string]any, error) {
	l.found = ""
	queries, path, err := l.Find()
	if err != nil || queries == nil {
		return nil, err
	}
	l.found = path
	list := make([]any, len(queries))
	for i, q := range queries {
		list[i] = q
	}
	return map[string]any{
		"autoprefixer": map[string]any{"browsers": list},
	}, nil
}

// Find walks up from the start directory and returns the queries and the
// file they came from.
func (l *BrowserslistLoader) Find() ([]string, string, error) {
	dir, err := filepath.Abs(l.dir)
	if err != nil {
		return nil, "", err
	}
	for {
		rc := filepath.Join(dir, BrowserslistRC)
		data, err := l.fs.ReadFile(rc)
		switch {
		case err == nil:
			return ParseBrowserslistRC(data), rc, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", fmt.Errorf("reading %s: %w", rc, err)
		}

		pkg := filepath.Join(dir, PackageJSON)
		data, err = l.fs.ReadFile(pkg)
		switch {
		case err == nil:
			queries, ok, perr := ParsePackageBrowserslist(data)
			if perr != nil {
				return nil, "", &ParseError{Path: pkg, Message: perr.Error(), Err: perr}
			}
			if ok {
				return queries, pkg, nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", fmt.Errorf("reading %s: %w", pkg, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// ParseBrowserslistRC parses the .browserslistrc format: one or more
// comma-separated queries per line, # comments, and optional [env]
// sections. Queries outside any section always apply; when sections are
// present only the production section is added.
func ParseBrowserslistRC(data []byte) []string {
	queries := []string{}
	section := ""
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != "" && !sectionMatches(section) {
			continue
		}
		for _, q := range strings.Split(line, ",") {
			if q = strings.TrimSpace(q); q != "" {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

func sectionMatches(section string) bool {
	for _, name := range strings.Fields(section) {
		if name == browserslistEnv {
			return true
		}
	}
	return false
}

// ParsePackageBrowserslist reads the "browserslist" key of a package.json.
// The key may be an array of queries, a single comma-separated string,
// or an object keyed by environment. ok is false when the key is absent.
func ParsePackageBrowserslist(data []byte) (queries []string, ok bool, err error) {
	if !gjson.ValidBytes(data) {
		return nil, false, errors.New("invalid JSON")
	}
	res := gjson.GetBytes(data, "browserslist")
	if !res.Exists() {
		return nil, false, nil
	}
	if res.IsObject() {
		res = res.Get(browserslistEnv)
		if !res.Exists() {
			return nil, false, nil
		}
	}
	switch {
	case res.IsArray():
		queries = []string{}
		for _, item := range res.Array() {
			if q := strings.TrimSpace(item.String()); q != "" {
				queries = append(queries, q)
			}
		}
	case res.Type == gjson.String:
		queries = []string{}
		for _, q := range strings.Split(res.String(), ",") {
			if q = strings.TrimSpace(q); q != "" {
				queries = append(queries, q)
			}
		}
	default:
		return nil, false, fmt.Errorf("browserslist must be an array or string, got %s", res.Type)
	}
	return queries, true, nil
}

// SaveBrowserslist writes queries into the "browserslist" key of the
// package.json at path, creating the file when missing. Everything else
// in the document is left as written.
func SaveBrowserslist(path string, queries []string) error {
	var mode fs.FileMode = 0o644
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = []byte("{}\n")
	case err != nil:
		return fmt.Errorf("reading %s: %w", path, err)
	default:
		if !gjson.ValidBytes(data) {
			return &ParseError{Path: path, Message: "invalid JSON"}
		}
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
	}

	if queries == nil {
		queries = []string{}
	}
	out, err := sjson.SetBytes(data, "browserslist", queries)
	if err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
