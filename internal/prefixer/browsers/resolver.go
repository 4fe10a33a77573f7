package browsers

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of resolved query lists a Resolver keeps.
const DefaultCacheSize = 64

// Resolver turns browserslist queries into targets. Results are cached
// by query list. A Resolver is safe for concurrent use.
type Resolver struct {
	data  *Data
	cache *lru.Cache[string, []Target]
}

// NewResolver creates a resolver over data with room for size cached
// results.
func NewResolver(data *Data, size int) (*Resolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []Target](size)
	if err != nil {
		return nil, err
	}
	return &Resolver{data: data, cache: cache}, nil
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	r, err := NewResolver(Embedded(), DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the shared resolver over the embedded data.
func Default() *Resolver {
	return defaultResolver()
}

// Data returns the agent data the resolver uses.
func (r *Resolver) Data() *Data {
	return r.data
}

// Resolve returns the targets selected by queries. An empty list means
// "defaults". The returned slice is owned by the caller.
func (r *Resolver) Resolve(queries []string) ([]Target, error) {
	if len(queries) == 0 {
		queries = []string{"defaults"}
	}
	key := strings.Join(queries, "\x00")
	if cached, ok := r.cache.Get(key); ok {
		return append([]Target(nil), cached...), nil
	}
	targets, err := resolve(r.data, queries)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, targets)
	return append([]Target(nil), targets...), nil
}

// Coverage returns the combined global usage share of targets in percent.
func (r *Resolver) Coverage(targets []Target) float64 {
	var total float64
	for _, t := range targets {
		if a, ok := r.data.Agent(t.Browser); ok {
			total += a.Usage(t.Version)
		}
	}
	return total
}

// Resolve resolves queries with the default resolver.
func Resolve(queries []string) ([]Target, error) {
	return Default().Resolve(queries)
}
