package match

import (
	"github.com/papapumpkin/palimpsest/internal/cache"
)

// Default registry cache sizes.
const (
	DefaultCompiledSize = 256
	DefaultResultSize   = 512
)

type compiled struct {
	m   Matcher
	err error
}

type resultKey struct {
	selector string
	content  cache.Fingerprint
}

// Registry compiles each selector once and memoizes match results per
// (selector, content) pair. Returned range slices are shared and must not
// be modified.
type Registry struct {
	compiled *cache.LRU[string, compiled]
	results  *cache.LRU[resultKey, []Range]
}

// NewRegistry creates a registry with the given cache sizes.
func NewRegistry(compiledSize, resultSize int) *Registry {
	return &Registry{
		compiled: cache.NewLRU[string, compiled](compiledSize),
		results:  cache.NewLRU[resultKey, []Range](resultSize),
	}
}

// Compile returns the cached matcher for selector. Compile errors are cached
// too, so a bad selector is parsed once.
func (r *Registry) Compile(selector string) (Matcher, error) {
	c := r.compiled.GetOrCompute(selector, func() compiled {
		m, err := Compile(selector)
		return compiled{m: m, err: err}
	})
	return c.m, c.err
}

// Find returns the ranges selector matches in text.
func (r *Registry) Find(selector, text string) ([]Range, error) {
	m, err := r.Compile(selector)
	if err != nil {
		return nil, err
	}
	key := resultKey{selector: selector, content: cache.Hash(text)}
	return r.results.GetOrCompute(key, func() []Range {
		return m.Matches(text)
	}), nil
}

// Stats returns the compile and result cache counters.
func (r *Registry) Stats() (compiledStats, resultStats cache.Stats) {
	return r.compiled.Stats(), r.results.Stats()
}

// Reset clears both caches.
func (r *Registry) Reset() {
	r.compiled.Reset()
	r.results.Reset()
}
