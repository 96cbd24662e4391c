package matcher

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"voicecalc/internal/lexicon"
)

// Cache memoizes Compile per language. It holds at most one entry per
// supported language, so nothing is ever evicted in practice; the bound keeps
// the key space closed.
type Cache struct {
	entries *lru.Cache[string, *Compiled]
	group   singleflight.Group
	builds  atomic.Int64
	observe func(code string, hit bool)
}

type CacheOption func(*Cache)

// WithObserver reports every lookup, e.g. to metrics.
func WithObserver(fn func(code string, hit bool)) CacheOption {
	return func(c *Cache) { c.observe = fn }
}

func NewCache(opts ...CacheOption) *Cache {
	entries, err := lru.New[string, *Compiled](len(lexicon.Supported()))
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	c := &Cache{entries: entries}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the compiled matchers for code, compiling them on first use.
// Codes resolve through the lexicon first, so "es-MX" and "es" share an entry
// and unsupported codes share the default language's entry.
func (c *Cache) Get(code string) (*Compiled, error) {
	code = lexicon.Resolve(code)
	if compiled, ok := c.entries.Get(code); ok {
		c.report(code, true)
		return compiled, nil
	}
	c.report(code, false)

	v, err, _ := c.group.Do(code, func() (any, error) {
		if compiled, ok := c.entries.Get(code); ok {
			return compiled, nil
		}
		compiled, err := Compile(lexicon.Lookup(code))
		if err != nil {
			return nil, fmt.Errorf("compiling matchers: %w", err)
		}
		c.builds.Add(1)
		c.entries.Add(code, compiled)
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Compiled), nil
}

// Warm compiles every supported language up front.
func (c *Cache) Warm() error {
	for _, code := range lexicon.Supported() {
		if _, err := c.Get(code); err != nil {
			return err
		}
	}
	return nil
}

// Builds reports how many times Compile ran.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) report(code string, hit bool) {
	if c.observe != nil {
		c.observe(code, hit)
	}
}
