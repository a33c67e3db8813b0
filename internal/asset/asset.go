// Package asset describes the static asset headers shipped in a compiled
// application. Loading and cache expiry live elsewhere; this package only
// carries the directives.
package asset

import (
	"fmt"
	"time"
)

// ID identifies a static asset.
type ID uint32

// LoadDirective says when an asset is loaded.
type LoadDirective uint32

const (
	LoadImmediate  LoadDirective = iota // at startup
	LoadWhenNeeded                      // on first use
)

func (d LoadDirective) String() string {
	switch d {
	case LoadImmediate:
		return "immediate"
	case LoadWhenNeeded:
		return "when_needed"
	}
	return fmt.Sprintf("load(%d)", uint32(d))
}

func ParseLoadDirective(s string) (LoadDirective, error) {
	switch s {
	case "immediate", "":
		return LoadImmediate, nil
	case "when_needed":
		return LoadWhenNeeded, nil
	}
	return 0, fmt.Errorf("unknown load directive %q", s)
}

type CacheKind uint32

const (
	DontCache    CacheKind = iota
	Cache                  // until TTL has passed since the last access
	CacheForever           // until the application exits
)

// CacheDirective says how long a loaded asset stays cached.
type CacheDirective struct {
	Kind CacheKind
	TTL  time.Duration
}

func (d CacheDirective) String() string {
	switch d.Kind {
	case DontCache:
		return "dont_cache"
	case Cache:
		return d.TTL.String()
	case CacheForever:
		return "forever"
	}
	return fmt.Sprintf("cache(%d)", uint32(d.Kind))
}

// ParseCacheDirective accepts "dont_cache", "forever" or a duration.
func ParseCacheDirective(s string) (CacheDirective, error) {
	switch s {
	case "dont_cache", "":
		return CacheDirective{Kind: DontCache}, nil
	case "forever":
		return CacheDirective{Kind: CacheForever}, nil
	}
	ttl, err := time.ParseDuration(s)
	if err != nil {
		return CacheDirective{}, fmt.Errorf("cache directive %q: %w", s, err)
	}
	if ttl < 0 {
		return CacheDirective{}, fmt.Errorf("cache directive %q: negative duration", s)
	}
	return CacheDirective{Kind: Cache, TTL: ttl}, nil
}

// Header is the per-asset record of the application header.
type Header struct {
	Load  LoadDirective
	Cache CacheDirective
	Index uint64
}
