package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoadDirective(t *testing.T) {
	d, err := ParseLoadDirective("when_needed")
	require.NoError(t, err)
	assert.Equal(t, LoadWhenNeeded, d)
	assert.Equal(t, "when_needed", d.String())

	d, err = ParseLoadDirective("")
	require.NoError(t, err)
	assert.Equal(t, LoadImmediate, d)

	_, err = ParseLoadDirective("later")
	require.Error(t, err)
}

func TestParseCacheDirective(t *testing.T) {
	tests := []struct {
		in   string
		want CacheDirective
	}{
		{"dont_cache", CacheDirective{Kind: DontCache}},
		{"forever", CacheDirective{Kind: CacheForever}},
		{"90s", CacheDirective{Kind: Cache, TTL: 90 * time.Second}},
	}
	for _, tt := range tests {
		got, err := ParseCacheDirective(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCacheDirective("soon")
	require.Error(t, err)
	_, err = ParseCacheDirective("-1s")
	require.Error(t, err)

	assert.Equal(t, "1m30s", CacheDirective{Kind: Cache, TTL: 90 * time.Second}.String())
}
