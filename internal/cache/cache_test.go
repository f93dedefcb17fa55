package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadikovi/searcher/internal/ext"
)

func TestNullCacheAlwaysMisses(t *testing.T) {
	var c NullCache
	assert.False(t, c.Contains("/tmp"))
	assert.False(t, c.Walk("/tmp", func(Entry) bool { return true }))
}

func TestDirCachePopulateAndWalk(t *testing.T) {
	c := NewDirCache(time.Minute, time.Minute)
	require.False(t, c.Contains("/repo"), "empty cache should not contain /repo")

	entries := []Entry{
		{Path: "/repo/a.go", Ext: ext.Go},
		{Path: "/repo/b.go", Ext: ext.Go},
	}
	c.Populate("/repo", entries)

	require.True(t, c.Contains("/repo"), "expected /repo to be cached after Populate")

	var seen []Entry
	ok := c.Walk("/repo", func(e Entry) bool {
		seen = append(seen, e)
		return true
	})
	require.True(t, ok, "Walk should report true for a cached directory")
	assert.Len(t, seen, 2)
}

func TestDirCacheWalkStopsEarly(t *testing.T) {
	c := NewDirCache(time.Minute, time.Minute)
	c.Populate("/repo", []Entry{
		{Path: "/repo/a.go", Ext: ext.Go},
		{Path: "/repo/b.go", Ext: ext.Go},
		{Path: "/repo/c.go", Ext: ext.Go},
	})

	count := 0
	c.Walk("/repo", func(e Entry) bool {
		count++
		return count < 1
	})
	assert.Equal(t, 1, count)
}
