package main

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReloadMarksSurfaceStale(t *testing.T) {
	s := &termSurface{in: bufio.NewScanner(strings.NewReader(""))}
	assert.False(t, s.consumeStale())

	s.Reload()
	assert.True(t, s.consumeStale(), "a reload must be rendered once")
	assert.False(t, s.consumeStale(), "and exactly once")
}

func TestReplaceTracksPath(t *testing.T) {
	s := &termSurface{in: bufio.NewScanner(strings.NewReader(""))}
	s.Replace("/content/7")
	assert.Equal(t, "/content/7", s.Path())
	assert.False(t, s.consumeStale(), "plain navigation is not a reload")
}
