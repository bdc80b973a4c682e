package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	Version, Commit, Date = "1.2.3", "0123456789abcdef", "2026-01-02"
	t.Cleanup(func() { Version, Commit, Date = "dev", "unknown", "unknown" })

	s := Get().String()
	assert.True(t, strings.HasPrefix(s, "attractions-scraper 1.2.3 (0123456,"), s)
	assert.Contains(t, s, "2026-01-02")
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "unknown", shortCommit("unknown"))
	assert.Equal(t, "abcdefg", shortCommit("abcdefgh"))
}
