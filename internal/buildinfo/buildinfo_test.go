package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = oldV, oldC, oldD })

	Version, Commit, BuildDate = "v1.2.0", "abc123", "2026-01-02T03:04:05Z"
	assert.Equal(t, "v1.2.0", Release())
	assert.Equal(t, "aulabot v1.2.0 commit abc123 built 2026-01-02T03:04:05Z", String())

	Commit, BuildDate = "", ""
	assert.Equal(t, "aulabot v1.2.0", String())

	Version = ""
	assert.NotEmpty(t, Release())
}
