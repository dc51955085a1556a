package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, GitCommit
	Version, GitCommit = v, commit
	t.Cleanup(func() {
		Version, GitCommit = oldVersion, oldCommit
	})
}

func TestInfo(t *testing.T) {
	withVersion(t, "1.2.0", "abcdef0123456-dirty")

	info := Info()
	assert.Equal(t, "1.2.0", info.Version)
	assert.True(t, info.Dirty)
	assert.True(t, info.Release)
	assert.NotEmpty(t, info.GoVersion)
}

func TestString(t *testing.T) {
	withVersion(t, "1.2.0", "abcdef0123456")

	s := Info().String()
	assert.Contains(t, s, "tabula 1.2.0\n")
	assert.Contains(t, s, "Git Commit: abcdef0\n")
	assert.NotContains(t, s, "Build Date")
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"dev", false},
		{"1.0.0", true},
		{"1.0.0-rc.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withVersion(t, tt.version, unknownValue)
			assert.Equal(t, tt.want, IsRelease())
		})
	}
}
