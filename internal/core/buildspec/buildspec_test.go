package buildspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest_KnownFrameworks(t *testing.T) {
	tests := []struct {
		framework string
		staticDir string
	}{
		{"nextjs", "out"},
		{"react", "build"},
		{"vue", "dist"},
		{"vite", "dist"},
		{"angular", "dist"},
	}

	for _, tt := range tests {
		t.Run(tt.framework, func(t *testing.T) {
			s := Suggest(tt.framework)
			assert.Equal(t, tt.staticDir, s.StaticDir)
			assert.Equal(t, "npm install", s.InstallCommand)
			assert.Equal(t, "npm run build", s.BuildCommand)
		})
	}
}

func TestSuggest_UnknownFrameworkFallsBack(t *testing.T) {
	s := Suggest("svelte")
	assert.Equal(t, DefaultInstallCommand, s.InstallCommand)
	assert.Equal(t, DefaultBuildCommand, s.BuildCommand)
	assert.Equal(t, DefaultStaticDir, s.StaticDir)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("react"))
	assert.False(t, Known("svelte"))
	assert.False(t, Known(""))
}
