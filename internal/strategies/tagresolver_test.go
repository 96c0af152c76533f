package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		version  string
		tags     []string
		wantTag  string
		wantOK   bool
	}{
		{
			name:    "exact match",
			version: "1.0.3",
			tags:    []string{"0.9.0", "1.0.3", "v2.0.0"},
			wantTag: "1.0.3",
			wantOK:  true,
		},
		{
			name:    "v prefix match",
			version: "2.26.0",
			tags:    []string{"v2.25.1", "v2.26.0"},
			wantTag: "v2.26.0",
			wantOK:  true,
		},
		{
			name:    "exact wins over prefix",
			version: "1.0.0",
			tags:    []string{"1.0.0", "v1.0.0"},
			wantTag: "1.0.0",
			wantOK:  true,
		},
		{
			name:    "not found",
			version: "1.0.0",
			tags:    []string{"release-1.0.0", "pkg/v1.0.0"},
			wantOK:  false,
		},
		{
			name:    "empty tag list",
			version: "1.0.0",
			tags:    nil,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := ResolveTag(tt.version, tt.tags)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantTag, resolved.TagName)
				assert.Equal(t, tt.version, resolved.Version)
			}
		})
	}
}

func TestResolveTagRequestsScenario(t *testing.T) {
	t.Parallel()

	tags := []string{"v2.25.1", "v2.26.0"}

	oldTag, ok := ResolveTag("2.25.1", tags)
	require.True(t, ok)
	assert.Equal(t, "v2.25.1", oldTag.TagName)

	newTag, ok := ResolveTag("2.26.0", tags)
	require.True(t, ok)
	assert.Equal(t, "v2.26.0", newTag.TagName)
}
