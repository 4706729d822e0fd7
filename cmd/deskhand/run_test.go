package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhand/deskhand/pkg/config"
)

func TestSocialPostersSkipIncompleteCredentials(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		platforms []string
	}{
		{
			name:      "no credentials",
			cfg:       config.Config{},
			platforms: nil,
		},
		{
			name:      "linkedin token without author id",
			cfg:       config.Config{LinkedInToken: "tok"},
			platforms: nil,
		},
		{
			name:      "linkedin fully configured",
			cfg:       config.Config{LinkedInToken: "tok", LinkedInAuthorID: "urn-1"},
			platforms: []string{"linkedin"},
		},
		{
			name:      "facebook token without page id",
			cfg:       config.Config{FacebookToken: "tok"},
			platforms: nil,
		},
		{
			name: "all platforms",
			cfg: config.Config{
				TwitterToken:     "tw",
				FacebookToken:    "fb",
				FacebookPageID:   "page",
				LinkedInToken:    "li",
				LinkedInAuthorID: "urn-1",
			},
			platforms: []string{"twitter", "facebook", "linkedin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posters := socialPosters(tt.cfg)
			var platforms []string
			for _, p := range posters {
				require.NoError(t, p.Validate())
				platforms = append(platforms, p.Platform())
			}
			assert.ElementsMatch(t, tt.platforms, platforms)
		})
	}
}
