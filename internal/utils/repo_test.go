package utils

import (
	"testing"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  models.RepoRef
	}{
		{"short form", "octo/widgets", models.RepoRef{Owner: "octo", Name: "widgets"}},
		{"host prefix", "github.com/octo/widgets", models.RepoRef{Owner: "octo", Name: "widgets"}},
		{"https url", "https://github.com/octo/widgets", models.RepoRef{Owner: "octo", Name: "widgets"}},
		{"url with git suffix", "https://github.com/octo/widgets.git", models.RepoRef{Owner: "octo", Name: "widgets"}},
		{"url with extra path", "https://github.com/octo/widgets/issues/3", models.RepoRef{Owner: "octo", Name: "widgets"}},
		{"surrounding space", "  octo/widgets ", models.RepoRef{Owner: "octo", Name: "widgets"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoRef(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRepoRefInvalid(t *testing.T) {
	for _, input := range []string{"", "octo", "octo/widgets/extra", "octo/wid gets", "https://github.com/octo"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseRepoRef(input)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidFormat(err))
		})
	}
}
