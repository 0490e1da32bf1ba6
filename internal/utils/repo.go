package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseRepoRef accepts "owner/name", "github.com/owner/name" or a full repository URL
func ParseRepoRef(s string) (models.RepoRef, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return models.RepoRef{}, apperrors.NewInvalidFormatError("empty repository identifier", nil)
	}

	path := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return models.RepoRef{}, apperrors.NewInvalidFormatError(fmt.Sprintf("invalid repository URL %q", raw), err)
		}
		path = u.Path
	} else if strings.HasPrefix(raw, "github.com/") {
		path = strings.TrimPrefix(raw, "github.com/")
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return models.RepoRef{}, apperrors.NewInvalidFormatError(fmt.Sprintf("expected owner/name, got %q", raw), nil)
	}
	// bare identifiers must be exactly owner/name; URLs may carry extra path segments
	if path == raw && len(parts) != 2 {
		return models.RepoRef{}, apperrors.NewInvalidFormatError(fmt.Sprintf("expected owner/name, got %q", raw), nil)
	}

	owner, name := parts[0], strings.TrimSuffix(parts[1], ".git")
	if !namePattern.MatchString(owner) || !namePattern.MatchString(name) {
		return models.RepoRef{}, apperrors.NewInvalidFormatError(fmt.Sprintf("invalid repository identifier %q", raw), nil)
	}
	return models.RepoRef{Owner: owner, Name: name}, nil
}
