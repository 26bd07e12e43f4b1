// Package update checks a published release manifest for newer versions.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
)

// DefaultManifestURL points at the released version manifest.
const DefaultManifestURL = "https://raw.githubusercontent.com/opengeos/earthdata-desktop/main/release.json"

// Release is the published manifest format.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes"`
}

// Checker compares the running version against the published release.
type Checker struct {
	manifestURL string
	current     *semver.Version
	httpClient  *http.Client
	log         zerolog.Logger
}

// NewChecker builds a checker for the given running version string.
func NewChecker(manifestURL, currentVersion string, log zerolog.Logger) (*Checker, error) {
	if manifestURL == "" {
		manifestURL = DefaultManifestURL
	}
	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("parse current version %q: %w", currentVersion, err)
	}
	return &Checker{
		manifestURL: manifestURL,
		current:     current,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		log:         log.With().Str("component", "update").Logger(),
	}, nil
}

// Check fetches the manifest and reports whether it announces a version
// newer than the running one. The release is returned either way so the
// caller can show "up to date" details.
func (c *Checker) Check(ctx context.Context) (*Release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build manifest request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch release manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetch release manifest: unexpected status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, false, fmt.Errorf("decode release manifest: %w", err)
	}

	published, err := semver.NewVersion(release.Version)
	if err != nil {
		return nil, false, fmt.Errorf("parse published version %q: %w", release.Version, err)
	}

	newer := published.GreaterThan(c.current)
	c.log.Debug().
		Str("current", c.current.String()).
		Str("published", published.String()).
		Bool("newer", newer).
		Msg("update check")
	return &release, newer, nil
}
