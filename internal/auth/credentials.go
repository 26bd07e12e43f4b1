// Package auth resolves NASA Earthdata Login credentials and builds
// HTTP clients that can follow the Earthdata redirect authentication flow.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
)

// URSHost is the Earthdata Login host that issues auth redirects.
const URSHost = "urs.earthdata.nasa.gov"

// ErrNoCredentials indicates that no credential source yielded anything usable.
var ErrNoCredentials = errors.New("no Earthdata credentials configured")

// Source names where the resolved credentials came from.
type Source string

const (
	SourceSettings Source = "settings"
	SourceEnv      Source = "environment"
	SourceNetrc    Source = "netrc"
)

// Credentials holds an Earthdata Login identity. Either a username and
// password pair or a bearer token is enough to authenticate.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// HasBasic reports whether a username/password pair is present.
func (c Credentials) HasBasic() bool { return c.Username != "" && c.Password != "" }

// HasToken reports whether a bearer token is present.
func (c Credentials) HasToken() bool { return c.Token != "" }

// Usable reports whether the credentials can authenticate at all.
func (c Credentials) Usable() bool { return c.HasBasic() || c.HasToken() }

type envCredentials struct {
	Username string `env:"EARTHDATA_USERNAME"`
	Password string `env:"EARTHDATA_PASSWORD"`
	Token    string `env:"EARTHDATA_TOKEN"`
}

// FromEnv reads credentials from the EARTHDATA_* environment variables.
func FromEnv() (Credentials, error) {
	var ec envCredentials
	if err := env.Parse(&ec); err != nil {
		return Credentials{}, fmt.Errorf("parse credential env vars: %w", err)
	}
	return Credentials{Username: ec.Username, Password: ec.Password, Token: ec.Token}, nil
}

// DefaultNetrcPath returns ~/.netrc, or "" when the home directory is unknown.
func DefaultNetrcPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".netrc")
}

// Resolve picks credentials in priority order: application settings first,
// then environment variables, then the netrc file. The first source with
// usable credentials wins; sources are never merged.
func Resolve(settings Credentials, netrcPath string) (Credentials, Source, error) {
	if settings.Usable() {
		return settings, SourceSettings, nil
	}

	envCreds, err := FromEnv()
	if err == nil && envCreds.Usable() {
		return envCreds, SourceEnv, nil
	}

	if netrcPath != "" {
		login, password, found, err := ReadNetrcMachine(netrcPath, URSHost)
		if err == nil && found {
			creds := Credentials{Username: login, Password: password}
			if creds.Usable() {
				return creds, SourceNetrc, nil
			}
		}
	}

	return Credentials{}, "", ErrNoCredentials
}
