// Package credentials resolves the service-account identity used against the
// geoanalytics archive service.
//
// Three mutually exclusive sources are tried in priority order: a hosted
// secret file (mounted by the deployment platform), the GEO_SA_JSON
// environment variable holding the full JSON blob, and a local key file for
// development checkouts. Exactly one source is used per run: the first one
// that is present wins, and a present-but-malformed source is a hard error
// rather than a fall-through, so a broken mount never silently degrades to a
// stale local key.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// EnvVar names the environment variable holding a service-account JSON blob.
const EnvVar = "GEO_SA_JSON"

// Source labels for Credential.Source.
const (
	SourceSecretFile = "secret_file"
	SourceEnv        = "env"
	SourceKeyFile    = "key_file"
)

// ErrNoCredentials means none of the three credential sources was present.
// Fatal at startup: the archive rejects unauthenticated requests.
var ErrNoCredentials = errors.New("no credential source available")

// Credential is a parsed service-account identity.
type Credential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`

	// Source records which input supplied the credential, for startup logs.
	Source string `json:"-"`
}

// Resolve loads the credential from the first present source: the hosted
// secret file, then the GEO_SA_JSON environment variable, then the local key
// file.
func Resolve(secretFile, keyFile string) (*Credential, error) {
	if data, err := os.ReadFile(secretFile); err == nil {
		return parse(data, SourceSecretFile, secretFile)
	}
	if blob := os.Getenv(EnvVar); blob != "" {
		return parse([]byte(blob), SourceEnv, EnvVar)
	}
	if data, err := os.ReadFile(keyFile); err == nil {
		return parse(data, SourceKeyFile, keyFile)
	}
	return nil, fmt.Errorf("%w: tried %s, $%s, %s", ErrNoCredentials, secretFile, EnvVar, keyFile)
}

func parse(data []byte, source, origin string) (*Credential, error) {
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse credential from %s: %w", origin, err)
	}
	if cred.ClientEmail == "" {
		return nil, fmt.Errorf("credential from %s: missing client_email", origin)
	}
	if cred.PrivateKey == "" {
		return nil, fmt.Errorf("credential from %s: missing private_key", origin)
	}
	cred.Source = source
	return &cred, nil
}
