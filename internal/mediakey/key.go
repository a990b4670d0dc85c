// Package mediakey owns the naming contract of the media pipeline: storage key
// derivation for uploads and the canonical rendition paths shared by the
// delivery signer and the transcoding orchestrator.
package mediakey

import (
	"fmt"
	"strings"
	"time"

	"github.com/upcastmedia/vodpipe/internal/apperr"
)

// Environment is the closed deployment environment enumeration. Each value
// maps to a single-character key prefix separating environments within one
// logical key space.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTest        Environment = "test"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// ParseEnvironment resolves an environment name, accepting the short aliases
// "dev" and "prod". Anything outside the enumeration is a configuration
// error, never a fallback.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(s) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "test":
		return EnvTest, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	default:
		return "", apperr.Newf(apperr.Configuration, "invalid environment %q", s)
	}
}

// Prefix returns the single-character key namespace for the environment.
func (e Environment) Prefix() string {
	switch e {
	case EnvDevelopment:
		return "d"
	case EnvTest:
		return "t"
	case EnvStaging:
		return "s"
	case EnvProduction:
		return "p"
	default:
		return ""
	}
}

// DeriveKey maps a logical upload intent to a storage key:
//
//	<env-prefix>/<entityType>/<entityID>/<mediaType>_<unix-millis>.<ext>
//
// The millisecond timestamp keeps keys human-diagnosable and collision
// resistant for a given (entity, media) pair. Callers supply now explicitly;
// the function performs no I/O and is deterministic given its inputs.
func DeriveKey(env, entityType, entityID, mediaType, ext string, now time.Time) (string, error) {
	e, err := ParseEnvironment(env)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/%s_%d.%s", e.Prefix(), entityType, entityID, mediaType, now.UnixMilli(), ext), nil
}

// StripExtension removes the trailing extension of the last path segment, if
// any. The rest of the key is left untouched.
func StripExtension(key string) string {
	dot := strings.LastIndexByte(key, '.')
	if dot <= strings.LastIndexByte(key, '/') {
		return key
	}
	return key[:dot]
}
