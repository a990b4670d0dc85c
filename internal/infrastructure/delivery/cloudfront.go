// Package delivery issues time-limited read capabilities against the
// CloudFront distribution fronting the media buckets, including derived
// paths for transcoded renditions.
package delivery

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/service/cloudfront/sign"
	"github.com/rs/zerolog"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

// DefaultTTL is the read-capability lifetime when callers do not ask for one.
const DefaultTTL = time.Hour

// Signer signs CloudFront URLs with an RSA key pair. Credentials are a
// startup-time invariant: construction fails when they are absent, individual
// calls never re-check. Safe for concurrent use.
type Signer struct {
	domain string
	signer *sign.URLSigner
	logger zerolog.Logger
	now    func() time.Time
}

// NewSigner loads the PEM private key and binds the distribution domain.
func NewSigner(domain, keyPairID, privateKeyFile string, logger zerolog.Logger) (*Signer, error) {
	if domain == "" {
		return nil, apperr.New(apperr.Configuration, "delivery domain must be set")
	}
	if keyPairID == "" {
		return nil, apperr.New(apperr.Configuration, "delivery key pair id must be set")
	}
	if privateKeyFile == "" {
		return nil, apperr.New(apperr.Configuration, "delivery private key file must be set")
	}
	priv, err := sign.LoadPEMPrivKeyFile(privateKeyFile)
	if err != nil {
		return nil, apperr.Wrap(apperr.Configuration, "cannot load delivery signing key", err)
	}
	return &Signer{
		domain: strings.TrimSuffix(domain, "/"),
		signer: sign.NewURLSigner(keyPairID, priv),
		logger: logger.With().Str("component", "delivery").Logger(),
		now:    time.Now,
	}, nil
}

// Sign issues a read capability for key. Every call re-signs; nothing is
// cached or persisted, so key rotation needs no invalidation bookkeeping.
func (s *Signer) Sign(key string, expiresIn time.Duration) (*entity.SignedURL, error) {
	if expiresIn <= 0 {
		expiresIn = DefaultTTL
	}
	expires := s.now().Add(expiresIn)
	raw := fmt.Sprintf("https://%s/%s", s.domain, strings.TrimPrefix(key, "/"))
	url, err := s.signer.Sign(raw, expires)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "sign delivery url", err)
	}
	s.logger.Debug().Str("key", key).Msg("signed delivery url")
	return &entity.SignedURL{URL: url, ExpiresAt: expires}, nil
}

// SignRenditions issues read capabilities for the transcoded renditions of
// inputKey, one per requested quality, filtered by format. Rendition paths
// come from the same derivation the transcoding orchestrator writes to.
func (s *Signer) SignRenditions(inputKey string, qualities []mediakey.Quality, filter mediakey.RenditionFilter) (*entity.RenditionURLs, error) {
	out := &entity.RenditionURLs{}
	if filter.IncludesMP4() {
		out.MP4 = make(map[mediakey.Quality]*entity.SignedURL, len(qualities))
	}
	if filter.IncludesHLS() {
		out.HLS = make(map[mediakey.Quality]*entity.SignedURL, len(qualities))
	}
	for _, q := range qualities {
		if filter.IncludesMP4() {
			u, err := s.Sign(mediakey.MP4ObjectKey(inputKey, q), DefaultTTL)
			if err != nil {
				return nil, err
			}
			out.MP4[q] = u
		}
		if filter.IncludesHLS() {
			u, err := s.Sign(mediakey.HLSPlaylistKey(inputKey, q), DefaultTTL)
			if err != nil {
				return nil, err
			}
			out.HLS[q] = u
		}
	}
	return out, nil
}
