package repository

import (
	"time"

	"github.com/upcastmedia/vodpipe/internal/domain/entity"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

// DeliverySigner issues time-limited read capabilities against the content
// delivery layer. Signing is local key material work; every call re-signs.
type DeliverySigner interface {
	// Sign a read URL for key, valid for expiresIn (default 1 hour when
	// non-positive).
	Sign(key string, expiresIn time.Duration) (*entity.SignedURL, error)
	// Sign read URLs for the transcoded renditions of inputKey, one per
	// requested quality, filtered by format.
	SignRenditions(inputKey string, qualities []mediakey.Quality, filter mediakey.RenditionFilter) (*entity.RenditionURLs, error)
}
