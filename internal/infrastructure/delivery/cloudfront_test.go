package delivery

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cf.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("cdn.example.com", "KPID123", writeTestKey(t), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestNewSignerConfiguration(t *testing.T) {
	key := writeTestKey(t)
	tests := []struct {
		name           string
		domain, keyID  string
		privateKeyFile string
	}{
		{"missing domain", "", "KPID123", key},
		{"missing key pair id", "cdn.example.com", "", key},
		{"missing key file", "cdn.example.com", "KPID123", ""},
		{"unreadable key file", "cdn.example.com", "KPID123", filepath.Join(t.TempDir(), "nope.pem")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSigner(tt.domain, tt.keyID, tt.privateKeyFile, zerolog.Nop())
			assert.True(t, apperr.IsKind(err, apperr.Configuration), "got %v", err)
		})
	}
}

func TestSign(t *testing.T) {
	s := newTestSigner(t)
	u, err := s.Sign("d/user/u1/video_1.mp4", 30*time.Minute)
	require.NoError(t, err)

	parsed, err := url.Parse(u.URL)
	require.NoError(t, err)
	assert.Equal(t, "cdn.example.com", parsed.Host)
	assert.Equal(t, "/d/user/u1/video_1.mp4", parsed.Path)
	q := parsed.Query()
	assert.NotEmpty(t, q.Get("Expires"))
	assert.NotEmpty(t, q.Get("Signature"))
	assert.Equal(t, "KPID123", q.Get("Key-Pair-Id"))
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), u.ExpiresAt, time.Minute)
}

func TestSignRefreshesPerCall(t *testing.T) {
	s := newTestSigner(t)
	a, err := s.Sign("k.mp4", time.Hour)
	require.NoError(t, err)
	b, err := s.Sign("k.mp4", 2*time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.URL, b.URL)
}

func TestSignRenditionsBoth(t *testing.T) {
	s := newTestSigner(t)
	in := "p/course/c9/video_1712000000000.mov"
	out, err := s.SignRenditions(in, []mediakey.Quality{mediakey.QualityMedium, mediakey.QualityHigh}, mediakey.FilterBoth)
	require.NoError(t, err)

	require.Len(t, out.MP4, 2)
	require.Len(t, out.HLS, 2)
	for _, q := range []mediakey.Quality{mediakey.QualityMedium, mediakey.QualityHigh} {
		mp4, err := url.Parse(out.MP4[q].URL)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(mp4.Path, "-mp4-"+string(q)+".mp4"), mp4.Path)

		hls, err := url.Parse(out.HLS[q].URL)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(hls.Path, "-hls-"+string(q)+"/index.m3u8"), hls.Path)
	}
}

func TestSignRenditionsFiltered(t *testing.T) {
	s := newTestSigner(t)
	out, err := s.SignRenditions("k.mp4", []mediakey.Quality{mediakey.QualityLow}, mediakey.FilterMP4)
	require.NoError(t, err)
	assert.Len(t, out.MP4, 1)
	assert.Nil(t, out.HLS)

	out, err = s.SignRenditions("k.mp4", []mediakey.Quality{mediakey.QualityLow}, mediakey.FilterHLS)
	require.NoError(t, err)
	assert.Nil(t, out.MP4)
	assert.Len(t, out.HLS, 1)
}
