package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

func setRequired(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_S3_VOD_BUCKET", "vod-input")
	t.Setenv("AWS_CF_VOD_DOMAIN", "cdn.example.com")
	t.Setenv("AWS_CF_KEY_PAIR_ID", "KPID123")
	t.Setenv("AWS_CF_PRIVATE_KEY_FILE", "/etc/vodpipe/cf.pem")
	t.Setenv("AWS_VOD_MEDIACONVERT_URL", "https://mc.eu-central-1.amazonaws.com")
	t.Setenv("AWS_VOD_ROLE_ARN", "arn:aws:iam::123:role/vod")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":4443", cfg.Addr)
	assert.Equal(t, mediakey.EnvDevelopment, cfg.Env)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8, cfg.PartURLConcurrency)
	assert.Empty(t, cfg.UploadTable)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_S3_VOD_BUCKET", "")
	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Configuration))
	assert.Contains(t, err.Error(), "AWS_S3_VOD_BUCKET")
}

func TestLoadInvalidEnvironment(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "qa")
	_, err := Load()
	assert.True(t, apperr.IsKind(err, apperr.Configuration))
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("PART_URL_CONCURRENCY", "16")
	t.Setenv("AWS_DB_VOD_NAME", "vod-uploads")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, mediakey.EnvProduction, cfg.Env)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 16, cfg.PartURLConcurrency)
	assert.Equal(t, "vod-uploads", cfg.UploadTable)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err := Load()
	assert.True(t, apperr.IsKind(err, apperr.Configuration))

	t.Setenv("REQUEST_TIMEOUT", "-5s")
	_, err = Load()
	assert.True(t, apperr.IsKind(err, apperr.Configuration))
}
