package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	t.Parallel()
	data := []byte(strings.Repeat(`{"¿horario?":"De 7 a 21 h."}`, 500))

	compressed, err := Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	got, err := Decompress(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecompress_Invalid(t *testing.T) {
	t.Parallel()
	_, err := Decompress(strings.NewReader("not zstd data"))
	assert.Error(t, err)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()
	full := Config{Endpoint: "https://x.r2.cloudflarestorage.com", AccessKeyID: "a", SecretKey: "s", BucketName: "b"}
	assert.True(t, full.Enabled())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no endpoint", func(c *Config) { c.Endpoint = "" }},
		{"no key", func(c *Config) { c.AccessKeyID = "" }},
		{"no secret", func(c *Config) { c.SecretKey = "" }},
		{"no bucket", func(c *Config) { c.BucketName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := full
			tt.mutate(&cfg)
			assert.False(t, cfg.Enabled())
			_, err := New(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{Code: "NotFound"})))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}
