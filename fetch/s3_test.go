package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsS3URI(t *testing.T) {
	assert.True(t, IsS3URI("s3://bucket/results.tar.gz"))
	assert.False(t, IsS3URI("/data/results"))
	assert.False(t, IsS3URI("https://bucket.example/results.tar.gz"))
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://bench-results/usbip/2026-01-14.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "bench-results", bucket)
	assert.Equal(t, "usbip/2026-01-14.tar.gz", key)
}

func TestParseS3URIInvalid(t *testing.T) {
	for _, uri := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseS3URI(uri)
		assert.Error(t, err, uri)
	}
}
