package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = append([]string{"srv"}, args...)
	fn()
}

func TestParseFlags_Overrides(t *testing.T) {
	withArgs(t, []string{
		"-a", ":9090",
		"-d", "postgres://u:p@h/db",
		"-s", "/var/lib/uploads/staging",
		"-m", "512",
		"-y", "restrictive",
		"-x", "pdf,PNG,.jpg",
		"-o", "s3",
		"-b", "mybucket",
	}, func() {
		c := &Config{}
		c.LoadDefaults()
		parseFlags(c)

		assert.Equal(t, ":9090", c.EndpointAddrHTTP)
		assert.Equal(t, "postgres://u:p@h/db", c.DatabaseDSN)
		assert.Equal(t, "/var/lib/uploads/staging", c.StagingDir)
		assert.Equal(t, int64(512<<20), c.MaxUploadSize)
		assert.Equal(t, PolicyRestrictive, c.PolicyMode)
		assert.Equal(t, []string{"pdf", "png", "jpg"}, c.AllowedExtensions)
		assert.Equal(t, BlobS3, c.BlobBackend)
		assert.Equal(t, "mybucket", c.S3Bucket)
	})
}

func TestParseFlags_KeepsDefaultsWithoutArgs(t *testing.T) {
	withArgs(t, nil, func() {
		c := &Config{}
		c.LoadDefaults()
		parseFlags(c)

		assert.Equal(t, ":8080", c.EndpointAddrHTTP)
		assert.Equal(t, int64(8<<30), c.MaxUploadSize)
		assert.Empty(t, c.AllowedExtensions)
	})
}

func TestSplitExtensions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"pdf", []string{"pdf"}},
		{"pdf,txt", []string{"pdf", "txt"}},
		{" .PNG , jpg ,", []string{"png", "jpg"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitExtensions(tt.in), "input %q", tt.in)
	}
}
