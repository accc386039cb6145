package config

import (
	"encoding/json"
	"os"

	"github.com/dpetrovs/fileupload/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP  string   `json:"endpoint_addr_http"`
	DatabaseDSN       string   `json:"database_dsn"`
	StagingDir        string   `json:"staging_dir"`
	MaxUploadSize     int64    `json:"max_upload_size"`
	PolicyMode        string   `json:"policy_mode"`
	AllowedExtensions []string `json:"allowed_extensions"`
	ImageExtensions   []string `json:"image_extensions"`
	ThumbnailSide     int      `json:"thumbnail_side"`
	BlobBackend       string   `json:"blob_backend"`
	S3RootUser        string   `json:"s3_root_user"`
	S3RootPassword    string   `json:"s3_root_password"`
	S3Bucket          string   `json:"s3_bucket"`
	S3Region          string   `json:"s3_region"`
	S3BaseEndpoint    string   `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. Zero-valued JSON fields leave the
// corresponding Config fields untouched so defaults survive a partial file.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.StagingDir != "" {
		config.StagingDir = c.StagingDir
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.PolicyMode != "" {
		config.PolicyMode = c.PolicyMode
	}
	if c.AllowedExtensions != nil {
		config.AllowedExtensions = c.AllowedExtensions
	}
	if c.ImageExtensions != nil {
		config.ImageExtensions = c.ImageExtensions
	}
	if c.ThumbnailSide > 0 {
		config.ThumbnailSide = c.ThumbnailSide
	}
	if c.BlobBackend != "" {
		config.BlobBackend = c.BlobBackend
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
