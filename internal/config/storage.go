package config

import "strings"

// StorageConfig selects where uploaded media is written.  When Bucket is set
// the S3-compatible store is used; otherwise files land under LocalDir and
// are served by the API itself under /media.
type StorageConfig struct {
	Bucket        string // S3_BUCKET
	Region        string // S3_REGION
	Endpoint      string // S3_ENDPOINT, for MinIO and other compatible services
	PublicBaseURL string // S3_PUBLIC_BASE_URL, prefix of the returned object URLs
	LocalDir      string // MEDIA_DIR
	LocalBaseURL  string // MEDIA_BASE_URL
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Bucket:        strings.TrimSpace(envStr("S3_BUCKET", "")),
		Region:        envStr("S3_REGION", "us-east-1"),
		Endpoint:      envStr("S3_ENDPOINT", ""),
		PublicBaseURL: envStr("S3_PUBLIC_BASE_URL", ""),
		LocalDir:      envStr("MEDIA_DIR", "media"),
		LocalBaseURL:  envStr("MEDIA_BASE_URL", "/media"),
	}
}

// UseS3 reports whether uploads go to object storage.
func (c StorageConfig) UseS3() bool { return c.Bucket != "" }
