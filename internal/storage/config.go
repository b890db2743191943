package storage

import "github.com/spf13/viper"

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadMinIOConfig loads MinIO config from environment. An empty Endpoint
// means attachments are disabled.
func LoadMinIOConfig() *MinIOConfig {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "gowiki")
	return &MinIOConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
		Bucket:    v.GetString("MINIO_BUCKET"),
	}
}
