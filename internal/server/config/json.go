package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/deliverhub/deliverhub/internal/flagx"
	"github.com/deliverhub/deliverhub/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration so both string values such as
// "30m" and integer nanoseconds parse. After unmarshalling, its fields are
// copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	PartSizeBytes    int64          `json:"part_size_bytes"`
	PartPresignTTL   timex.Duration `json:"part_presign_ttl"`
	GetPresignTTL    timex.Duration `json:"get_presign_ttl"`
	StorageTimeout   timex.Duration `json:"storage_timeout"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	NotifyQueueURL   string         `json:"notify_queue_url"`
	RedisAddr        string         `json:"redis_addr"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c/-config command-line
// flags; if neither is set, no JSON file is loaded. Zero-valued fields in the
// file leave the current Config value untouched. An unreadable or invalid
// file panics: a half-applied config file must never start the server.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	applyString(&config.DatabaseDSN, c.DatabaseDSN)
	applyString(&config.SecretKey, c.SecretKey)
	applyString(&config.S3AccessKey, c.S3AccessKey)
	applyString(&config.S3SecretKey, c.S3SecretKey)
	applyString(&config.S3Bucket, c.S3Bucket)
	applyString(&config.S3Region, c.S3Region)
	applyString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	applyString(&config.NotifyQueueURL, c.NotifyQueueURL)
	applyString(&config.RedisAddr, c.RedisAddr)

	if c.PartSizeBytes > 0 {
		config.PartSizeBytes = c.PartSizeBytes
	}
	applyDuration(&config.PartPresignTTL, c.PartPresignTTL)
	applyDuration(&config.GetPresignTTL, c.GetPresignTTL)
	applyDuration(&config.StorageTimeout, c.StorageTimeout)
	applyDuration(&config.SessionTTL, c.SessionTTL)
}

func applyString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
