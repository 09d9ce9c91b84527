package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/videoreview/videoreview_server/internal/auth"
	"github.com/videoreview/videoreview_server/internal/integrations"
	"github.com/videoreview/videoreview_server/internal/storage"
	"github.com/videoreview/videoreview_server/internal/upload"
)

type Config struct {
	ListenAddr     string                   `mapstructure:"listen_addr"`
	AllowedOrigins []string                 `mapstructure:"allowed_origins"`
	Auth           auth.Config              `mapstructure:"auth"`
	Storage        StorageConfig            `mapstructure:"storage"`
	Upload         upload.Config            `mapstructure:"upload"`
	Slack          integrations.SlackConfig `mapstructure:"slack"`
	Jira           integrations.JiraConfig  `mapstructure:"jira"`
}

type StorageConfig struct {
	Backend           string `mapstructure:"backend"`
	UploadsDir        string `mapstructure:"uploads_dir"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3Bucket          string `mapstructure:"s3_bucket"`
	S3Region          string `mapstructure:"s3_region"`
	S3AccessKey       string `mapstructure:"s3_access_key"`
	S3SecretKey       string `mapstructure:"s3_secret_key"`
	S3UseSSL          bool   `mapstructure:"s3_use_ssl"`
	NextCloudBaseURL  string `mapstructure:"nextcloud_base_url"`
	NextCloudUsername string `mapstructure:"nextcloud_username"`
	NextCloudPassword string `mapstructure:"nextcloud_password"`
	NextCloudRootDir  string `mapstructure:"nextcloud_root_dir"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile("files/config.yaml")

	// Environment variables override the file, so deployments can switch
	// the storage backend without editing config.yaml.
	viper.SetEnvPrefix("VIDEO_REVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.uploads_dir", "uploads")
	viper.SetDefault("storage.nextcloud_root_dir", "video-review")
	viper.SetDefault("upload.session_ttl_hours", 24)
	viper.SetDefault("auth.jwt_expiration_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// BackendConfig maps the flat storage section onto the backend constructor's
// view of it. The selection happens once at startup; nothing reads the
// environment after this point.
func (c *Config) BackendConfig() *storage.BackendConfig {
	return &storage.BackendConfig{
		Type:              storage.BackendType(c.Storage.Backend),
		UploadsDir:        c.Storage.UploadsDir,
		S3Endpoint:        c.Storage.S3Endpoint,
		S3Bucket:          c.Storage.S3Bucket,
		S3Region:          c.Storage.S3Region,
		S3AccessKey:       c.Storage.S3AccessKey,
		S3SecretKey:       c.Storage.S3SecretKey,
		S3UseSSL:          c.Storage.S3UseSSL,
		NextCloudBaseURL:  c.Storage.NextCloudBaseURL,
		NextCloudUsername: c.Storage.NextCloudUsername,
		NextCloudPassword: c.Storage.NextCloudPassword,
		NextCloudRootDir:  c.Storage.NextCloudRootDir,
	}
}
