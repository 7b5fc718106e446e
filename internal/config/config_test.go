package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		yamlContent string
		wantConfig  *Config
		wantErr     string
	}{
		{
			name: "s3_storage",
			yamlContent: `dataDir: /var/lib/kurum
pollInterval: 30s
storage:
  type: s3
  s3:
    bucket: saves
    region: eu-west-1
    prefix: alice`,
			wantConfig: &Config{
				DataDir:      "/var/lib/kurum",
				PollInterval: "30s",
				Storage: &StorageConfig{
					Type: StorageTypeS3,
					S3: &S3Config{
						Bucket: "saves",
						Region: "eu-west-1",
						Prefix: "alice",
					},
				},
			},
		},
		{
			name: "local_storage_with_status_server",
			yamlContent: `storage:
  type: local
  local:
    root: /mnt/nas/kurum
statusServer:
  enabled: true
  address: 127.0.0.1:9000`,
			wantConfig: &Config{
				Storage: &StorageConfig{
					Type:  StorageTypeLocal,
					Local: &LocalConfig{Root: "/mnt/nas/kurum"},
				},
				StatusServer: &StatusServerConfig{Enabled: true, Address: "127.0.0.1:9000"},
			},
		},
		{
			name:        "no_storage_is_valid",
			yamlContent: `platform: windows`,
			wantConfig:  &Config{Platform: "windows"},
		},
		{
			name: "minio_missing_bucket",
			yamlContent: `storage:
  type: minio
  minio:
    endpoint: localhost:9000`,
			wantErr: "minio.bucket is required",
		},
		{
			name: "unsupported_storage_type",
			yamlContent: `storage:
  type: dropbox`,
			wantErr: `unsupported type "dropbox"`,
		},
		{
			name: "s3_without_section",
			yamlContent: `storage:
  type: s3`,
			wantErr: "s3 configuration is required",
		},
		{
			name:        "invalid_poll_interval",
			yamlContent: `pollInterval: soon`,
			wantErr:     "pollInterval: invalid duration",
		},
		{
			name:        "negative_poll_interval",
			yamlContent: `pollInterval: -5s`,
			wantErr:     "pollInterval: must be positive",
		},
		{
			name: "invalid_retry_elapsed",
			yamlContent: `storage:
  type: local
  local:
    root: /tmp/x
  retry:
    maxElapsed: forever`,
			wantErr: "retry.maxElapsed",
		},
		{
			name:        "invalid_yaml",
			yamlContent: "storage: [unclosed",
			wantErr:     "failed to parse YAML config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfigFile(t, tt.yamlContent)

			cfg, err := LoadConfig(WithConfigPath(path))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)
		})
	}
}

func TestLoadConfig_PathRequired(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)

	_, err = LoadConfig(WithConfigPath(""))
	require.Error(t, err)

	_, err = LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate symlinks")
}

func TestConfigGetters(t *testing.T) {
	t.Parallel()

	empty := &Config{}
	assert.Equal(t, DefaultDataDir, empty.GetDataDir())
	assert.Equal(t, DefaultPollInterval, empty.GetPollInterval())
	assert.Equal(t, runtime.GOOS, empty.GetPlatform())
	assert.Equal(t, DefaultStatusAddress, empty.GetStatusAddress())
	assert.False(t, empty.StatusServerEnabled())

	cfg := &Config{
		DataDir:      "/data",
		PollInterval: "1m",
		Platform:     "windows",
		StatusServer: &StatusServerConfig{Enabled: true, Address: ":9999"},
	}
	assert.Equal(t, "/data", cfg.GetDataDir())
	assert.Equal(t, time.Minute, cfg.GetPollInterval())
	assert.Equal(t, "windows", cfg.GetPlatform())
	assert.Equal(t, ":9999", cfg.GetStatusAddress())
	assert.True(t, cfg.StatusServerEnabled())

	assert.Equal(t, DefaultPollInterval, (&Config{PollInterval: "bogus"}).GetPollInterval())
}

func TestConfigLayout(t *testing.T) {
	t.Parallel()

	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "sync_configs"), cfg.SyncConfigsDir())
	assert.Equal(t, filepath.Join("/data", "user_settings"), cfg.UserSettingsDir())
	assert.Equal(t, filepath.Join("/data", "last_sync"), cfg.LastSyncDir())
	assert.Equal(t, filepath.Join("/data", "status"), cfg.StatusDir())
	assert.Equal(t, filepath.Join("/data", "temp"), cfg.TempDir())
	assert.Equal(t, filepath.Join("/data", "kurum.lock"), cfg.LockFile())
}

func TestMinioConfig_GetSecretAccessKey(t *testing.T) {
	// Not parallel: manipulates the environment
	secretFile := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(secretFile, []byte("  from-file\n"), 0600))

	fromFile := &MinioConfig{SecretAccessKeyFile: secretFile}
	secret, err := fromFile.GetSecretAccessKey()
	require.NoError(t, err)
	assert.Equal(t, "from-file", secret)

	t.Setenv(minioSecretEnvVar, "from-env")
	secret, err = (&MinioConfig{}).GetSecretAccessKey()
	require.NoError(t, err)
	assert.Equal(t, "from-env", secret)

	t.Setenv(minioSecretEnvVar, "")
	_, err = (&MinioConfig{}).GetSecretAccessKey()
	require.Error(t, err)

	_, err = (&MinioConfig{SecretAccessKeyFile: filepath.Join(t.TempDir(), "nope")}).GetSecretAccessKey()
	require.Error(t, err)

	keyring.MockInit()
	_, err = (&MinioConfig{AccessKeyID: "kurum"}).GetSecretAccessKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyring entry")

	require.NoError(t, keyring.Set(KeyringService, "kurum", "from-keyring"))
	secret, err = (&MinioConfig{AccessKeyID: "kurum"}).GetSecretAccessKey()
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", secret)
}
