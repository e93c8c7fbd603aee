package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithPath_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=engine-test\n"), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)

	assert.Equal(t, "engine-test", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "America/Santo_Domingo", cfg.Engine.Timezone)
	assert.Equal(t, 90*time.Minute, cfg.Engine.TravelBuffer)
	assert.Equal(t, 15*time.Minute, cfg.Engine.StartWindowBefore)
	assert.Equal(t, 60*time.Minute, cfg.Engine.StartWindowAfter)
	assert.Equal(t, 2*time.Minute, cfg.Engine.MinDurationBeforeDone)
	assert.False(t, cfg.Engine.EnforceHourBounds)
	assert.Equal(t, "DOP", cfg.Engine.DefaultCurrency)
	assert.Equal(t, "log", cfg.Notifier.Driver)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Outbox.Embedded)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadWithPath_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "ENGINE_TRAVEL_BUFFER=45m\nENGINE_ENFORCE_HOUR_BOUNDS=true\nKAFKA_BROKERS=a:9092, b:9092\nNOTIFIER_DRIVER=KAFKA\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Engine.TravelBuffer)
	assert.True(t, cfg.Engine.EnforceHourBounds)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "kafka", cfg.Notifier.Driver)
}

func TestLoadWithPath_MissingFile(t *testing.T) {
	_, err := LoadWithPath(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Name: "engine"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "postgres"},
			Engine:   EngineConfig{Timezone: "UTC", TravelBuffer: 90 * time.Minute},
			Notifier: NotifierConfig{Driver: "log"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, true},
		{"negative buffer", func(c *Config) { c.Engine.TravelBuffer = -time.Minute }, true},
		{"unknown driver", func(c *Config) { c.Notifier.Driver = "carrier-pigeon" }, true},
		{"memory store", func(c *Config) { c.Database.Driver = "memory" }, false},
		{"unknown store", func(c *Config) { c.Database.Driver = "sqlite" }, true},
		{"pubnub without keys", func(c *Config) { c.Notifier.Driver = "pubnub" }, true},
		{"pubnub with keys", func(c *Config) {
			c.Notifier.Driver = "pubnub"
			c.PubNub.PublishKey = "pub"
			c.PubNub.SubscribeKey = "sub"
		}, false},
		{"kafka without brokers", func(c *Config) { c.Notifier.Driver = "kafka" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "mussikon", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=mussikon sslmode=disable", d.DSN())
}

func TestLocation(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Timezone: "bogus"}}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Engine.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}
