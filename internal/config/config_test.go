package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	for _, key := range []string{
		"APP_PORT", "LOG_LEVEL", "MONGODB_DB_NAME", "MONGODB_TIMEOUT", "TIMEZONE",
		"REPORT_CRON_SCHEDULE", "GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
		"STATS_SHEET_RANGE", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "OWNER_PHONE",
		"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_UPLOAD_PRESET",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "rentledger", cfg.MongoDB.DBName)
	assert.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	assert.Equal(t, "Africa/Conakry", cfg.Reporting.Timezone)
	assert.Equal(t, "0 8 1 * *", cfg.Reporting.CronSchedule)
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Cloudinary.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	setBaseEnv(t)
	os.Unsetenv("MONGODB_URI")
	os.Unsetenv("APP_PORT")

	path := filepath.Join(t.TempDir(), ".env")
	content := "MONGODB_URI=mongodb://db:27017\nAPP_PORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoDB.URI)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"missing mongo uri", map[string]string{"MONGODB_URI": ""}, "MONGODB_URI"},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"bad cron", map[string]string{"REPORT_CRON_SCHEDULE": "every day"}, "REPORT_CRON_SCHEDULE"},
		{"bad timeout", map[string]string{"MONGODB_TIMEOUT": "soon"}, "MONGODB_TIMEOUT"},
		{"half sheets config", map[string]string{"GOOGLE_SHEET_DATABASE_ID": "sheet"}, "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"whatsapp without owner", map[string]string{"WHATSAPP_TOKEN": "t", "WHATSAPP_PHONE_NUMBER_ID": "p"}, "OWNER_PHONE"},
		{"cloudinary without preset", map[string]string{"CLOUDINARY_CLOUD_NAME": "demo"}, "CLOUDINARY_UPLOAD_PRESET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestOptionalIntegrationsEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/secrets/sa.json")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "sheet-id")
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")
	t.Setenv("OWNER_PHONE", "224620000000")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_UPLOAD_PRESET", "unsigned")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, cfg.Sheets.Enabled())
	assert.Equal(t, "Statistics!A:J", cfg.Sheets.StatsRange)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.True(t, cfg.Cloudinary.Enabled())
	assert.Equal(t, "receipts", cfg.Cloudinary.Folder)
}
