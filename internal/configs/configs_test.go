package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "GATEWAY_PORT", "ALLOWED_ORIGINS", "MOTD_FILE", "DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 8080, cfg.GatewayPort)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.MOTDFile)
	assert.NotEmpty(t, cfg.DatabaseDSN)
}

func TestLoadConfig_ExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "5000")
	t.Setenv("GATEWAY_PORT", "5001")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("MOTD_FILE", "/etc/shogid/motd.txt")
	t.Setenv("DATABASE_URL", "postgres://shogid:pw@db:5432/shogid")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 5001, cfg.GatewayPort)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "/etc/shogid/motd.txt", cfg.MOTDFile)
	assert.Equal(t, "postgres://shogid:pw@db:5432/shogid", cfg.DatabaseDSN)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "non-numeric port",
			env:  map[string]string{"PORT": "not-a-port"},
		},
		{
			name: "privileged port",
			env:  map[string]string{"PORT": "80"},
		},
		{
			name: "gateway port out of range",
			env:  map[string]string{"GATEWAY_PORT": "70000"},
		},
		{
			name: "port collision",
			env:  map[string]string{"PORT": "5000", "GATEWAY_PORT": "5000"},
		},
		{
			name: "production without database url",
			env:  map[string]string{"ENVIRONMENT": "production"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
