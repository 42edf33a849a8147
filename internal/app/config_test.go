package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/app"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.TokenSecret)
	require.True(t, cfg.IsProduction())
}

// envconfig's required tag only fires when the variable is absent; an
// explicitly empty TOKEN_SECRET would otherwise slip through as a blank
// signing key.
func TestLoadConfigRejectsEmptyTokenSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")

	_, err := app.LoadConfig()
	require.EqualError(t, err, "token secret must be provided")
}
