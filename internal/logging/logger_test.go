package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestInitLogger(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("logging.level", "warn")
	logger, err := InitLogger(config.NewFromViper(v))
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInitFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fraudguard.log")
	logger, err := InitFileLogger(path, true, true)
	require.NoError(t, err)

	logger.Debug("written to file", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to file"`)
}

func TestToken_Redacted(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(obs)

	jwtToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a"}).SignedString([]byte("k"))
	require.NoError(t, err)

	logger.Info("jwt", Token(jwtToken))
	logger.Info("opaque", Token("0123456789abcdef"))
	logger.Info("short", Token("abc"))

	entries := logs.All()
	require.Len(t, entries, 3)

	fields := entries[0].ContextMap()["token"].(map[string]any)
	assert.Equal(t, "jwt", fields["format"])
	assert.Equal(t, int64(len(jwtToken)), fields["length"])
	assert.Equal(t, jwtToken[:6]+"...", fields["prefix"])

	fields = entries[1].ContextMap()["token"].(map[string]any)
	assert.Equal(t, "opaque", fields["format"])
	assert.Equal(t, "012345...", fields["prefix"])

	fields = entries[2].ContextMap()["token"].(map[string]any)
	assert.NotContains(t, fields, "prefix")
	assert.NotContains(t, fields, "value")
}
