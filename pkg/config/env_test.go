package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 , ,b:9092"))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "12")
	t.Setenv("X_BAD_INT", "twelve")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_FLOAT", "2.5")

	assert.Equal(t, 12, EnvIntDefault("X_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("X_BAD_INT", 1))
	assert.Equal(t, 3, EnvIntDefault("X_UNSET", 3))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("X_DUR", time.Second))
	assert.True(t, EnvBoolDefault("X_BOOL", false))
	assert.Equal(t, 2.5, EnvFloatDefault("X_FLOAT", 0))
	assert.Equal(t, "def", EnvDefault("X_UNSET", "def"))
}

func TestMissingError(t *testing.T) {
	require.NoError(t, MissingError(nil))

	var missing []string
	missing = MustNonEmpty(missing, "", "DATABASE_URL")
	missing = MustNonEmpty(missing, "set", "JWT_SECRET")
	err := MissingError(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.NotContains(t, err.Error(), "JWT_SECRET")
}
