package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with nil values", func(t *testing.T) {
		config := NewConfig(nil)
		require.NotNil(t, config)
		assert.Len(t, config.Keys(), 0)
	})

	t.Run("with values", func(t *testing.T) {
		values := map[string]string{
			"MONGO_URI": "mongodb://localhost:27017",
			"MONGO_DB":  "sessions",
		}
		config := NewConfig(values)

		assert.Equal(t, "mongodb://localhost:27017", config.Get("MONGO_URI"))
		assert.Equal(t, "sessions", config.Get("MONGO_DB"))

		// Verify it's a copy, not a reference
		values["MONGO_DB"] = "modified"
		assert.Equal(t, "sessions", config.Get("MONGO_DB"))
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	envContent := "TEST_MONGO_DB=traces\n"
	tmpFile, err := os.CreateTemp("", "test_env_*.env")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(envContent)
	require.NoError(t, err)
	tmpFile.Close()

	config := NewConfigFromEnv(tmpFile.Name())

	require.NotNil(t, config)
	assert.Equal(t, "traces", config.Get("TEST_MONGO_DB"))
}

func TestConfigGetWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"OPENAI_MODEL": "gpt-4o",
		"empty":        "",
	})

	t.Run("existing key", func(t *testing.T) {
		assert.Equal(t, "gpt-4o", config.GetWithDefault("OPENAI_MODEL", "gpt-4o-mini"))
	})

	t.Run("non-existing key", func(t *testing.T) {
		assert.Equal(t, "gpt-4o-mini", config.GetWithDefault("missing", "gpt-4o-mini"))
	})

	t.Run("empty value key", func(t *testing.T) {
		assert.Equal(t, "gpt-4o-mini", config.GetWithDefault("empty", "gpt-4o-mini"))
	})
}

func TestConfigGetBool(t *testing.T) {
	config := NewConfig(map[string]string{
		"true_bool":    "true",
		"false_bool":   "false",
		"true_1":       "1",
		"false_0":      "0",
		"true_yes":     "yes",
		"true_enabled": "enabled",
		"invalid":      "invalid_bool",
	})

	tests := []struct {
		key      string
		expected bool
	}{
		{"true_bool", true},
		{"false_bool", false},
		{"true_1", true},
		{"false_0", false},
		{"true_yes", true},
		{"true_enabled", true},
		{"invalid", false},
		{"missing", false},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			assert.Equal(t, test.expected, config.GetBool(test.key), "GetBool(%s)", test.key)
		})
	}
}

func TestConfigGetBoolWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"FALLBACK_SCAN_ENABLED": "false",
	})

	assert.False(t, config.GetBoolWithDefault("FALLBACK_SCAN_ENABLED", true))
	assert.True(t, config.GetBoolWithDefault("missing", true))
	assert.False(t, config.GetBoolWithDefault("missing", false))
}

func TestConfigGetInt(t *testing.T) {
	config := NewConfig(map[string]string{
		"valid_int":   "42",
		"negative":    "-10",
		"invalid_int": "not_a_number",
	})

	tests := []struct {
		key      string
		expected int
	}{
		{"valid_int", 42},
		{"negative", -10},
		{"invalid_int", 0},
		{"missing", 0},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			assert.Equal(t, test.expected, config.GetInt(test.key), "GetInt(%s)", test.key)
		})
	}
}

func TestConfigGetIntWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"FALLBACK_SCAN_LIMIT": "250",
	})

	assert.Equal(t, 250, config.GetIntWithDefault("FALLBACK_SCAN_LIMIT", 1000))
	assert.Equal(t, 1000, config.GetIntWithDefault("missing", 1000))
}

func TestConfigGetList(t *testing.T) {
	config := NewConfig(map[string]string{
		"SESSION_ID_FIELDS": "sessionId, session_id ,,metadata.id",
		"empty":             "",
		"only_commas":       ", ,",
	})

	t.Run("splits and trims entries", func(t *testing.T) {
		got := config.GetList("SESSION_ID_FIELDS")
		assert.Equal(t, []string{"sessionId", "session_id", "metadata.id"}, got)
	})

	t.Run("empty value", func(t *testing.T) {
		assert.Nil(t, config.GetList("empty"))
	})

	t.Run("only separators", func(t *testing.T) {
		assert.Nil(t, config.GetList("only_commas"))
	})

	t.Run("with default", func(t *testing.T) {
		fallback := []string{"sessionId", "session_id"}
		assert.Equal(t, fallback, config.GetListWithDefault("missing", fallback))
		assert.Equal(t, fallback, config.GetListWithDefault("only_commas", fallback))
	})
}

func TestConfigSetAndHas(t *testing.T) {
	config := NewConfig(map[string]string{})

	assert.False(t, config.Has("API_PORT"))

	config.Set("API_PORT", "9090")

	assert.True(t, config.Has("API_PORT"))
	assert.Equal(t, "9090", config.Get("API_PORT"))
}
