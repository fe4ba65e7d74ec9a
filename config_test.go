package inglesh

import (
	"testing"
	"time"

	"github.com/devlitus/lesson-inglesh/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestConfigAccessors(t *testing.T) {
	swapConfig(t, map[string]interface{}{
		"test.string":   "hello",
		"test.int":      42,
		"test.bool":     true,
		"test.duration": "90s",
		"test.strings":  []string{"a", "b"},
		"test.map":      map[string]string{"k": "v"},
	})

	assert.Equal(t, "hello", ConfigString("test.string"))
	assert.Equal(t, 42, ConfigInt("test.int"))
	assert.Equal(t, int64(42), ConfigInt64("test.int"))
	assert.True(t, ConfigBool("test.bool"))
	assert.Equal(t, 90*time.Second, ConfigDuration("test.duration"))
	assert.Equal(t, []string{"a", "b"}, ConfigStrings("test.strings"))
	assert.Equal(t, map[string]string{"k": "v"}, ConfigStringMap("test.map"))
	assert.True(t, ConfigExists("test.string"))
	assert.False(t, ConfigExists("test.missing"))
}

func TestLoadConfigDefaults(t *testing.T) {
	swapConfig(t, map[string]interface{}{
		"app.existing": "set",
	})

	LoadConfigDefaults(map[string]interface{}{
		"app.extra": "default",
	})

	assert.Equal(t, "set", ConfigString("app.existing"))
	assert.Equal(t, "default", ConfigString("app.extra"))
}

func TestCoreConfigDefaults(t *testing.T) {
	// Core keys are registered in init(); defaults flow through the registry.
	info, ok := config.LookupConfigKey("name")
	assert.True(t, ok)
	assert.Equal(t, "Inglesh", info.Default)

	info, ok = config.LookupConfigKey("dataDir")
	assert.True(t, ok)
	assert.Equal(t, ".inglesh", info.Default)
}
