package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_GetStringWithDefault(t *testing.T) {
	manager := NewConfigManager()
	t.Setenv("LINENOISE_TEST_KEY", "test_value")

	assert.Equal(t, "test_value", manager.GetStringWithDefault("LINENOISE_TEST_KEY", "default_value"))
	assert.Equal(t, "default_value", manager.GetStringWithDefault("LINENOISE_NON_EXISTENT_KEY", "default_value"))
}

func TestManager_GetIntWithDefault(t *testing.T) {
	manager := NewConfigManager()

	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "42", 42},
		{"negative", "-3", -3},
		{"invalid", "forty", 7},
		{"missing", "", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINENOISE_TEST_INT", tt.value)
			assert.Equal(t, tt.want, manager.GetIntWithDefault("LINENOISE_TEST_INT", 7))
		})
	}

	t.Setenv("LINENOISE_TEST_INT", "x")
	_, err := manager.GetInt("LINENOISE_TEST_INT")
	assert.ErrorContains(t, err, "invalid integer value")
}

func TestManager_GetBoolWithDefault(t *testing.T) {
	manager := NewConfigManager()

	tests := []struct {
		name     string
		value    string
		fallback bool
		want     bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"numeric", "1", false, true},
		{"missing", "", true, true},
		{"invalid", "not-a-bool", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINENOISE_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, manager.GetBoolWithDefault("LINENOISE_TEST_BOOL", tt.fallback))
		})
	}
}

func TestManager_GetDurationWithDefault(t *testing.T) {
	manager := NewConfigManager()

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"milliseconds", "25ms", 25 * time.Millisecond},
		{"seconds", "2s", 2 * time.Second},
		{"bare number", "25", time.Second},
		{"negative", "-5ms", time.Second},
		{"missing", "", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINENOISE_TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, manager.GetDurationWithDefault("LINENOISE_TEST_DURATION", time.Second))
		})
	}
}
