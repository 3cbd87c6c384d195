package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("UTILS_TEST_STRING", "value")
	assert.Equal(t, "value", GetEnvString("UTILS_TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnvString("UTILS_TEST_STRING_UNSET", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("UTILS_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("UTILS_TEST_INT", 7))

	t.Setenv("UTILS_TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 7, GetEnvInt("UTILS_TEST_INT_BAD", 7))

	assert.Equal(t, 7, GetEnvInt("UTILS_TEST_INT_UNSET", 7))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("UTILS_TEST_BOOL", "true")
	assert.True(t, GetEnvBool("UTILS_TEST_BOOL", false))

	t.Setenv("UTILS_TEST_BOOL_BAD", "yes please")
	assert.False(t, GetEnvBool("UTILS_TEST_BOOL_BAD", false))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("UTILS_TEST_DURATION", "30")
	assert.Equal(t, 30*time.Second, GetEnvDuration("UTILS_TEST_DURATION", time.Minute))

	t.Setenv("UTILS_TEST_DURATION_NEG", "-5")
	assert.Equal(t, time.Minute, GetEnvDuration("UTILS_TEST_DURATION_NEG", time.Minute))

	assert.Equal(t, time.Minute, GetEnvDuration("UTILS_TEST_DURATION_UNSET", time.Minute))
}

func TestGetEnvPort(t *testing.T) {
	t.Setenv("UTILS_TEST_PORT", "8082")
	assert.Equal(t, 8082, GetEnvPort("UTILS_TEST_PORT", 8080))

	t.Setenv("UTILS_TEST_PORT_HIGH", "70000")
	assert.Equal(t, 8080, GetEnvPort("UTILS_TEST_PORT_HIGH", 8080))

	t.Setenv("UTILS_TEST_PORT_ZERO", "0")
	assert.Equal(t, 8080, GetEnvPort("UTILS_TEST_PORT_ZERO", 8080))
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	assert.True(t, IsProduction())

	t.Setenv("ENVIRONMENT", "development")
	assert.False(t, IsProduction())
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	assert.Len(t, id, 16)
	assert.NotEqual(t, id, GenerateRequestID())
}

func TestGenerateCorrelationID(t *testing.T) {
	id := GenerateCorrelationID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GenerateCorrelationID())
}

func TestGenerateAdaptationID(t *testing.T) {
	id := GenerateAdaptationID()
	assert.Regexp(t, `^adpt_[0-9a-f]{24}$`, id)
}
