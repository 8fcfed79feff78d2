package config

import (
	"testing"

	"github.com/Unknwon/goconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *Config {
	return &Config{path: "unused", file: goconfig.NewConfigFile()}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c := newTestConfig()
	require.NoError(t, c.Set(KeyAddressBooksLocation, "/etc/actl/books"))

	value, err := c.Get(KeyAddressBooksLocation)
	require.NoError(t, err)
	assert.Equal(t, "/etc/actl/books", value)
}

func TestGetUnsetKeyReturnsEmpty(t *testing.T) {
	c := newTestConfig()
	value, err := c.Get(KeyUseHistoryForPassThrough)
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestGetBoolDefaultsFalse(t *testing.T) {
	c := newTestConfig()
	assert.False(t, c.GetBool(KeyUseHistoryForPassThrough))

	require.NoError(t, c.Set(KeyUseHistoryForPassThrough, "true"))
	assert.True(t, c.GetBool(KeyUseHistoryForPassThrough))
}

func TestGetIntDefaultsWhenUnsetOrUnparseable(t *testing.T) {
	c := newTestConfig()
	assert.Equal(t, -1, c.GetInt(KeyNumberOfReconnectAttempts, -1))

	require.NoError(t, c.Set(KeyNumberOfReconnectAttempts, "7"))
	assert.Equal(t, 7, c.GetInt(KeyNumberOfReconnectAttempts, -1))

	require.NoError(t, c.Set(KeyNumberOfReconnectAttempts, "not-a-number"))
	assert.Equal(t, -1, c.GetInt(KeyNumberOfReconnectAttempts, -1))
}

func TestSetRejectsKeyWithoutSection(t *testing.T) {
	c := newTestConfig()
	err := c.Set("NoSectionHere", "value")
	assert.Error(t, err)
}
