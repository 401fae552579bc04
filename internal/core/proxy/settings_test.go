package proxy

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_HasProxy(t *testing.T) {
	assert.False(t, Settings{}.HasProxy())
	assert.False(t, Settings{Enabled: true, Hostname: "proxy.internal"}.HasProxy())
	assert.False(t, Settings{Hostname: "proxy.internal", Port: 3128}.HasProxy())
	assert.True(t, Settings{Enabled: true, Hostname: "proxy.internal", Port: 3128}.HasProxy())
}

func TestSettings_URL(t *testing.T) {
	s := Settings{Enabled: true, Hostname: "proxy.internal", Port: 3128, Username: "user", Password: "p@ss"}

	u := s.URL()
	require.NotNil(t, u)
	assert.Equal(t, "proxy.internal:3128", u.Host)
	pass, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss", pass)

	assert.Equal(t, "http://proxy.internal:3128", s.HostPort())
	assert.NotContains(t, s.HostPort(), "p@ss")

	assert.Nil(t, Settings{}.URL())
	assert.Empty(t, Settings{}.HostPort())
}

func TestSettings_Func(t *testing.T) {
	s := Settings{Enabled: true, Hostname: "proxy.internal", Port: 3128}
	req := httptest.NewRequest("GET", "https://api.ship24.com/public/v1/trackers", nil)

	u, err := s.Func()(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", u.Host)
}
