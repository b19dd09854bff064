package handler

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCookies(t *testing.T, key byte) *SessionCookies {
	t.Helper()
	c, err := NewSessionCookies(SessionCookieConfig{Key: bytes.Repeat([]byte{key}, 32), TTL: time.Hour})
	require.NoError(t, err)
	return c
}

func TestNewSessionCookies_ShortKey(t *testing.T) {
	_, err := NewSessionCookies(SessionCookieConfig{Key: []byte("short")})
	assert.Error(t, err)
}

func TestSessionCookies_RoundTrip(t *testing.T) {
	c := testCookies(t, 1)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	cookie, err := c.Issue("sid-42")
	require.NoError(t, err)
	assert.Equal(t, "sp_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	sid, issued, err := c.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "sid-42", sid)
	assert.True(t, issued.Equal(now))
	assert.False(t, c.needsRefresh(issued))

	c.now = func() time.Time { return now.Add(31 * time.Minute) }
	assert.True(t, c.needsRefresh(issued))

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, _, err = c.Parse(cookie.Value)
	assert.Error(t, err)
}

func TestSessionCookies_RejectsForeignKey(t *testing.T) {
	cookie, err := testCookies(t, 1).Issue("sid-42")
	require.NoError(t, err)

	_, _, err = testCookies(t, 2).Parse(cookie.Value)
	assert.Error(t, err)
}
