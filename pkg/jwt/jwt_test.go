package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner("da02e221bc331c9875c5e1299fa8d765", time.Hour)

	token, err := s.Sign("admin")
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = NewSigner("another secret", time.Hour).Parse(token)
	assert.Error(t, err)

	_, err = s.Parse("not.a.token")
	assert.Error(t, err)
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.Sign("admin")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Parse(token)
	assert.Error(t, err)
}
