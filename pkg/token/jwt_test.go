package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	signed, err := m.Issue(42)
	assert.NoError(t, err)
	assert.NotEmpty(t, signed)

	userID, err := m.Verify(signed)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := NewManager("secret-a", time.Hour).Issue(42)
	assert.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	signed, err := m.Issue(42)
	assert.NoError(t, err)

	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
