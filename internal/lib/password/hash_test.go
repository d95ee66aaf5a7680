package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "short password", password: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetHash(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, gotHash)

			assert.NoError(t, CompareHash(gotHash, tt.password))
		})
	}
}

func TestCompareHash_WrongPassword(t *testing.T) {
	hash, err := GetHash("correct_password")
	require.NoError(t, err)

	assert.Error(t, CompareHash(hash, "wrong_password"))
	assert.Error(t, CompareHash("not-a-bcrypt-hash", "correct_password"))
}
