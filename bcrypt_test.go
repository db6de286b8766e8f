package auth_test

import (
	"strings"
	"testing"

	"github.com/mikempala/social-rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testHasher = auth.BcryptHasher{Cost: bcrypt.MinCost}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := testHasher.HashPassword(tt.password)

			if tt.wantErr {
				assert.True(t, auth.IsError(err, auth.ErrNoEmptyString))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = testHasher.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPasswordLengthLimit(t *testing.T) {
	_, err := testHasher.HashPassword(strings.Repeat("a", auth.MaxPasswordBytes+1))
	assert.True(t, auth.IsError(err, auth.ErrPasswordTooLong))
	assert.True(t, auth.IsValidation(err))

	hash, err := testHasher.HashPassword(strings.Repeat("a", auth.MaxPasswordBytes))
	require.NoError(t, err)
	assert.NoError(t, testHasher.ComparePasswordAndHash(strings.Repeat("a", auth.MaxPasswordBytes), hash))
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	h1, err := testHasher.HashPassword("same-password")
	require.NoError(t, err)
	h2, err := testHasher.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHashPasswordDefaultCost(t *testing.T) {
	if testing.Short() {
		t.Skip("default cost hashing is slow")
	}

	hash, err := auth.HashPassword("securePassword123!")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, bcrypt.DefaultCost)
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := testHasher.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  auth.ErrMismatchedHashAndPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testHasher.ComparePasswordAndHash(tt.password, tt.hash)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("Invalid hash", func(t *testing.T) {
		err := testHasher.ComparePasswordAndHash(password, "invalidhash")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	hash1, err := auth.RandomPasswordHash(testHasher)
	require.NoError(t, err)
	hash2, err := auth.RandomPasswordHash(testHasher)
	require.NoError(t, err)

	assert.NotEmpty(t, hash1)
	assert.NotEqual(t, hash1, hash2)
}
