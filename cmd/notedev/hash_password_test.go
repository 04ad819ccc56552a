package main

import (
	"bytes"
	"strings"
	"testing"

	"notedev-server/pkg/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := runRoot(t, "", "hash-password", "AdminPassword123!")
	require.NoError(t, err)

	hashed := strings.TrimSpace(out)
	assert.True(t, hash.IsHash(hashed))
	assert.NoError(t, hash.Compare(hashed, "AdminPassword123!"))
}

func TestHashPassword_Stdin(t *testing.T) {
	out, err := runRoot(t, "AdminPassword123!\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, hash.Compare(strings.TrimSpace(out), "AdminPassword123!"))
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := runRoot(t, "", "hash-password", "short")
	assert.ErrorIs(t, err, hash.ErrPasswordTooShort)
}
