package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerSignAndVerify(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("rep-1", "reports/attendance.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	reportID, path, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "rep-1", reportID)
	require.Equal(t, "reports/attendance.csv", path)
}

func TestSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Sign("rep-1", "reports/attendance.csv")
	require.NoError(t, err)

	_, _, err = signer.Verify(token + "x")
	require.Error(t, err)
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("secret", 10*time.Millisecond)
	token, _, err := signer.Sign("rep-1", "reports/results.pdf")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	_, _, err = signer.Verify(token)
	require.Error(t, err)
}
