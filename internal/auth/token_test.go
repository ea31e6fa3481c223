package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/contact-keeper/internal/apperr"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestGenerateAndVerify_Success(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("super-secret", "contact-keeper", time.Hour)

	tok, err := tm.Generate("user-123")
	require.NoError(t, err)

	userID, err := tm.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerify_Missing(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "contact-keeper", time.Hour)
	_, err := tm.Verify("   ")
	assert.Equal(t, apperr.KindTokenMissing, apperr.KindOf(err))
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", "contact-keeper", time.Hour).WithClock(fixedClock(issuedAt))

	tok, err := tm.Generate("u1")
	require.NoError(t, err)

	later := tm.WithClock(fixedClock(issuedAt.Add(time.Hour + time.Second)))
	_, err = later.Verify(tok)
	assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(err))

	justBefore := tm.WithClock(fixedClock(issuedAt.Add(59 * time.Minute)))
	userID, err := justBefore.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager("right-secret", "contact-keeper", time.Hour).Generate("u2")
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret", "contact-keeper", time.Hour).Verify(tok)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager("secret", "someone-else", time.Hour).Generate("u2")
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "contact-keeper", time.Hour).Verify(tok)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestVerify_AnyAlteredSignatureByteFails(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "contact-keeper", time.Hour)
	tok, err := tm.Generate("u3")
	require.NoError(t, err)

	dot := strings.LastIndex(tok, ".")
	sig, err := base64.RawURLEncoding.DecodeString(tok[dot+1:])
	require.NoError(t, err)

	for i := range sig {
		tampered := append([]byte(nil), sig...)
		tampered[i] ^= 0x01
		_, err := tm.Verify(tok[:dot+1] + base64.RawURLEncoding.EncodeToString(tampered))
		require.Errorf(t, err, "tampered byte %d accepted", i)
		assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
	}
}

func TestVerify_AlteredPayloadFails(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "contact-keeper", time.Hour)
	tokA, err := tm.Generate("user-a")
	require.NoError(t, err)
	tokB, err := tm.Generate("user-b")
	require.NoError(t, err)

	partsA := strings.Split(tokA, ".")
	partsB := strings.Split(tokB, ".")
	spliced := partsA[0] + "." + partsB[1] + "." + partsA[2]

	_, err = tm.Verify(spliced)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := jwt.RegisteredClaims{
		Issuer:    "contact-keeper",
		Subject:   "u4",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "contact-keeper", time.Hour).Verify(tok)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("k", "contact-keeper", time.Hour).Verify("not.a.jwt")
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}
