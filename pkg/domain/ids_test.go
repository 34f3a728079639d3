package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "motormint/pkg/domain-errors"
)

// TestParseIdentityID_Invariants validates the parsing invariant:
// identity ids must be valid, non-empty, non-nil UUIDs.
func TestParseIdentityID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentityID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseIdentityID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseIdentityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseIdentityID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, IdentityID(validUUID), id)
	})
}

func TestParseTokenID(t *testing.T) {
	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseTokenID("")
		require.Error(t, err)
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := ParseTokenID("-1")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := ParseTokenID("42x")
		require.Error(t, err)
	})

	t.Run("accepts decimal", func(t *testing.T) {
		id, err := ParseTokenID("42")
		require.NoError(t, err)
		assert.Equal(t, TokenID(42), id)
	})
}

func TestParseTxHash(t *testing.T) {
	valid := "0x" + "ab12cd34" + "00112233445566778899aabbccddeeff" + "00112233445566778899aabb"

	t.Run("accepts and lowercases valid hash", func(t *testing.T) {
		upper := "0x" + "AB12CD34" + "00112233445566778899AABBCCDDEEFF" + "00112233445566778899AABB"
		h, err := ParseTxHash(upper)
		require.NoError(t, err)
		assert.Equal(t, TxHash(valid), h)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		h, err := ParseTxHash("  " + valid + "\n")
		require.NoError(t, err)
		assert.Equal(t, TxHash(valid), h)
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseTxHash(valid[2:])
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseTxHash("0xabc")
		require.Error(t, err)
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseTxHash(valid[:64] + "zz")
		require.Error(t, err)
	})
}
