package etag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	assert.Equal(t, "v1", Issue(1))
	assert.Equal(t, "v42", Issue(42))
}

func TestDecode(t *testing.T) {
	t.Run("round trips issued tokens", func(t *testing.T) {
		for _, version := range []int64{1, 3, 999999} {
			decoded, err := Decode(Issue(version))
			require.NoError(t, err)
			assert.Equal(t, version, decoded)
		}
	})

	t.Run("accepts HTTP-quoted tokens", func(t *testing.T) {
		decoded, err := Decode(`"v7"`)
		require.NoError(t, err)
		assert.Equal(t, int64(7), decoded)
	})

	t.Run("accepts surrounding whitespace", func(t *testing.T) {
		decoded, err := Decode(" v3 ")
		require.NoError(t, err)
		assert.Equal(t, int64(3), decoded)
	})

	t.Run("rejects tokens this process never issued", func(t *testing.T) {
		for _, token := range []string{"", "3", "version-3", "v", "vabc", "v0", "v-1", "v3.5"} {
			_, err := Decode(token)
			assert.ErrorIs(t, err, ErrInvalid, "token %q", token)
		}
	})
}
