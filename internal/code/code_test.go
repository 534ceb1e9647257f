package code

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		c, err := Generate()
		require.NoError(t, err)
		assert.Len(t, c, Length)
		for _, r := range c {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected character %q in code %q", r, c)
		}
	}
}

func TestGenerateNoAmbiguousCharacters(t *testing.T) {
	for _, banned := range []string{"0", "O", "1", "I"} {
		assert.NotContains(t, Alphabet, banned)
	}
	assert.GreaterOrEqual(t, len(Alphabet), 32)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC234", Normalize("abc234"))
	assert.Equal(t, "ABC234", Normalize("  AbC234 "))
}
