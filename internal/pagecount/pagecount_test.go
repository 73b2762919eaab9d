package pagecount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	n, err := parseCount("10\n")
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// banner noise before the number is tolerated
	n, err = parseCount("GPL Ghostscript 10.02.1\n42\n")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestParseCountRejectsGarbage(t *testing.T) {
	_, err := parseCount("")
	assert.Error(t, err)

	_, err = parseCount("not a number")
	assert.Error(t, err)

	_, err = parseCount("-3")
	assert.Error(t, err)
}
