package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUserOverridesDefault(t *testing.T) {
	s := NewSettings(map[string]any{KeyResolution: 250})
	n, err := s.Int(KeyResolution)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	s := NewSettings(nil)
	n, err := s.Int(KeyResolution)
	require.NoError(t, err)
	assert.Equal(t, 300, n)
}

func TestResolveUnknownKey(t *testing.T) {
	s := NewSettings(nil)
	_, err := s.Resolve("unknownKey")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBoolFalseDistinctFromAbsent(t *testing.T) {
	s := NewSettings(map[string]any{KeyDisableAnnotations: false})

	b, err := s.Bool(KeyDisableAnnotations)
	require.NoError(t, err)
	assert.False(t, b)

	_, err = s.Bool("someOtherToggle")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestUserLayerDoesNotLeakAcrossInstances(t *testing.T) {
	first := NewSettings(map[string]any{KeyResolution: 72})
	first.Set(KeyBatchSize, 50)

	second := NewSettings(nil)
	n, err := second.Int(KeyResolution)
	require.NoError(t, err)
	assert.Equal(t, 300, n)
	n, err = second.Int(KeyBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTypedAccessorsRejectWrongTypes(t *testing.T) {
	s := NewSettings(map[string]any{KeyResolution: "high"})
	_, err := s.Int(KeyResolution)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
}
