package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_GetAbsentKey(t *testing.T) {
	s := NewMemStore()

	_, ok, err := s.Get(context.Background(), "pan")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStore_TypedRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	tests := []struct {
		key string
		v   Value
	}{
		{"sentry_mode", Bool(true)},
		{"pan", Int(45)},
		{"tilt", Int(-45)},
		{"last_motion_duration_s", Float(1.25)},
		{"last_capture", String("a1b2.png")},
	}

	for _, tt := range tests {
		require.NoError(t, s.Set(ctx, tt.key, tt.v))
	}

	for _, tt := range tests {
		got, ok, err := s.Get(ctx, tt.key)
		require.NoError(t, err)
		require.True(t, ok, "key %s", tt.key)
		assert.Equal(t, tt.v, got, "key %s", tt.key)
	}
}

func TestMemStore_LastWriterWins(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "pan", Int(10)))
	require.NoError(t, s.Set(ctx, "pan", Int(-30)))

	got, ok, err := s.Get(ctx, "pan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Int(-30), got)
}

func TestMemStore_WholeFloatSurvivesCodec(t *testing.T) {
	// A whole float must not degrade to an int through the text codec.
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "last_motion_duration_s", Float(2)))

	got, ok, err := s.Get(ctx, "last_motion_duration_s")
	require.NoError(t, err)
	require.True(t, ok)

	f, isFloat := got.AsFloat()
	require.True(t, isFloat)
	assert.Equal(t, 2.0, f)
}

func TestMemStore_Close(t *testing.T) {
	s := NewMemStore()
	assert.NoError(t, s.Close())
}
