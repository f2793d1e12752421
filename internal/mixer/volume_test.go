package mixer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleClampsBothInputsAndRounds(t *testing.T) {
	require.Equal(t, 50, scale(50, 100))
	require.Equal(t, 100, scale(150, 100))
	require.Equal(t, 0, scale(-10, 100))
	require.Equal(t, 25, scale(50, 50))
	require.Equal(t, 38, scale(75, 50)) // 37.5 rounds up
}

func TestClampPctBounds(t *testing.T) {
	require.Equal(t, 0.0, clampPct(-5))
	require.Equal(t, 100.0, clampPct(500))
	require.Equal(t, 42.0, clampPct(42))
}

func TestClamp01Bounds(t *testing.T) {
	require.Equal(t, 0.0, clamp01(-1))
	require.Equal(t, 1.0, clamp01(1.5))
	require.Equal(t, 0.25, clamp01(0.25))
}
