package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAgeOn(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 35, AgeOn(birth, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 34, AgeOn(birth, time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 34, AgeOn(birth, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 35, AgeOn(birth, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
}
