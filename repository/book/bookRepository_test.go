package bookrepo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAvailableAfter(t *testing.T) {
	tests := []struct {
		name        string
		totalCopies int64
		openLoans   int64
		want        int64
	}{
		{name: "no open loans", totalCopies: 4, openLoans: 0, want: 4},
		{name: "some lent out", totalCopies: 4, openLoans: 3, want: 1},
		{name: "all lent out", totalCopies: 3, openLoans: 3, want: 0},
		{name: "zero copies zero loans", totalCopies: 0, openLoans: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := availableAfter(tt.totalCopies, tt.openLoans)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableAfter_RejectsTotalBelowOutstanding(t *testing.T) {
	_, err := availableAfter(2, 3)
	require.Error(t, err)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	require.Equal(t, int64(3), capErr.Outstanding)
}
