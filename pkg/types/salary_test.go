package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyRate(t *testing.T) {
	tests := []struct {
		name    string
		monthly *float64
		want    *float64
	}{
		{name: "nil propagates", monthly: nil, want: nil},
		{name: "zero", monthly: Float(0), want: Float(0)},
		{name: "whole result", monthly: Float(8000), want: Float(50)},
		{name: "scenario salary", monthly: Float(12000), want: Float(75)},
		{name: "rounds to two decimals", monthly: Float(10001), want: Float(62.51)},
		{name: "non-integer salary", monthly: Float(7654.4), want: Float(47.84)},
		{name: "negative salary", monthly: Float(-8000), want: Float(-50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HourlyRate(tt.monthly)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestApplicationSetMonthlySalary(t *testing.T) {
	var a Application
	a.SetMonthlySalary(Float(8000))
	require.NotNil(t, a.HourlyRate)
	assert.Equal(t, 50.0, *a.HourlyRate)

	a.SetMonthlySalary(nil)
	assert.Nil(t, a.HourlyRate)
}
