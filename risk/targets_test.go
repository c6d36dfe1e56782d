package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPlannedRisk(t *testing.T) {
	t.Parallel()

	assert.True(t, d("50").Equal(PlannedRisk(d("10"), d("100"), d("95"))))
	assert.True(t, d("50").Equal(PlannedRisk(d("10"), d("100"), d("105"))))
}

func TestRR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		entry, stop, take string
		want              string
	}{
		{"long_two_to_one", "100", "95", "110", "2"},
		{"short_three_to_one", "100", "102", "94", "3"},
		{"zero_risk", "100", "100", "110", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RR(d(tt.entry), d(tt.stop), d(tt.take))
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestTargetFromPercent(t *testing.T) {
	t.Parallel()

	assert.True(t, d("105").Equal(TargetFromPercent(d("100"), d("5"), true)))
	assert.True(t, d("95").Equal(TargetFromPercent(d("100"), d("5"), false)))
	assert.True(t, d("50750").Equal(TargetFromPercent(d("50000"), d("1.5"), true)))
}

func TestTargetFromRatio(t *testing.T) {
	t.Parallel()

	assert.True(t, d("110").Equal(TargetFromRatio(d("100"), d("95"), d("2"), true)))
	assert.True(t, d("90").Equal(TargetFromRatio(d("100"), d("105"), d("2"), false)))
}
