package act_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/gamedata/gamedatatest"
)

func TestResolveLocation(t *testing.T) {
	planets := func(group string) string {
		if group == "base" {
			return "Montem"
		}
		return ""
	}
	tests := []struct {
		name, value, configured, want string
	}{
		{name: "empty", value: "", configured: "ANT", want: ""},
		{name: "literal", value: "Benten Station", want: "Benten Station"},
		{name: "configurable", value: act.ConfigurableValue, configured: "Antares Station", want: "Antares Station"},
		{name: "configurable without answer", value: act.ConfigurableValue, want: ""},
		{name: "group target", value: act.GroupTarget("base"), want: "Montem"},
		{name: "unknown group target", value: act.GroupTarget("other"), want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, act.ResolveLocation(tc.value, tc.configured, planets))
		})
	}
}

func TestDescribeLocation(t *testing.T) {
	assert.Equal(t, "[base] target", act.DescribeLocation(act.GroupTarget("base"), ""))
	assert.Equal(t, "Montem", act.DescribeLocation("Montem", "ignored"))
	assert.Equal(t, "Antares Station", act.DescribeLocation(act.ConfigurableValue, "Antares Station"))
	assert.Equal(t, act.FallbackLocationLabel, act.DescribeLocation(act.ConfigurableValue, ""))
}

func TestPayment(t *testing.T) {
	catalog := gamedatatest.Snapshot()
	// 10 RAT at 0.21t plus 4 unknown units counted as a ton each.
	tonnage := act.TotalTonnage(map[string]int{"RAT": 10, "UNOBTAINIUM": 4}, catalog)
	assert.InDelta(t, 6.1, tonnage, 1e-9)

	assert.Equal(t, 0, act.TotalPayment(tonnage, 0))
	assert.Equal(t, 0, act.TotalPayment(tonnage, -5))
	assert.Equal(t, 610, act.TotalPayment(tonnage, 100))
	assert.Equal(t, 3, act.TotalPayment(2.5, 1), "halves round up")

	assert.Equal(t, 3.0, act.RoundHalfUp(2.5))
	assert.Equal(t, -2.0, act.RoundHalfUp(-2.5))
}
