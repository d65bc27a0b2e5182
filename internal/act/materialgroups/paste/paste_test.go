package paste_test

import (
	"context"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/materialgroups/paste"
	"github.com/xkilldash9x/prunact/internal/gamedata/gamedatatest"
)

func TestParseMaterials(t *testing.T) {
	catalog := gamedatatest.Snapshot()

	t.Run("quantities only", func(t *testing.T) {
		r := paste.ParseMaterials("RAT,100\nDW,50", catalog)
		require.NotNil(t, r)
		assert.Equal(t, map[string]int{"RAT": 100, "DW": 50}, r.Materials)
		assert.Nil(t, r.Prices)
	})

	t.Run("tabs and lowercase tickers", func(t *testing.T) {
		r := paste.ParseMaterials("rat\t100\n  dw \t 50  \n", catalog)
		require.NotNil(t, r)
		assert.Equal(t, map[string]int{"RAT": 100, "DW": 50}, r.Materials)
	})

	t.Run("with prices", func(t *testing.T) {
		r := paste.ParseMaterials("RAT,100,12.5\nDW,50,0.123", catalog)
		require.NotNil(t, r)
		assert.Equal(t, map[string]int{"RAT": 100, "DW": 50}, r.Materials)
		assert.Equal(t, map[string]float64{"RAT": 12.5, "DW": 0.123}, r.Prices)
	})

	t.Run("repeated tickers are summed", func(t *testing.T) {
		r := paste.ParseMaterials("RAT,10\nrat,5", catalog)
		require.NotNil(t, r)
		assert.Equal(t, map[string]int{"RAT": 15}, r.Materials)
	})

	t.Run("blank lines are ignored", func(t *testing.T) {
		r := paste.ParseMaterials("\n\nRAT,1\n\n   \nDW,2\n", catalog)
		require.NotNil(t, r)
		assert.Len(t, r.Materials, 2)
	})

	t.Run("large amounts are kept", func(t *testing.T) {
		r := paste.ParseMaterials("RAT,3000000000", catalog)
		require.NotNil(t, r)
		assert.Equal(t, map[string]int{"RAT": 3000000000}, r.Materials)
	})

	invalid := map[string]string{
		"empty":                 "",
		"whitespace":            "   \n\t\n",
		"one field":             "RAT",
		"four fields":           "RAT,1,2,3",
		"empty amount":          "RAT,",
		"unknown ticker":        "XYZ,10",
		"zero amount":           "RAT,0",
		"negative amount":       "RAT,-3",
		"fractional amount":     "RAT,1.5",
		"non-numeric amount":    "RAT,ten",
		"zero price":            "RAT,1,0",
		"negative price":        "RAT,1,-2",
		"four fraction digits":  "RAT,1,0.1234",
		"four significant":      "RAT,1,1234",
		"non-numeric price":     "RAT,1,cheap",
		"price then no price":   "RAT,1,10\nDW,2",
		"no price then price":   "RAT,1\nDW,2,10",
		"one bad line of three": "RAT,1\nDW,2\nFE,x",
		"hex float amount":      "RAT,0x1p3",
		"hex amount":            "RAT,0x10",
		"hex float price":       "RAT,5,0x1p-2",
		"exponent-only price":   "RAT,5,1p2",
	}
	for name, input := range invalid {
		t.Run("invalid "+name, func(t *testing.T) {
			assert.Nil(t, paste.ParseMaterials(input, catalog), "input %q", input)
		})
	}
}

func TestParseMaterials_PriceDigits(t *testing.T) {
	catalog := gamedatatest.Snapshot()
	valid := []string{"1", "999", "1230", "12.3", "1.23", "0.5", "0.001", "0.012", "45000"}
	for _, p := range valid {
		assert.NotNil(t, paste.ParseMaterials("RAT,1,"+p, catalog), "price %s", p)
	}
	invalidPrices := []string{"1001", "12.34", "0.0001", "0.0123", "1.234", "45001"}
	for _, p := range invalidPrices {
		assert.Nil(t, paste.ParseMaterials("RAT,1,"+p, catalog), "price %s", p)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	catalog := gamedatatest.Snapshot()
	for _, input := range []string{"RAT,100\nDW,50", "RAT,100,12.5\nDW,50,0.123\nFE,1,4500"} {
		r := paste.ParseMaterials(input, catalog)
		require.NotNil(t, r)
		again := paste.ParseMaterials(paste.Format(r), catalog)
		require.NotNil(t, again)
		assert.Equal(t, r, again)
	}
	assert.Equal(t, "DW,50\nRAT,100\n", paste.Format(paste.ParseMaterials("RAT,100\nDW,50", catalog)))
}

func TestProvider(t *testing.T) {
	p := paste.New(gamedatatest.Snapshot())
	assert.Equal(t, "Paste", p.Type())
	assert.Equal(t, "Paste materials at execution time", p.Description(act.MaterialGroup{}))

	group := act.MaterialGroup{Type: paste.Type, Name: "Supplies"}
	assert.True(t, p.NeedsConfigure(group))
	assert.False(t, p.NeedsConfigure(act.MaterialGroup{Materials: "RAT,1"}))
	assert.False(t, p.IsValidConfig(group, act.MaterialGroupConfig{}))
	assert.False(t, p.IsValidConfig(group, act.MaterialGroupConfig{Materials: "garbage"}))
	assert.True(t, p.IsValidConfig(group, act.MaterialGroupConfig{Materials: "RAT,1"}))

	t.Run("bill with prices", func(t *testing.T) {
		var prices map[string]float64
		bc := act.NewBillContext(group, act.MaterialGroupConfig{Materials: "RAT,10,100\nDW,5,50"}, act.NewLogger(nil), nil,
			func(p map[string]float64) { prices = p })
		bill, err := p.GenerateMaterialBill(context.Background(), bc)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"RAT": 10, "DW": 5}, bill)
		assert.Equal(t, map[string]float64{"RAT": 100, "DW": 50}, prices)
	})

	t.Run("bill without prices leaves prices unset", func(t *testing.T) {
		called := false
		bc := act.NewBillContext(group, act.MaterialGroupConfig{Materials: "RAT,10"}, act.NewLogger(nil), nil,
			func(map[string]float64) { called = true })
		bill, err := p.GenerateMaterialBill(context.Background(), bc)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"RAT": 10}, bill)
		assert.False(t, called)
	})

	t.Run("config text wins over group text", func(t *testing.T) {
		g := act.MaterialGroup{Type: paste.Type, Name: "Inline", Materials: "DW,1"}
		bc := act.NewBillContext(g, act.MaterialGroupConfig{Materials: "RAT,2"}, act.NewLogger(nil), nil, nil)
		bill, err := p.GenerateMaterialBill(context.Background(), bc)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"RAT": 2}, bill)
	})

	t.Run("invalid text logs and yields no bill", func(t *testing.T) {
		rec := &act.Recorder{}
		bc := act.NewBillContext(group, act.MaterialGroupConfig{Materials: "RAT,abc"}, act.NewLogger(rec.Sink()), nil, nil)
		bill, err := p.GenerateMaterialBill(context.Background(), bc)
		require.NoError(t, err)
		assert.Nil(t, bill)
		assert.Equal(t, []string{"Invalid or missing pasted materials."}, rec.Messages(act.TagError))
	})
}

// FuzzParseMaterials checks that arbitrary input never panics and that every
// accepted bill only holds positive amounts of catalog tickers.
func FuzzParseMaterials(f *testing.F) {
	f.Add([]byte("RAT,100\nDW,50"))
	f.Add([]byte("RAT\t1\t0.5"))
	catalog := gamedatatest.Snapshot()
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		input, err := consumer.GetString()
		if err != nil {
			return
		}
		r := paste.ParseMaterials(input, catalog)
		if r == nil {
			return
		}
		for ticker, amount := range r.Materials {
			_, ok := catalog.ByTicker(ticker)
			assert.True(t, ok)
			assert.Positive(t, amount)
		}
		if r.Prices != nil {
			assert.Len(t, r.Prices, len(r.Materials))
		}
	})
}
