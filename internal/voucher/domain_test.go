package voucher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigJSONAcceptsLooseInput(t *testing.T) {
	raw := `{
		"voucherType": "purchase",
		"prefix": "PUR",
		"includeStoreCode": true,
		"storeCodePosition": "2",
		"includeYear": true,
		"yearFormat": "yy",
		"numberPadding": "6",
		"resetFrequency": "monthly",
		"numberingScope": "store_wise",
		"pricingMethod": "mrp",
		"isActive": true
	}`
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	require.Equal(t, TypePurchase, cfg.VoucherType)
	require.Equal(t, PositionAfterDate, cfg.StoreCodePosition)
	require.Equal(t, YearShort, cfg.YearFormat)
	require.Equal(t, Padding(6), cfg.NumberPadding)
	require.Equal(t, ResetMonthly, cfg.ResetFrequency)
	require.Equal(t, ScopeStoreWise, cfg.NumberingScope)
	require.Equal(t, PricingMRP, cfg.PricingMethod)
	require.NoError(t, Validate(cfg))
}

func TestPaddingFallsBackOnGarbage(t *testing.T) {
	for _, raw := range []string{`"abc"`, `null`, `""`, `4.5`, `"6.25"`, `1e40`, `"NaN"`, `"Inf"`} {
		var p Padding
		require.NoError(t, json.Unmarshal([]byte(raw), &p), raw)
		require.Equal(t, DefaultPadding, p, raw)
	}
	var p Padding
	require.NoError(t, json.Unmarshal([]byte(`8`), &p))
	require.Equal(t, Padding(8), p)
}

func TestPaddingAcceptsIntegralNumbers(t *testing.T) {
	cases := map[string]Padding{
		`6.0`:    6,
		`"6.0"`:  6,
		`6e0`:    6,
		` "7" `:  7,
		`0`:      0,
		`-2.000`: -2,
	}
	for raw, want := range cases {
		var p Padding
		require.NoError(t, json.Unmarshal([]byte(raw), &p), raw)
		require.Equal(t, want, p, raw)
	}

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"numberPadding": 6.0}`), &cfg))
	require.Equal(t, 6, cfg.NumberPadding.Width())
}

func TestStoreCodePositionJSON(t *testing.T) {
	cases := map[string]StoreCodePosition{
		`1`:               PositionAfterPrefix,
		`3`:               PositionBeforeNumber,
		`"after_date"`:    PositionAfterDate,
		`"BEFORE_NUMBER"`: PositionBeforeNumber,
		`null`:            PositionUnset,
		`0`:               PositionUnset,
	}
	for raw, want := range cases {
		var p StoreCodePosition
		require.NoError(t, json.Unmarshal([]byte(raw), &p), raw)
		require.Equal(t, want, p, raw)
	}
	var p StoreCodePosition
	require.Error(t, json.Unmarshal([]byte(`9`), &p))
	require.Equal(t, PositionAfterPrefix, PositionUnset.Normalize())
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cfg := DefaultConfig(TypeSale)
	require.NoError(t, Validate(cfg))

	bad := cfg
	bad.NumberPadding = 11
	require.ErrorIs(t, Validate(bad), ErrInvalidConfig)

	bad = cfg
	bad.ResetFrequency = "WEEKLY"
	require.ErrorIs(t, Validate(bad), ErrInvalidConfig)

	bad = cfg
	bad.VoucherType = "REFUND"
	require.ErrorIs(t, Validate(bad), ErrInvalidConfig)

	bad = cfg
	bad.VoucherType = ""
	require.ErrorIs(t, Validate(bad), ErrInvalidConfig)
}

func TestParsePricingMethod(t *testing.T) {
	for raw, want := range map[string]PricingMethod{
		"":               PricingMRP,
		"Purchase":       PricingPurchase,
		"PURCHASE_PRICE": PricingPurchase,
		"sale":           PricingSale,
		"Sale_Price":     PricingSale,
		"MRP":            PricingMRP,
	} {
		got, err := ParsePricingMethod(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}
	_, err := ParsePricingMethod("cost")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{VoucherType: TypeSale}.Normalize()
	require.Equal(t, PositionAfterPrefix, cfg.StoreCodePosition)
	require.Equal(t, DefaultPadding, cfg.NumberPadding)
	require.Equal(t, ResetNever, cfg.ResetFrequency)
	require.Equal(t, ScopeGlobal, cfg.NumberingScope)
}
