package voucher

import (
	"fmt"

	"github.com/rgsons/storeops/internal/shared"
)

var validate = shared.NewValidator()

// Validate rejects configurations that cannot be saved.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, shared.ValidationMessage(err))
	}
	if !cfg.VoucherType.Valid() {
		return fmt.Errorf("%w: unknown voucher type %q", ErrInvalidConfig, cfg.VoucherType)
	}
	if !cfg.StoreCodePosition.Valid() {
		return fmt.Errorf("%w: storeCodePosition must be 1, 2 or 3", ErrInvalidConfig)
	}
	if cfg.NumberPadding < 0 || cfg.NumberPadding > MaxPadding {
		return fmt.Errorf("%w: numberPadding must be between 1 and %d", ErrInvalidConfig, MaxPadding)
	}
	checks := []struct {
		field string
		value string
		ok    bool
	}{
		{"yearFormat", string(cfg.YearFormat), oneOf(cfg.YearFormat, "", YearFull, YearShort)},
		{"monthFormat", string(cfg.MonthFormat), oneOf(cfg.MonthFormat, "", MonthPadded, MonthUnpadded)},
		{"dayFormat", string(cfg.DayFormat), oneOf(cfg.DayFormat, "", DayPadded, DayUnpadded)},
		{"resetFrequency", string(cfg.ResetFrequency), oneOf(cfg.ResetFrequency, "", ResetNever, ResetDaily, ResetMonthly, ResetYearly)},
		{"numberingScope", string(cfg.NumberingScope), oneOf(cfg.NumberingScope, "", ScopeStoreWise, ScopeGlobal)},
		{"pricingMethod", string(cfg.PricingMethod), oneOf(cfg.PricingMethod, "", PricingPurchase, PricingSale, PricingMRP)},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: unsupported %s %q", ErrInvalidConfig, c.field, c.value)
		}
	}
	return nil
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
