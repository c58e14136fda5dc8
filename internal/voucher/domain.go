package voucher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// VoucherType identifies the document family a number series belongs to.
type VoucherType string

const (
	TypePurchase         VoucherType = "PURCHASE"
	TypeSale             VoucherType = "SALE"
	TypeStockTransferOut VoucherType = "STOCK_TRANSFER_OUT"
	TypeStockTransferIn  VoucherType = "STOCK_TRANSFER_IN"
)

// Types lists every supported voucher type.
var Types = []VoucherType{TypePurchase, TypeSale, TypeStockTransferOut, TypeStockTransferIn}

// ParseVoucherType resolves a voucher type case-insensitively.
func ParseVoucherType(raw string) (VoucherType, error) {
	t := VoucherType(token(raw))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown voucher type %q", ErrInvalidConfig, raw)
	}
	return t, nil
}

// Valid reports whether t is a known voucher type.
func (t VoucherType) Valid() bool {
	switch t {
	case TypePurchase, TypeSale, TypeStockTransferOut, TypeStockTransferIn:
		return true
	}
	return false
}

// UnmarshalText normalises case.
func (t *VoucherType) UnmarshalText(b []byte) error {
	*t = VoucherType(token(string(b)))
	return nil
}

// StoreCodePosition selects where the store code is inserted.
type StoreCodePosition int

const (
	PositionUnset StoreCodePosition = iota
	PositionAfterPrefix
	PositionAfterDate
	PositionBeforeNumber
)

// Normalize maps the unset value to PositionAfterPrefix.
func (p StoreCodePosition) Normalize() StoreCodePosition {
	if p == PositionUnset {
		return PositionAfterPrefix
	}
	return p
}

// Valid reports whether p is unset or one of the three positions.
func (p StoreCodePosition) Valid() bool {
	return p >= PositionUnset && p <= PositionBeforeNumber
}

// UnmarshalJSON accepts 1/2/3, their string forms, the symbolic names or null.
func (p *StoreCodePosition) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = PositionUnset
		return nil
	}
	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		raw = string(b)
	}
	switch token(raw) {
	case "", "0":
		*p = PositionUnset
	case "1", "AFTER_PREFIX":
		*p = PositionAfterPrefix
	case "2", "AFTER_DATE", "AFTER_YEAR":
		*p = PositionAfterDate
	case "3", "BEFORE_NUMBER":
		*p = PositionBeforeNumber
	default:
		return fmt.Errorf("%w: unknown store code position %q", ErrInvalidConfig, raw)
	}
	return nil
}

// YearFormat is YYYY or YY.
type YearFormat string

const (
	YearFull  YearFormat = "YYYY"
	YearShort YearFormat = "YY"
)

func (f *YearFormat) UnmarshalText(b []byte) error {
	*f = YearFormat(token(string(b)))
	return nil
}

// MonthFormat is MM (zero padded) or M.
type MonthFormat string

const (
	MonthPadded   MonthFormat = "MM"
	MonthUnpadded MonthFormat = "M"
)

func (f *MonthFormat) UnmarshalText(b []byte) error {
	*f = MonthFormat(token(string(b)))
	return nil
}

// DayFormat is DD (zero padded) or D.
type DayFormat string

const (
	DayPadded   DayFormat = "DD"
	DayUnpadded DayFormat = "D"
)

func (f *DayFormat) UnmarshalText(b []byte) error {
	*f = DayFormat(token(string(b)))
	return nil
}

// ResetFrequency controls when a sequence restarts at 1.
type ResetFrequency string

const (
	ResetNever   ResetFrequency = "NEVER"
	ResetDaily   ResetFrequency = "DAILY"
	ResetMonthly ResetFrequency = "MONTHLY"
	ResetYearly  ResetFrequency = "YEARLY"
)

func (f *ResetFrequency) UnmarshalText(b []byte) error {
	*f = ResetFrequency(token(string(b)))
	return nil
}

// NumberingScope decides whether stores share a sequence.
type NumberingScope string

const (
	ScopeStoreWise NumberingScope = "STORE_WISE"
	ScopeGlobal    NumberingScope = "GLOBAL"
)

func (s *NumberingScope) UnmarshalText(b []byte) error {
	*s = NumberingScope(token(string(b)))
	return nil
}

// PricingMethod selects the price column used when valuing documents.
type PricingMethod string

const (
	PricingPurchase PricingMethod = "PURCHASE_PRICE"
	PricingSale     PricingMethod = "SALE_PRICE"
	PricingMRP      PricingMethod = "MRP"
)

// ParsePricingMethod accepts the enum names and the short report labels
// Purchase, Sale and MRP. Empty input yields MRP.
func ParsePricingMethod(raw string) (PricingMethod, error) {
	switch token(raw) {
	case "", "MRP":
		return PricingMRP, nil
	case "PURCHASE_PRICE", "PURCHASE":
		return PricingPurchase, nil
	case "SALE_PRICE", "SALE":
		return PricingSale, nil
	}
	return "", fmt.Errorf("%w: unknown pricing method %q", ErrInvalidConfig, raw)
}

func (m *PricingMethod) UnmarshalText(b []byte) error {
	*m = PricingMethod(token(string(b)))
	return nil
}

// Padding is the minimum digit count of the sequence segment.
type Padding int

const (
	DefaultPadding Padding = 4
	MaxPadding     Padding = 10
)

// UnmarshalJSON accepts a JSON number or a numeric string with an integral
// value, so 6 and 6.0 both decode as 6. Anything else falls back to
// DefaultPadding.
func (p *Padding) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		*p = DefaultPadding
		return nil
	}
	*p = Padding(f)
	return nil
}

// Width returns the effective zero-padding width: unset means the default and
// anything below 1 is clamped to 1.
func (p Padding) Width() int {
	switch {
	case p == 0:
		return int(DefaultPadding)
	case p < 1:
		return 1
	}
	return int(p)
}

// Config is a voucher numbering configuration, one per voucher type.
type Config struct {
	ConfigID          int64             `json:"configId,omitempty"`
	VoucherType       VoucherType       `json:"voucherType" validate:"required"`
	Prefix            string            `json:"prefix" validate:"max=20"`
	IncludeStoreCode  bool              `json:"includeStoreCode"`
	StoreCodePosition StoreCodePosition `json:"storeCodePosition"`
	IncludeYear       bool              `json:"includeYear"`
	YearFormat        YearFormat        `json:"yearFormat"`
	IncludeMonth      bool              `json:"includeMonth"`
	MonthFormat       MonthFormat       `json:"monthFormat"`
	IncludeDay        bool              `json:"includeDay"`
	DayFormat         DayFormat         `json:"dayFormat"`
	Separator         string            `json:"separator" validate:"max=3"`
	NumberPadding     Padding           `json:"numberPadding" validate:"gte=0,lte=10"`
	Suffix            string            `json:"suffix" validate:"max=20"`
	ResetFrequency    ResetFrequency    `json:"resetFrequency"`
	NumberingScope    NumberingScope    `json:"numberingScope"`
	PricingMethod     PricingMethod     `json:"pricingMethod"`
	IsActive          bool              `json:"isActive"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Normalize fills unset fields with their effective values.
func (c Config) Normalize() Config {
	c.StoreCodePosition = c.StoreCodePosition.Normalize()
	if c.NumberPadding == 0 {
		c.NumberPadding = DefaultPadding
	}
	if c.YearFormat == "" {
		c.YearFormat = YearFull
	}
	if c.MonthFormat == "" {
		c.MonthFormat = MonthPadded
	}
	if c.DayFormat == "" {
		c.DayFormat = DayPadded
	}
	if c.ResetFrequency == "" {
		c.ResetFrequency = ResetNever
	}
	if c.NumberingScope == "" {
		c.NumberingScope = ScopeGlobal
	}
	if c.PricingMethod == "" {
		c.PricingMethod = PricingPurchase
	}
	return c
}

// DefaultConfig mirrors the configuration offered to a user opening the
// screen for a type that has never been saved.
func DefaultConfig(t VoucherType) Config {
	return Config{
		VoucherType:       t,
		Prefix:            defaultPrefixes[t],
		IncludeStoreCode:  true,
		StoreCodePosition: PositionAfterPrefix,
		IncludeYear:       true,
		YearFormat:        YearFull,
		IncludeMonth:      true,
		MonthFormat:       MonthPadded,
		IncludeDay:        false,
		DayFormat:         DayPadded,
		Separator:         "-",
		NumberPadding:     DefaultPadding,
		ResetFrequency:    ResetMonthly,
		NumberingScope:    ScopeStoreWise,
		PricingMethod:     PricingPurchase,
		IsActive:          true,
	}
}

var defaultPrefixes = map[VoucherType]string{
	TypePurchase:         "PUR",
	TypeSale:             "SAL",
	TypeStockTransferOut: "STO",
	TypeStockTransferIn:  "STI",
}

// Issued describes a voucher number handed out by NextNumber.
type Issued struct {
	VoucherType   VoucherType `json:"voucherType"`
	StoreCode     string      `json:"storeCode,omitempty"`
	ResetKey      string      `json:"resetKey"`
	Sequence      int64       `json:"sequence"`
	VoucherNumber string      `json:"voucherNumber"`
	IssuedAt      time.Time   `json:"issuedAt"`
}

// Store is the subset of the store master the numbering needs.
type Store struct {
	ID   int64
	Code string
	Name string
}

func token(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
