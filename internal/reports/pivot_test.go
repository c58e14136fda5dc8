package reports

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPivotClosingStock(t *testing.T) {
	lines := []StockLine{
		{District: "Agra", StoreName: "Agra Main", Category: "Shirts", Qty: 10, Amount: d("1000.50")},
		{District: "Agra", StoreName: "Agra Main", Category: "Trousers", Qty: 5, Amount: d("750")},
		{District: "Delhi", StoreName: "CP", Category: "Shirts", Qty: 2, Amount: d("199.995")},
		{District: "Delhi", StoreName: "CP", Category: "Kurta", Qty: 1, Amount: d("300")},
	}
	report := PivotClosingStock([]string{"Shirts", "Trousers"}, lines)

	require.Equal(t, []string{"Shirts", "Trousers", "Kurta"}, report.Columns)
	require.Len(t, report.Rows, 2)

	agra := report.Rows[0]
	require.Equal(t, "Agra", agra.District)
	require.Equal(t, "Agra Main", agra.StoreName)
	require.Equal(t, 15.0, agra.TotalQty)
	require.Equal(t, "1750.50", agra.TotalAmount.StringFixed(2))
	require.Equal(t, 10.0, agra.CategoryQuantities["Shirts"])

	cp := report.Rows[1]
	require.Equal(t, "200.00", cp.CategoryAmounts["Shirts"].StringFixed(2))
	require.NotContains(t, cp.CategoryQuantities, "Trousers")

	require.Equal(t, 12.0, report.ColumnQuantities["Shirts"])
	require.Equal(t, "1200.50", report.ColumnAmounts["Shirts"].StringFixed(2))
	require.Equal(t, 18.0, report.TotalQty)
	require.Equal(t, "2250.50", report.TotalAmount.StringFixed(2))
}

func TestPivotClosingStockEmpty(t *testing.T) {
	report := PivotClosingStock(nil, nil)
	raw, err := json.Marshal(report)
	require.NoError(t, err)
	require.JSONEq(t, `{"asOf":"","valuationMethod":"","columns":[],"rows":[],"columnQuantities":{},"columnAmounts":{},"totalQty":0,"totalAmount":0.00}`, string(raw))
}

func TestMoneyMarshalsAsRoundedNumber(t *testing.T) {
	raw, err := json.Marshal(map[string]Money{"a": money(d("12.345")), "b": {}})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":12.35,"b":0}`, string(raw))

	var back map[string]Money
	require.NoError(t, json.Unmarshal(raw, &back))
	require.True(t, back["a"].Equal(d("12.35")))
}

func TestGroupDetailed(t *testing.T) {
	lines := []DetailLine{
		{District: "Agra", StoreName: "Agra Main", Category: "Shirts", ItemName: "Oxford", SizeName: "L", Qty: 2, Rate: d("500")},
		{District: "Agra", StoreName: "Agra Main", Category: "Shirts", ItemName: "Oxford", SizeName: "M", Qty: 3, Rate: d("500")},
		{District: "Agra", StoreName: "Agra Main", Category: "Trousers", ItemName: "Chino", SizeName: "32", Qty: 1, Rate: d("899.99")},
		{District: "Agra", StoreName: "Agra Main", Category: "Trousers", ItemName: "Chino", SizeName: "FREE", Qty: 1, Rate: d("0")},
	}
	report := GroupDetailed(lines, map[string]int{"M": 1, "L": 2, "32": 10})

	require.Equal(t, "Agra Main", report.StoreName)
	require.Equal(t, "Agra", report.District)
	require.Equal(t, []string{"M", "L", "32", "FREE"}, report.SortedSizes)
	require.Len(t, report.Categories, 2)

	shirts := report.Categories[0]
	require.Equal(t, "Shirts", shirts.CategoryName)
	require.Equal(t, 5.0, shirts.TotalQty)
	require.Equal(t, "2500.00", shirts.TotalAmount.StringFixed(2))
	require.Len(t, shirts.Items, 2)
	require.Equal(t, "1000.00", shirts.Items[0].Amount.StringFixed(2))

	require.Equal(t, 7.0, report.GrandTotalQty)
	require.Equal(t, "3399.99", report.GrandTotalAmount.StringFixed(2))
}

func TestGroupDetailedEmpty(t *testing.T) {
	report := GroupDetailed(nil, nil)
	require.Empty(t, report.Categories)
	require.NotNil(t, report.SortedSizes)
	require.True(t, report.GrandTotalAmount.IsZero())
}

func TestSummariseTransfers(t *testing.T) {
	day := mustDate(t, "2026-01-05")
	lines := []TransferLine{
		{StoNumber: "STO1", Date: day, FromStore: "S01", FromStoreName: "Agra Main", ToStore: "S02", ToStoreName: "CP", ItemName: "Oxford", SizeName: "M", Quantity: 2, Price: d("500"), Amount: d("1000")},
		{StoNumber: "STO1", Date: day, FromStore: "S01", FromStoreName: "Agra Main", ToStore: "S02", ToStoreName: "CP", ItemName: "Oxford", SizeName: "L", Quantity: 1, Price: d("500"), Amount: d("500")},
		{StoNumber: "STO2", Date: day, FromStore: "S02", ToStore: "S01", ItemName: "Chino", Quantity: 4, Price: d("250.25"), Amount: d("1001")},
		{StoNumber: "STO3", Date: day, FromStore: "S01", FromStoreName: "Agra Main", ToStore: "S02", ToStoreName: "CP", ItemName: "Kurta", Quantity: 1, Price: d("300"), Amount: d("300")},
	}
	report := SummariseTransfers(lines)

	require.Len(t, report.Transfers, 3)
	first := report.Transfers[0]
	require.Equal(t, "STO1", first.StoNumber)
	require.Equal(t, "2026-01-05", first.Date)
	require.Equal(t, 3, first.TotalQty)
	require.Equal(t, "1500.00", first.TotalAmount.StringFixed(2))
	require.Len(t, first.Items, 2)

	require.Len(t, report.Pairs, 2)
	require.Equal(t, "S01", report.Pairs[0].FromStore)
	require.Equal(t, 2, report.Pairs[0].Transfers)
	require.Equal(t, 4, report.Pairs[0].TotalQty)
	require.Equal(t, "1800.00", report.Pairs[0].TotalAmount.StringFixed(2))
	require.Equal(t, "S02", report.Pairs[1].FromStore)
	require.Equal(t, 1, report.Pairs[1].Transfers)

	require.Equal(t, 8, report.TotalQty)
	require.Equal(t, "2801.00", report.TotalAmount.StringFixed(2))
}
