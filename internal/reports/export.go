package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const titleDateLayout = "02-Jan-2006"

// Export is a rendered workbook.
type Export struct {
	Name string
	Data []byte
}

// sheet writes plain cells and keeps the first error.
type sheet struct {
	f    *excelize.File
	name string
	err  error
}

func newSheet(name string) *sheet {
	f := excelize.NewFile()
	s := &sheet{f: f, name: name}
	s.err = f.SetSheetName("Sheet1", name)
	return s
}

// set writes v at 1-based col/row.
func (s *sheet) set(col, row int, v any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(s.name, cell, v)
}

func (s *sheet) merge(col1, row1, col2, row2 int) {
	if s.err != nil || (col1 == col2 && row1 == row2) {
		return
	}
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		s.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.MergeCell(s.name, from, to)
}

// qtyAmtHeader writes a label over a Qty/Amt column pair on rows 2 and 3.
func (s *sheet) qtyAmtHeader(col int, label string) {
	s.set(col, 2, label)
	s.merge(col, 2, col+1, 2)
	s.set(col, 3, "Qty")
	s.set(col+1, 3, "Amt")
}

func (s *sheet) bytes() ([]byte, error) {
	defer s.f.Close()
	if s.err != nil {
		return nil, fmt.Errorf("reports: build sheet: %w", s.err)
	}
	var buf bytes.Buffer
	if _, err := s.f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("reports: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ClosingStockTitle is the heading of the summary sheet.
func ClosingStockTitle(zone, district string, asOf time.Time) string {
	title := "Closing Stock Report"
	if zone != "" {
		title += " - Zone: " + zone
	}
	if district != "" {
		title += " - District: " + district
	}
	return title + " As on : " + asOf.Format(titleDateLayout)
}

// ClosingStockWorkbook renders the summary pivot: District, Store Name, a
// Qty/Amt pair per category, a Total pair and a GRAND TOTAL row.
func ClosingStockWorkbook(report ClosingStockReport, zone, district string, asOf time.Time) ([]byte, error) {
	s := newSheet("Closing Stock")
	totalCols := 2 + len(report.Columns)*2 + 2

	s.set(1, 1, ClosingStockTitle(zone, district, asOf))
	s.merge(1, 1, totalCols, 1)
	s.set(1, 2, "District")
	s.merge(1, 2, 1, 3)
	s.set(2, 2, "Store Name")
	s.merge(2, 2, 2, 3)
	col := 3
	for _, c := range report.Columns {
		s.qtyAmtHeader(col, c)
		col += 2
	}
	s.qtyAmtHeader(col, "Total")

	row := 4
	for _, r := range report.Rows {
		s.set(1, row, r.District)
		s.set(2, row, r.StoreName)
		col = 3
		for _, c := range report.Columns {
			s.set(col, row, r.CategoryQuantities[c])
			s.set(col+1, row, r.CategoryAmounts[c].Float())
			col += 2
		}
		s.set(col, row, r.TotalQty)
		s.set(col+1, row, r.TotalAmount.Float())
		row++
	}

	s.set(1, row, "GRAND TOTAL")
	s.merge(1, row, 2, row)
	col = 3
	for _, c := range report.Columns {
		s.set(col, row, report.ColumnQuantities[c])
		s.set(col+1, row, report.ColumnAmounts[c].Float())
		col += 2
	}
	s.set(col, row, report.TotalQty)
	s.set(col+1, row, report.TotalAmount.Float())
	return s.bytes()
}

// DetailedTitle is the heading of the per-store sheet.
func DetailedTitle(storeName string, asOf time.Time) string {
	return "Closing Stock: " + storeName + " As on : " + asOf.Format(titleDateLayout)
}

// DetailedWorkbook renders one store's holdings: one row per item with a
// Qty/Amt pair per size, category header and subtotal rows, and a GRAND
// TOTAL row.
func DetailedWorkbook(report DetailedReport, asOf time.Time) ([]byte, error) {
	s := newSheet("Detailed Closing Stock")
	sizes := report.SortedSizes
	totalCols := 1 + len(sizes)*2 + 2

	s.set(1, 1, DetailedTitle(report.StoreName, asOf))
	s.merge(1, 1, totalCols, 1)
	s.set(1, 2, "Item Name & Size")
	s.merge(1, 2, 1, 3)
	col := 2
	for _, size := range sizes {
		s.qtyAmtHeader(col, size)
		col += 2
	}
	s.qtyAmtHeader(col, "Total")

	grandQty := make(map[string]float64)
	grandAmt := make(map[string]float64)
	var grandTotalQty, grandTotalAmt float64
	row := 4
	for _, cat := range report.Categories {
		s.set(1, row, cat.CategoryName)
		s.merge(1, row, totalCols, row)
		row++

		type cell struct{ qty, amt float64 }
		var order []string
		items := make(map[string]map[string]cell)
		for _, it := range cat.Items {
			bySize, ok := items[it.ItemName]
			if !ok {
				bySize = make(map[string]cell)
				items[it.ItemName] = bySize
				order = append(order, it.ItemName)
			}
			c := bySize[it.SizeName]
			c.qty += it.Qty
			c.amt += it.Amount.Float()
			bySize[it.SizeName] = c
		}

		catQty := make(map[string]float64)
		catAmt := make(map[string]float64)
		var catTotalQty, catTotalAmt float64
		for _, name := range order {
			s.set(1, row, name)
			col = 2
			var rowQty, rowAmt float64
			for _, size := range sizes {
				c := items[name][size]
				s.set(col, row, c.qty)
				s.set(col+1, row, c.amt)
				rowQty += c.qty
				rowAmt += c.amt
				catQty[size] += c.qty
				catAmt[size] += c.amt
				col += 2
			}
			s.set(col, row, rowQty)
			s.set(col+1, row, rowAmt)
			catTotalQty += rowQty
			catTotalAmt += rowAmt
			row++
		}

		s.set(1, row, cat.CategoryName+" Total")
		col = 2
		for _, size := range sizes {
			s.set(col, row, catQty[size])
			s.set(col+1, row, catAmt[size])
			grandQty[size] += catQty[size]
			grandAmt[size] += catAmt[size]
			col += 2
		}
		s.set(col, row, catTotalQty)
		s.set(col+1, row, catTotalAmt)
		grandTotalQty += catTotalQty
		grandTotalAmt += catTotalAmt
		row++
	}

	s.set(1, row, "GRAND TOTAL")
	col = 2
	for _, size := range sizes {
		s.set(col, row, grandQty[size])
		s.set(col+1, row, grandAmt[size])
		col += 2
	}
	s.set(col, row, grandTotalQty)
	s.set(col+1, row, grandTotalAmt)
	return s.bytes()
}

// TransferTitle is the heading of the stock transfer sheet.
func TransferTitle(from, to string) string {
	return fmt.Sprintf("Stock Transfer Report From : %s To : %s", from, to)
}

var transferHeader = []string{"STO Number", "Date", "From Store", "To Store", "Item", "Size", "Qty", "Price", "Amount"}

// TransferWorkbook renders transfer lines grouped by document with a total
// row per document, a store pair summary and a GRAND TOTAL row.
func TransferWorkbook(report TransferReport) ([]byte, error) {
	s := newSheet("Stock Transfer")
	s.set(1, 1, TransferTitle(report.From, report.To))
	s.merge(1, 1, len(transferHeader), 1)
	for i, h := range transferHeader {
		s.set(i+1, 2, h)
	}
	row := 3
	for _, t := range report.Transfers {
		from := storeLabel(t.FromStore, t.FromStoreName)
		to := storeLabel(t.ToStore, t.ToStoreName)
		for _, it := range t.Items {
			s.set(1, row, t.StoNumber)
			s.set(2, row, t.Date)
			s.set(3, row, from)
			s.set(4, row, to)
			s.set(5, row, it.ItemName)
			s.set(6, row, it.SizeName)
			s.set(7, row, it.Quantity)
			s.set(8, row, it.Price.Float())
			s.set(9, row, it.Amount.Float())
			row++
		}
		s.set(1, row, t.StoNumber+" Total")
		s.merge(1, row, 6, row)
		s.set(7, row, t.TotalQty)
		s.set(9, row, t.TotalAmount.Float())
		row++
	}
	s.set(1, row, "GRAND TOTAL")
	s.merge(1, row, 6, row)
	s.set(7, row, report.TotalQty)
	s.set(9, row, report.TotalAmount.Float())

	row += 2
	s.set(1, row, "From Store")
	s.set(2, row, "To Store")
	s.set(3, row, "Transfers")
	s.set(4, row, "Qty")
	s.set(5, row, "Amount")
	row++
	for _, p := range report.Pairs {
		s.set(1, row, storeLabel(p.FromStore, p.FromStoreName))
		s.set(2, row, storeLabel(p.ToStore, p.ToStoreName))
		s.set(3, row, p.Transfers)
		s.set(4, row, p.TotalQty)
		s.set(5, row, p.TotalAmount.Float())
		row++
	}
	return s.bytes()
}

func storeLabel(code, name string) string {
	if name == "" {
		return code
	}
	return name
}
