package reports

import (
	"encoding/csv"
	"io"
	"strconv"
)

var bestSellingHeader = []string{"Sản phẩm", "Số lượng bán", "Doanh thu (VND)"}

// WriteBestSelling writes the best selling table with a header row.
// sep is ',' for CSV or '\t' for spreadsheet paste.
func WriteBestSelling(w io.Writer, rows []ProductSales, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(bestSellingHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Name, strconv.Itoa(r.Quantity), strconv.FormatInt(r.Revenue, 10)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
