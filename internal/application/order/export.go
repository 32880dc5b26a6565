package order

import (
	"encoding/csv"
	"io"
	"strconv"

	domain "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
)

var exportHeader = []string{"Order ID", "Customer", "Date", "Items", "Status", "Amount"}

// ExportCSV writes one row per order. Customer names with commas or quotes are quoted.
func ExportCSV(w io.Writer, orders []*domain.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			o.ID,
			o.Shipping.Name,
			o.CreatedAt.Format("2006-01-02"),
			strconv.Itoa(o.ItemCount()),
			o.Status.Presentation().Label,
			o.Total.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
