package httppresentation

import (
	"html/template"
	"io"

	"github.com/shopspring/decimal"

	domorder "github.com/Barrister1990/agrilink-sub000/internal/domain/order"
)

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "GH₵ " + d.StringFixed(2) },
	"date":  func(o *domorder.Order) string { return o.CreatedAt.Format("02 Jan 2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.ID}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
th, td { border-bottom: 1px solid #ddd; padding: .4rem; text-align: left; }
td.num, th.num { text-align: right; }
.badge { padding: .1rem .5rem; border-radius: .5rem; font-size: .85rem; }
@media print { .no-print { display: none; } }
</style>
</head>
<body>
<button class="no-print" onclick="window.print()">Print invoice</button>
<h1>Invoice</h1>
<p>Order <strong>{{.ID}}</strong> placed {{date .}}
<span class="badge badge-{{.Status.Presentation.Badge}}">{{.Status.Presentation.Label}}</span></p>
<h2>Ship to</h2>
<address>
{{.Shipping.Name}}<br>
{{.Shipping.Line1}}<br>
{{with .Shipping.Line2}}{{.}}<br>{{end}}
{{.Shipping.City}}, {{.Shipping.Region}}{{with .Shipping.PostalCode}} {{.}}{{end}}<br>
{{.Shipping.Phone}} · {{.Shipping.Email}}
</address>
<table>
<thead><tr><th>Product</th><th>Supplier</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Line total</th></tr></thead>
<tbody>
{{range .Items}}<tr><td>{{.ProductID}}</td><td>{{.SupplierID}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .LineTotal}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="4" class="num">Subtotal</td><td class="num">{{money .Subtotal}}</td></tr>
<tr><td colspan="4" class="num">Shipping</td><td class="num">{{money .ShippingFee}}</td></tr>
<tr><td colspan="4" class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Total}}</strong></td></tr>
</tfoot>
</table>
<p>Payment: {{.PaymentMethod.Channel}} ({{.PaymentStatus}}){{with .PaymentReference}} ref {{.}}{{end}}</p>
{{with .Notes}}<p>Notes: {{.}}</p>{{end}}
</body>
</html>
`))

func renderInvoice(w io.Writer, o *domorder.Order) error {
	return invoiceTemplate.Execute(w, o)
}
