// Package pdf renders invoices and delivery slips locally with maroto.
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/maghrebglobal/backoffice/internal/billing"
	"github.com/maghrebglobal/backoffice/internal/models"
)

const notAvailable = "N/A"

var (
	brandColor  = &props.Color{Red: 30, Green: 64, Blue: 175}
	headerColor = &props.Color{Red: 226, Green: 232, Blue: 240}
	mutedColor  = &props.Color{Red: 100, Green: 116, Blue: 139}
)

// Filename is the name a rendered document is saved under.
func Filename(doc *models.Document) string {
	number := doc.Number
	if number == "" {
		number = doc.ID
	}
	return fmt.Sprintf("%s-%s.pdf", doc.Type, number)
}

// Render builds the PDF of doc. client may be nil; the denormalized client
// name of the document is used then.
func Render(doc *models.Document, company models.CompanyInfo, client *models.Client) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("pdf: nil document")
	}
	cfg := config.NewBuilder().
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		Build()
	m := maroto.New(cfg)

	m.AddRows(headerRows(doc, company)...)
	m.AddRows(clientRows(doc, client)...)
	if doc.IsDeliverySlip() {
		m.AddRows(deliveryTable(doc)...)
		m.AddRows(signatureRows()...)
	} else {
		currency := company.CurrencyOrDefault()
		m.AddRows(invoiceTable(doc, currency)...)
		m.AddRows(totalRows(doc, company, currency)...)
	}
	m.AddRows(footerRows(company)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate %s: %w", doc.Number, err)
	}
	return out.GetBytes(), nil
}

func headerRows(doc *models.Document, company models.CompanyInfo) []core.Row {
	title := strings.ToUpper(string(doc.Type))
	contact := company.PhoneLine()
	if company.Email != "" {
		if contact != "" {
			contact += " - "
		}
		contact += company.Email
	}
	return []core.Row{
		row.New(9).Add(
			text.NewCol(7, company.Name, props.Text{Size: 15, Style: fontstyle.Bold, Color: brandColor}),
			text.NewCol(5, title, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
		),
		row.New(5).Add(
			text.NewCol(7, company.Activity, props.Text{Size: 9, Color: mutedColor}),
			text.NewCol(5, "N° "+doc.Number, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		),
		row.New(5).Add(
			text.NewCol(7, company.Address, props.Text{Size: 8}),
			text.NewCol(5, "Date : "+displayDate(doc), props.Text{Size: 9, Align: align.Right}),
		),
		row.New(5).Add(
			text.NewCol(12, contact, props.Text{Size: 8}),
		),
		line.NewRow(6, props.Line{Color: headerColor}),
	}
}

func clientRows(doc *models.Document, client *models.Client) []core.Row {
	name, ice, addr := doc.ClientName, notAvailable, notAvailable
	if client != nil {
		if client.Name != "" {
			name = client.Name
		}
		ice = orNA(client.ICE)
		addr = orNA(client.Address)
	}
	if name == "" {
		name = notAvailable
	}
	cell := &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 250, Blue: 252}}
	return []core.Row{
		row.New(6).Add(
			col.New(6),
			text.NewCol(6, "CLIENT", props.Text{Size: 8, Style: fontstyle.Bold, Color: mutedColor, Left: 2, Top: 1}),
		).WithStyle(cell),
		row.New(6).Add(
			col.New(6),
			text.NewCol(6, name, props.Text{Size: 11, Style: fontstyle.Bold, Left: 2, Top: 1}),
		).WithStyle(cell),
		row.New(5).Add(
			col.New(6),
			text.NewCol(6, "ICE : "+ice, props.Text{Size: 9, Left: 2}),
		).WithStyle(cell),
		row.New(6).Add(
			col.New(6),
			text.NewCol(6, "Adresse : "+addr, props.Text{Size: 9, Left: 2}),
		).WithStyle(cell),
		row.New(6),
	}
}

func invoiceTable(doc *models.Document, currency string) []core.Row {
	head := props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5, Left: 1}
	headRight := head
	headRight.Align = align.Right
	headRight.Right = 1
	rows := []core.Row{
		row.New(7).Add(
			text.NewCol(6, "Désignation", head),
			text.NewCol(1, "Qté", props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5, Align: align.Center}),
			text.NewCol(2, "P.U HT", headRight),
			text.NewCol(3, "Total HT", headRight),
		).WithStyle(&props.Cell{BackgroundColor: headerColor}),
	}
	cell := props.Text{Size: 9, Top: 1.5, Left: 1}
	cellRight := cell
	cellRight.Align = align.Right
	cellRight.Right = 1
	for _, item := range doc.Items {
		rows = append(rows, row.New(7).Add(
			text.NewCol(6, item.Name, cell),
			text.NewCol(1, strconv.Itoa(item.Quantity), props.Text{Size: 9, Top: 1.5, Align: align.Center}),
			text.NewCol(2, billing.FormatCurrency(item.PriceHT, currency), cellRight),
			text.NewCol(3, billing.FormatCurrency(item.TotalHT(), currency), cellRight),
		))
	}
	return append(rows, line.NewRow(4, props.Line{Color: headerColor}))
}

func deliveryTable(doc *models.Document) []core.Row {
	head := props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5, Left: 1}
	rows := []core.Row{
		row.New(7).Add(
			text.NewCol(9, "Désignation", head),
			text.NewCol(3, "Quantité", props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5, Align: align.Center}),
		).WithStyle(&props.Cell{BackgroundColor: headerColor}),
	}
	for _, item := range doc.Items {
		rows = append(rows, row.New(7).Add(
			text.NewCol(9, item.Name, props.Text{Size: 9, Top: 1.5, Left: 1}),
			text.NewCol(3, strconv.Itoa(item.Quantity), props.Text{Size: 9, Top: 1.5, Align: align.Center}),
		))
	}
	return append(rows, line.NewRow(4, props.Line{Color: headerColor}))
}

func totalRows(doc *models.Document, company models.CompanyInfo, currency string) []core.Row {
	label := props.Text{Size: 9, Align: align.Right, Right: 2}
	value := props.Text{Size: 9, Align: align.Right, Right: 1}
	strong := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Right: 1}
	vat := strconv.FormatFloat(company.VATRate, 'f', -1, 64)
	return []core.Row{
		row.New(6).Add(
			col.New(6),
			text.NewCol(3, "Total HT", label),
			text.NewCol(3, billing.FormatCurrency(doc.TotalHT, currency), value),
		),
		row.New(6).Add(
			col.New(6),
			text.NewCol(3, "TVA ("+vat+"%)", label),
			text.NewCol(3, billing.FormatCurrency(doc.TotalTVA, currency), value),
		),
		row.New(8).Add(
			col.New(6),
			text.NewCol(3, "Total TTC", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Right: 2}),
			text.NewCol(3, billing.FormatCurrency(doc.TotalTTC, currency), strong),
		).WithStyle(&props.Cell{BackgroundColor: headerColor}),
		row.New(6),
		text.NewRow(6, "Arrêté la présente facture à la somme de :", props.Text{Size: 9}),
		text.NewRow(8, strings.ToUpper(billing.AmountToWords(doc.TotalTTC)), props.Text{Size: 9, Style: fontstyle.Bold}),
	}
}

func signatureRows() []core.Row {
	box := &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 250, Blue: 252}}
	return []core.Row{
		row.New(10),
		row.New(7).Add(
			col.New(7),
			text.NewCol(5, "Signature Client", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Center, Top: 1.5}),
		).WithStyle(box),
		row.New(25).Add(col.New(7), col.New(5)).WithStyle(box),
	}
}

func footerRows(company models.CompanyInfo) []core.Row {
	small := props.Text{Size: 7, Align: align.Center, Color: mutedColor}
	legal := fmt.Sprintf("%s - ICE: %s - R.C RABAT n° %s - IF: %s", company.Name, company.ICE, company.RC, company.IF)
	return []core.Row{
		row.New(12),
		line.NewRow(4, props.Line{Color: headerColor}),
		text.NewRow(4, legal, small),
		text.NewRow(4, "Adresse: "+company.Address, small),
		text.NewRow(4, "Coordonnées Bancaires: "+company.BankDetails, small),
	}
}

func displayDate(doc *models.Document) string {
	if t, ok := doc.IssueDate(); ok {
		return t.Format("02/01/2006")
	}
	return doc.Date
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
