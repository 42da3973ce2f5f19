// Package pdf genera la representación impresa del comprobante electrónico
// en los formatos A4, A5 y ticket (80 mm / 50 mm).
//
// Layout de la hoja:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RUC  │  Tipo + Número + Fecha       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Razón social + documento de identidad            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | V.Unit | IGV | Total           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Gravado / IGV / IMPORTE TOTAL                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR SUNAT + hash de la firma + leyenda              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// importePrinter formatea montos con separadores de miles del locale peruano.
var importePrinter = message.NewPrinter(language.MustParse("es-PE"))

func importe(d decimal.Decimal) string {
	f, _ := d.Float64()
	return importePrinter.Sprintf("%v", number.Decimal(f, number.Scale(2)))
}

var (
	colorPrimary = &props.Color{Red: 140, Green: 30, Blue: 30}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// nombres comerciales de cada tipo de comprobante para el encabezado.
var tipoTitulos = map[string]string{
	"01": "FACTURA ELECTRÓNICA",
	"03": "BOLETA DE VENTA ELECTRÓNICA",
	"07": "NOTA DE CRÉDITO ELECTRÓNICA",
	"08": "NOTA DE DÉBITO ELECTRÓNICA",
	"09": "GUÍA DE REMISIÓN ELECTRÓNICA",
	"20": "COMPROBANTE DE RETENCIÓN ELECTRÓNICO",
}

// MarotoPDFGenerator implementa billing.PDFRenderer usando Maroto v2.
type MarotoPDFGenerator struct{}

func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// Render genera el PDF del comprobante en el formato pedido.
func (g *MarotoPDFGenerator) Render(
	_ context.Context,
	doc *entity.FiscalDocument,
	items []*entity.DocumentItem,
	company *entity.Company,
	formato string,
) ([]byte, error) {
	builder := config.NewBuilder().
		WithLeftMargin(margenFor(formato)).WithRightMargin(margenFor(formato)).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: fontSizeFor(formato)}).
		WithTitle(tituloFor(doc.TipoDoc)+" "+doc.Numero(), true).
		WithAuthor(company.RazonSocial, true)

	switch formato {
	case billing.FormatoA4:
		builder = builder.WithPageSize(pagesize.A4)
	case billing.FormatoA5:
		builder = builder.WithPageSize(pagesize.A5)
	case billing.Formato80mm:
		builder = builder.WithDimensions(80, 297)
	case billing.Formato50mm:
		builder = builder.WithDimensions(50, 297)
	default:
		return nil, fmt.Errorf("pdf: formato %s desconocido", formato)
	}

	m := maroto.New(builder.Build())

	ticket := formato == billing.Formato80mm || formato == billing.Formato50mm

	m.AddRows(g.headerRows(doc, company, ticket)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(g.receptorRow(doc, ticket))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(items) > 0 {
		m.AddRows(g.tableHeaderRow(ticket))
		for _, r := range g.tableDetailRows(items, ticket) {
			m.AddRows(r)
		}
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(g.totalsRows(doc, ticket)...)
	m.AddRows(line.NewRow(2))
	m.AddRows(g.footerRows(doc, company, ticket)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

func (g *MarotoPDFGenerator) headerRows(doc *entity.FiscalDocument, company *entity.Company, ticket bool) []core.Row {
	titulo := tituloFor(doc.TipoDoc)

	if ticket {
		return []core.Row{
			row.New(6).Add(col.New(12).Add(
				text.New(company.RazonSocial, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center}),
			)),
			row.New(4).Add(col.New(12).Add(
				text.New("RUC "+company.RUC, props.Text{Size: 7, Align: align.Center, Color: colorGray}),
			)),
			row.New(7).Add(col.New(12).Add(
				text.New(titulo, props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Center, Color: colorPrimary}),
				text.New(doc.Numero(), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 3.5}),
			)),
		}
	}

	return []core.Row{row.New(18).Add(
		col.New(7).Add(
			text.New(company.RazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("RUC: "+company.RUC, props.Text{Size: 9, Top: 8, Color: colorGray}),
			text.New(company.Direccion, props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(titulo, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(doc.Numero(), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+doc.FechaEmision.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)}
}

func (g *MarotoPDFGenerator) receptorRow(doc *entity.FiscalDocument, ticket bool) core.Row {
	if doc.ClienteRazonSocial == "" {
		return row.New(2)
	}
	size := 9.0
	if ticket {
		size = 7
	}
	return row.New(10).Add(col.New(12).Add(
		text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: size - 2, Color: colorPrimary, Top: 1}),
		text.New(doc.ClienteRazonSocial, props.Text{Style: fontstyle.Bold, Size: size, Top: 4}),
		text.New(doc.ClienteTipoDoc+": "+doc.ClienteNumDoc, props.Text{Size: size - 1, Top: 4 + size*0.6, Color: colorGray}),
	))
}

func (g *MarotoPDFGenerator) tableHeaderRow(ticket bool) core.Row {
	size := 8.0
	if ticket {
		size = 6
	}
	h := func(label string, w int, a align.Type) core.Col {
		return col.New(w).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: size, Align: a, Color: colorPrimary, Top: 1,
		}))
	}
	return row.New(6).Add(
		h("Cant.", 2, align.Center),
		h("Descripción", 5, align.Left),
		h("V.Unit", 2, align.Right),
		h("Total", 3, align.Right),
	)
}

func (g *MarotoPDFGenerator) tableDetailRows(items []*entity.DocumentItem, ticket bool) []core.Row {
	size := 8.0
	if ticket {
		size = 6
	}
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(it.Cantidad.String(), props.Text{Size: size, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.Descripcion, props.Text{Size: size, Align: align.Left, Top: 1})),
			col.New(2).Add(text.New(it.ValorUnitario.StringFixed(2), props.Text{Size: size, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New(it.Total.StringFixed(2), props.Text{Size: size, Align: align.Right, Top: 1})),
		))
	}
	return rows
}

func (g *MarotoPDFGenerator) totalsRows(doc *entity.FiscalDocument, ticket bool) []core.Row {
	size := 9.0
	if ticket {
		size = 7
	}
	linea := func(label, value string, destacado bool) core.Row {
		style := fontstyle.Normal
		color := colorGray
		if destacado {
			style = fontstyle.Bold
			color = colorPrimary
		}
		return row.New(5).Add(
			col.New(6),
			col.New(3).Add(text.New(label, props.Text{Style: style, Size: size, Align: align.Right, Color: color})),
			col.New(3).Add(text.New(doc.Moneda+" "+value, props.Text{Style: style, Size: size, Align: align.Right, Color: color})),
		)
	}
	return []core.Row{
		linea("Op. Gravada:", importe(doc.TotalGravado), false),
		linea("IGV:", importe(doc.TotalIGV), false),
		linea("IMPORTE TOTAL:", importe(doc.TotalVenta), true),
	}
}

func (g *MarotoPDFGenerator) footerRows(doc *entity.FiscalDocument, company *entity.Company, ticket bool) []core.Row {
	var rows []core.Row

	qrSize := 9
	if ticket {
		qrSize = 12
	}
	if qr := qrPayload(doc, company); qr != "" {
		rows = append(rows, row.New(30).Add(
			col.New(qrSize).Add(code.NewQr(qr, props.Rect{Percent: 90, Center: ticket})),
		))
	}
	if doc.Hash != "" {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New("Hash: "+doc.Hash, props.Text{Size: 6, Color: colorGray}),
		)))
	}
	rows = append(rows, row.New(6).Add(col.New(12).Add(
		text.New(
			"Representación impresa del comprobante electrónico. "+
				"Consulte su validez en el portal de SUNAT.",
			props.Text{Size: 6.5, Color: colorGray, Top: 1},
		),
	)))
	return rows
}

// qrPayload arma la cadena del QR según la convención SUNAT:
// RUC|TIPO|SERIE|NUMERO|IGV|TOTAL|FECHA|TIPO_DOC_CLIENTE|NUM_DOC_CLIENTE|HASH
func qrPayload(doc *entity.FiscalDocument, company *entity.Company) string {
	numero := doc.Numero()
	idx := strings.LastIndex(numero, "-")
	serie, num := numero, ""
	if idx != -1 {
		serie, num = numero[:idx], numero[idx+1:]
	}
	return strings.Join([]string{
		company.RUC,
		doc.TipoDoc,
		serie,
		num,
		doc.TotalIGV.StringFixed(2),
		doc.TotalVenta.StringFixed(2),
		doc.FechaEmision.Format("2006-01-02"),
		doc.ClienteTipoDoc,
		doc.ClienteNumDoc,
		doc.Hash,
	}, "|")
}

func tituloFor(tipoDoc string) string {
	if t, ok := tipoTitulos[tipoDoc]; ok {
		return t
	}
	return "COMPROBANTE ELECTRÓNICO"
}

func margenFor(formato string) float64 {
	if formato == billing.Formato80mm || formato == billing.Formato50mm {
		return 3
	}
	return 10
}

func fontSizeFor(formato string) float64 {
	if formato == billing.Formato80mm || formato == billing.Formato50mm {
		return 7
	}
	return 9
}

var _ billing.PDFRenderer = (*MarotoPDFGenerator)(nil)
