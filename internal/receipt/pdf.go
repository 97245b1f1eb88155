package receipt

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strings"

	"storefront/internal/config"
	"storefront/internal/models"

	"github.com/signintech/gopdf"
)

const fontName = "receipt"

// PDFGenerator lays out a printable receipt for the packing table.
type PDFGenerator struct {
	FontPath  string
	StoreName string
}

func NewPDFGenerator(cfg config.ReceiptConfig) *PDFGenerator {
	return &PDFGenerator{FontPath: cfg.FontPath, StoreName: cfg.StoreName}
}

// Available reports whether the configured font can be read.
func (g *PDFGenerator) Available() bool {
	_, err := os.Stat(g.FontPath)
	return err == nil
}

func (g *PDFGenerator) Generate(o *models.Order, qrPNG []byte) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont(fontName, g.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", g.FontPath, err)
	}

	if err := pdf.SetFont(fontName, "", 18); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetXY(40, 40)
	pdf.Cell(nil, g.StoreName)

	if err := pdf.SetFont(fontName, "", 11); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetXY(40, 75)
	addOrderInfo(pdf, o)

	pdf.SetY(pdf.GetY() + 15)
	addItems(pdf, o)

	if len(qrPNG) > 0 {
		addQRCode(pdf, qrPNG)
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addOrderInfo(pdf *gopdf.GoPdf, o *models.Order) {
	payment := "Cash on delivery"
	if o.PaymentMethod == models.PaymentCard {
		payment = "Card"
	}
	info := []struct {
		Label string
		Value string
	}{
		{"Order", o.OrderNumber},
		{"Placed", o.CreatedAt.Format("2006-01-02 15:04")},
		{"Status", title(o.Status)},
		{"Customer", o.CustomerName},
		{"Phone", o.CustomerPhone},
		{"Address", o.CustomerAddress},
		{"Payment", payment},
	}
	for _, item := range info {
		pdf.SetX(40)
		pdf.Cell(nil, item.Label+": "+item.Value)
		pdf.Br(18)
	}
}

func addItems(pdf *gopdf.GoPdf, o *models.Order) {
	var subtotal float64
	for _, it := range o.Items {
		name := it.ProductName
		if it.Variant != nil && *it.Variant != "" {
			name += " (" + *it.Variant + ")"
		}
		if it.Size != nil && *it.Size != "" {
			name += " / " + *it.Size
		}
		line := it.Price * float64(it.Quantity)
		subtotal += line

		pdf.SetX(40)
		pdf.Cell(nil, fmt.Sprintf("%d x %s", it.Quantity, name))
		pdf.SetX(460)
		pdf.Cell(nil, fmt.Sprintf("%.2f", line))
		pdf.Br(18)
	}

	pdf.Br(6)
	pdf.Line(40, pdf.GetY(), 555, pdf.GetY())
	pdf.Br(8)
	if shipping := o.TotalAmount - subtotal; shipping > 0.004 {
		pdf.SetX(40)
		pdf.Cell(nil, "Shipping")
		pdf.SetX(460)
		pdf.Cell(nil, fmt.Sprintf("%.2f", shipping))
		pdf.Br(18)
	}
	pdf.SetX(40)
	pdf.Cell(nil, "Total")
	pdf.SetX(460)
	pdf.Cell(nil, fmt.Sprintf("%.2f", o.TotalAmount))
	pdf.Br(24)
}

func addQRCode(pdf *gopdf.GoPdf, qrPNG []byte) {
	img, err := png.Decode(bytes.NewReader(qrPNG))
	if err != nil {
		pdf.SetX(40)
		pdf.Cell(nil, "QR code unavailable")
		return
	}
	if err := pdf.ImageFrom(img, 40, pdf.GetY(), &gopdf.Rect{W: 110, H: 110}); err != nil {
		pdf.SetX(40)
		pdf.Cell(nil, "QR code unavailable")
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
