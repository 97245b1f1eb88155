package receipt

import (
	"bytes"
	"image/png"
	"os"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *models.Order {
	variant := "Black"
	size := "M"
	return &models.Order{
		ID:              42,
		OrderNumber:     "ORD-20240501-ABCDEF",
		CustomerName:    "Ana",
		CustomerPhone:   "5550102030",
		CustomerAddress: "12 Main St",
		TotalAmount:     45,
		Status:          models.StatusPending,
		PaymentMethod:   models.PaymentCOD,
		CreatedAt:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Items: []*models.OrderItem{
			{ProductName: "Tour Tee", Variant: &variant, Size: &size, Quantity: 2, Price: 20},
		},
	}
}

func TestQRPayloadRoundTrip(t *testing.T) {
	q := NewQRGenerator("secret")

	payload, err := q.Payload(sampleOrder())
	require.NoError(t, err)

	id, number, err := q.Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "ORD-20240501-ABCDEF", number)
}

func TestQRPayloadRejectsTampering(t *testing.T) {
	q := NewQRGenerator("secret")
	payload, err := q.Payload(sampleOrder())
	require.NoError(t, err)

	_, _, err = NewQRGenerator("other").Parse(payload)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = q.Parse("x" + payload)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = q.Parse("no-dot")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestQRPNG(t *testing.T) {
	data, err := NewQRGenerator("secret").PNG(sampleOrder())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
}

func TestPDFMissingFont(t *testing.T) {
	g := &PDFGenerator{FontPath: "/nonexistent/font.ttf", StoreName: "Merch"}
	assert.False(t, g.Available())

	_, err := g.Generate(sampleOrder(), nil)
	assert.Error(t, err)
}

func TestPDFGenerate(t *testing.T) {
	font := os.Getenv("RECEIPT_TEST_FONT")
	if font == "" {
		t.Skip("set RECEIPT_TEST_FONT to a .ttf file to render a receipt")
	}
	q := NewQRGenerator("secret")
	qr, err := q.PNG(sampleOrder())
	require.NoError(t, err)

	g := &PDFGenerator{FontPath: font, StoreName: "Merch"}
	out, err := g.Generate(sampleOrder(), qr)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
