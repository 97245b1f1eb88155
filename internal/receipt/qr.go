package receipt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"storefront/internal/models"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

var ErrInvalidPayload = errors.New("invalid order QR payload")

// qrClaims is what the pickup desk reads back from the code.
type qrClaims struct {
	OrderNumber string `json:"n"`
	OrderID     int64  `json:"i"`
}

// QRGenerator signs order references so a scanned code can be trusted.
type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret))
	return &QRGenerator{secret: hashed[:]}
}

// Payload → base64url(claims) "." base64url(hmac)
func (q *QRGenerator) Payload(o *models.Order) (string, error) {
	data, err := json.Marshal(qrClaims{OrderNumber: o.OrderNumber, OrderID: o.ID})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(data)
	return body + "." + q.sign(body), nil
}

// PNG renders the signed payload as a QR image.
func (q *QRGenerator) PNG(o *models.Order) ([]byte, error) {
	payload, err := q.Payload(o)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(payload, qrcode.Medium, qrSize)
}

// Parse checks the signature and returns the order id and number it names.
func (q *QRGenerator) Parse(payload string) (int64, string, error) {
	body, sig, ok := strings.Cut(strings.TrimSpace(payload), ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(q.sign(body))) {
		return 0, "", ErrInvalidPayload
	}
	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return 0, "", ErrInvalidPayload
	}
	var c qrClaims
	if err := json.Unmarshal(data, &c); err != nil || c.OrderID <= 0 {
		return 0, "", ErrInvalidPayload
	}
	return c.OrderID, c.OrderNumber, nil
}

func (q *QRGenerator) sign(body string) string {
	mac := hmac.New(sha256.New, q.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
