package compliance

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	payload, err := Encode(Invoice{
		SellerName:   "Klik Store",
		VATNumber:    "300000000000003",
		Timestamp:    ts,
		InvoiceTotal: decimal.RequireFromString("103.5"),
		VATTotal:     decimal.RequireFromString("13.5"),
	})
	require.NoError(t, err)

	fields, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "Klik Store", fields[TagSellerName])
	assert.Equal(t, "300000000000003", fields[TagVATNumber])
	assert.Equal(t, "2026-03-14T09:30:00Z", fields[TagTimestamp])
	assert.Equal(t, "103.50", fields[TagInvoiceTotal])
	assert.Equal(t, "13.50", fields[TagVATTotal])
}

func TestEncodeRejectsLongField(t *testing.T) {
	_, err := Encode(Invoice{SellerName: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode("AQVLbGk=") // tag 1, length 5, only 3 bytes
	assert.Error(t, err)
}
