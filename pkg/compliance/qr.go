// Package compliance builds the e-invoice QR payload printed on simplified
// tax invoices: tag-length-value fields, base64 encoded.
package compliance

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TagSellerName byte = iota + 1
	TagVATNumber
	TagTimestamp
	TagInvoiceTotal
	TagVATTotal
)

// ErrFieldTooLong is returned when a value does not fit a one byte length
var ErrFieldTooLong = errors.New("qr field longer than 255 bytes")

// Invoice holds the fields encoded into the QR payload
type Invoice struct {
	SellerName   string
	VATNumber    string
	Timestamp    time.Time
	InvoiceTotal decimal.Decimal
	VATTotal     decimal.Decimal
}

// Encode returns the base64 TLV payload
func Encode(inv Invoice) (string, error) {
	fields := []struct {
		tag   byte
		value string
	}{
		{TagSellerName, inv.SellerName},
		{TagVATNumber, inv.VATNumber},
		{TagTimestamp, inv.Timestamp.UTC().Format(time.RFC3339)},
		{TagInvoiceTotal, inv.InvoiceTotal.StringFixed(2)},
		{TagVATTotal, inv.VATTotal.StringFixed(2)},
	}

	var buf []byte
	for _, f := range fields {
		if len(f.value) > 255 {
			return "", fmt.Errorf("tag %d: %w", f.tag, ErrFieldTooLong)
		}
		buf = append(buf, f.tag, byte(len(f.value)))
		buf = append(buf, f.value...)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decode parses a payload produced by Encode into tag -> value
func Decode(payload string) (map[byte]string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	out := make(map[byte]string)
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return nil, errors.New("truncated tlv header")
		}
		tag, n := raw[i], int(raw[i+1])
		i += 2
		if i+n > len(raw) {
			return nil, errors.New("truncated tlv value")
		}
		out[tag] = string(raw[i : i+n])
		i += n
	}
	return out, nil
}
