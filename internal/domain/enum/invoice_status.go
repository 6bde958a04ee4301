package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// InvoiceStatus represents the lifecycle state of a sales or return invoice
type InvoiceStatus int

const (
	InvoiceStatusDraft      InvoiceStatus = 0
	InvoiceStatusPaid       InvoiceStatus = 1
	InvoiceStatusPartlyPaid InvoiceStatus = 2
	InvoiceStatusUnpaid     InvoiceStatus = 3
	InvoiceStatusReturn     InvoiceStatus = 4
	InvoiceStatusCancelled  InvoiceStatus = 5
)

var invoiceStatusNames = [...]string{"Draft", "Paid", "Partly Paid", "Unpaid", "Return", "Cancelled"}

func (s InvoiceStatus) String() string {
	if int(s) < 0 || int(s) >= len(invoiceStatusNames) {
		return "Draft"
	}
	return invoiceStatusNames[s]
}

// IsReturnable reports whether goods sold on an invoice in this state can be returned.
func (s InvoiceStatus) IsReturnable() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusPartlyPaid, InvoiceStatusUnpaid:
		return true
	}
	return false
}

func (s InvoiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = InvoiceStatus(i)
		return nil
	}
	for i, name := range invoiceStatusNames {
		if name == str {
			*s = InvoiceStatus(i)
			return nil
		}
	}
	return nil
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = InvoiceStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = InvoiceStatus(v)
	case int:
		*s = InvoiceStatus(v)
	}
	return nil
}
