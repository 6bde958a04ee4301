package enum

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// SettlementMode decides whether an invoice must be fully paid before it can
// be completed.
type SettlementMode int

const (
	// SettlementModeImmediate requires full payment before completion.
	SettlementModeImmediate SettlementMode = 0
	// SettlementModeDeferred allows partial or zero payment; the outstanding
	// balance is carried forward on the invoice.
	SettlementModeDeferred SettlementMode = 1
)

func (m SettlementMode) String() string {
	names := [...]string{"Immediate", "Deferred"}
	if int(m) < 0 || int(m) >= len(names) {
		return "Immediate"
	}
	return names[m]
}

// SettlementModeForBusinessType maps the POS profile business type onto a
// settlement mode. B2B profiles sell on account; everything else is paid at
// the counter.
func SettlementModeForBusinessType(businessType string) SettlementMode {
	if strings.EqualFold(strings.TrimSpace(businessType), "B2B") {
		return SettlementModeDeferred
	}
	return SettlementModeImmediate
}

func (m SettlementMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *SettlementMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = SettlementMode(i)
		return nil
	}
	switch str {
	case "Immediate":
		*m = SettlementModeImmediate
	case "Deferred":
		*m = SettlementModeDeferred
	}
	return nil
}

func (m SettlementMode) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *SettlementMode) Scan(value interface{}) error {
	if value == nil {
		*m = SettlementModeImmediate
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = SettlementMode(v)
	case int:
		*m = SettlementMode(v)
	}
	return nil
}
