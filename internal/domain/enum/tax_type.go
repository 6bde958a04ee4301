package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TaxType says whether a policy's rate is already contained in quoted prices
type TaxType int

const (
	// TaxTypeExclusive adds tax on top of the taxable amount
	TaxTypeExclusive TaxType = 0
	// TaxTypeInclusive extracts tax from the taxable amount
	TaxTypeInclusive TaxType = 1
)

var taxTypeNames = map[TaxType]string{
	TaxTypeExclusive: "Exclusive",
	TaxTypeInclusive: "Inclusive",
}

func (t TaxType) String() string {
	if name, ok := taxTypeNames[t]; ok {
		return name
	}
	return taxTypeNames[TaxTypeExclusive]
}

func (t TaxType) IsInclusive() bool {
	return t == TaxTypeInclusive
}

// ParseTaxType accepts the names used by the tax policy feed, case-insensitively
func ParseTaxType(s string) (TaxType, error) {
	for t, name := range taxTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return t, nil
		}
	}
	return TaxTypeExclusive, fmt.Errorf("unknown tax type %q", s)
}

func (t TaxType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the name or the numeric value
func (t *TaxType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = TaxType(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTaxType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TaxType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = TaxTypeExclusive
	case int64:
		*t = TaxType(v)
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into TaxType", value)
	}
	return nil
}

func (t *TaxType) scanString(s string) error {
	parsed, err := ParseTaxType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
