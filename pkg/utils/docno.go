package utils

import (
	"strings"

	"github.com/google/uuid"
)

// Document number prefixes
const (
	PrefixSale   = "SINV"
	PrefixDraft  = "HOLD"
	PrefixReturn = "SRET"
)

// NewDocumentNo generates a unique document number, e.g. SINV-1A2B3C4D
func NewDocumentNo(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.New().String()[:8])
}
