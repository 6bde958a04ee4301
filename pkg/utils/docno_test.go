package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocumentNo(t *testing.T) {
	a := NewDocumentNo(PrefixReturn)
	b := NewDocumentNo(PrefixReturn)

	assert.Regexp(t, `^SRET-[0-9A-F]{8}$`, a)
	assert.NotEqual(t, a, b)
}
