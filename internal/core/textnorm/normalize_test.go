package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	got := Normalize("Acme Co  \r\nInvoice #12\r\r\n\n\n\nTotal $5.00\t \n")

	assert.Equal(t, "Acme Co\nInvoice #12\n\nTotal $5.00\n", got.String())
	assert.Equal(t, 5, got.LineCount())
	assert.Equal(t, "Total $5.00", got.Line(3))
	assert.Equal(t, "", got.Line(-1))
	assert.Equal(t, "", got.Line(99))
}

func TestNormalizeEmpty(t *testing.T) {
	for _, in := range []string{"", "   \t", "\n\n\n"} {
		got := Normalize(in)
		assert.True(t, got.Empty(), "%q", in)
	}
	assert.Equal(t, 0, Normalize("").LineCount())
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize("a \r\n\r\n\r\n\r\nb  \n")
	twice := Normalize(once.String())
	assert.Equal(t, once.String(), twice.String())
}

func TestLinesReturnsCopy(t *testing.T) {
	text := Normalize("one\ntwo")
	lines := text.Lines()
	lines[0] = "changed"
	assert.Equal(t, "one", text.Line(0))
}
