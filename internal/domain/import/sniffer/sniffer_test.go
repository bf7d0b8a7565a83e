package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, Check(nil), ErrEmptyFile)
	})

	t.Run("not a pdf", func(t *testing.T) {
		assert.ErrorIs(t, Check([]byte("date,description,amount\n")), ErrNotPDF)
	})

	t.Run("pdf magic", func(t *testing.T) {
		assert.NoError(t, Check([]byte("%PDF-1.7\n%âãÏÓ\n")))
	})

	t.Run("magic after leading garbage", func(t *testing.T) {
		assert.NoError(t, Check(append([]byte("\x00\x00junk"), []byte("%PDF-1.4")...)))
	})
}

func TestSniff(t *testing.T) {
	t.Run("rejects truncated pdf", func(t *testing.T) {
		_, err := Sniff([]byte("%PDF-1.4\n1 0 obj\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("rejects non pdf before parsing", func(t *testing.T) {
		_, err := Sniff([]byte("hello"))
		assert.ErrorIs(t, err, ErrNotPDF)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("invoice-a"))
	b := Fingerprint([]byte("invoice-b"))

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint([]byte("invoice-a")))
}

func TestLayoutFingerprint(t *testing.T) {
	first := []string{"Tax Invoice", "Invoice Number", "INV-001", "Order Id", "12345", "Sr. no", "Item Description"}
	second := []string{"Tax Invoice", "Invoice Number", "INV-999", "Order Id", "67890", "Sr. no", "Item Description"}
	other := []string{"Invoice No.: Z1", "SR", "Item & Description", "HSN"}

	assert.Equal(t, LayoutFingerprint(first, 0), LayoutFingerprint(second, 0))
	assert.NotEqual(t, LayoutFingerprint(first, 0), LayoutFingerprint(other, 0))

	t.Run("limit caps label count", func(t *testing.T) {
		long := append(append([]string(nil), first...), "Extra", "Labels")
		assert.Equal(t, LayoutFingerprint(first, 5), LayoutFingerprint(long, 5))
	})
}
