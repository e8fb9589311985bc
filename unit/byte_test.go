package unit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neura-neura/sp0t-dl-tg/unit"
)

func TestDecimal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "999 B", unit.Decimal(999))
	assert.Equal(t, "1.5 kB", unit.Decimal(1500))
	assert.Equal(t, "50.0 MB", unit.Decimal(50*unit.Megabyte))
	assert.Equal(t, "2.3 GB", unit.Decimal(2_300_000_000))
}
