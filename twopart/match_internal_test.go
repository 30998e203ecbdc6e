package twopart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DEFRA/water-abstraction-service-sub002/generic"
)

func TestAllocateWithinAllowance_CapsAtHeadroom(t *testing.T) {
	// GIVEN: an element at 5.99 of a 5.9996 allowance and a 0.02269 reading
	el := &PreparedElement{
		ProRataAuthorisedQuantity: generic.MustParseDecimal("5.9996"),
		ActualReturnQuantity:      generic.MustParseDecimal("5.99"),
	}
	line := &PreparedLine{Quantity: generic.MustParseDecimal("0.02269")}

	// WHEN: allocated within the allowance
	got := allocateWithinAllowance(el, line, line.Quantity)

	// THEN: only the 0.0096 headroom moves
	assert.Equal(t, "0.0096", got.String())
	assert.Equal(t, "5.9996", el.ActualReturnQuantity.String())
	assert.Equal(t, "0.0096", line.QuantityAllocated.String())
	assert.Equal(t, "0.01309", line.Unallocated().String())
}

func TestAllocateWithinAllowance_NoHeadroom(t *testing.T) {
	el := &PreparedElement{
		ProRataAuthorisedQuantity: generic.MustParseDecimal("5"),
		ActualReturnQuantity:      generic.MustParseDecimal("5"),
	}
	line := &PreparedLine{Quantity: generic.MustParseDecimal("1")}

	got := allocateWithinAllowance(el, line, line.Quantity)

	assert.True(t, got.IsZero())
	assert.True(t, line.QuantityAllocated.IsZero())
}
