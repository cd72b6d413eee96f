package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateMemoryBringsLegacyBlobForward(t *testing.T) {
	legacy := Memory{} // pre-versioned blob decoded with nil maps

	mem := MigrateMemory(legacy)

	assert.Equal(t, MemoryVersion, mem.Version)
	assert.NotNil(t, mem.CollectedData)
	assert.NotNil(t, mem.CompletedSteps)
	assert.NotNil(t, mem.Cart)

	mem.Set(FieldZipcode, "33101")
	assert.Equal(t, "33101", mem.Get(FieldZipcode))
}

func TestSetIsMergeOnly(t *testing.T) {
	mem := NewMemory()
	mem.Set(FieldName, "Ana")

	mem.Set(FieldName, "")
	assert.Equal(t, "Ana", mem.Get(FieldName), "an empty value must never clear collected data")

	mem.Set(FieldName, "Ana Souza")
	assert.Equal(t, "Ana Souza", mem.Get(FieldName), "a non-empty value overwrites")
}

func TestCompleteStepIdempotent(t *testing.T) {
	mem := NewMemory()
	mem.CompleteStep("serviceType")
	mem.CompleteStep("serviceType")

	assert.Equal(t, []string{"serviceType"}, mem.CompletedSteps)
}

func TestCartTotal(t *testing.T) {
	mem := NewMemory()
	mem.Cart = []CartLine{
		{ServiceID: "a", UnitPrice: 100, Quantity: 2, Price: 200},
		{ServiceID: "b", UnitPrice: 50, Quantity: 1, Price: 50},
	}

	assert.Equal(t, 250.0, mem.CartTotal())
}
