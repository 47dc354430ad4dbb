package edi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementIsOneBased(t *testing.T) {
	seg := NewSegment("UM", "HS", "I", "48")

	assert.Equal(t, "HS", seg.Element(1))
	assert.Equal(t, "I", seg.Element(2))
	assert.Equal(t, "48", seg.Element(3))
	assert.Equal(t, "", seg.Element(4), "omitted trailing elements read as empty")
	assert.Equal(t, "", seg.Element(0))
	assert.Equal(t, "", seg.Element(-1))
}

func TestEntityLookup(t *testing.T) {
	tx := NewTransaction(AuthorizationRequest, "0001").Append(
		NewSegment("BHT", "0007", "13", "REF001"),
		NewSegment("NM1", "X3", "2", "ACME HEALTH PLAN"),
		NewSegment("NM1", "IL", "1", "DOE", "JANE", "", "", "", "MI", "MBR0001"),
		NewSegment("NM1", "1P", "1", "WELBY", "MARCUS"),
		NewSegment("REF", "SY", "123456789"),
	)

	member, found := tx.Entity("NM1", "IL")
	assert.True(t, found)
	assert.Equal(t, "DOE", member.Element(3))
	assert.Equal(t, "MBR0001", member.Element(9))

	_, found = tx.Entity("NM1", "QC")
	assert.False(t, found)

	assert.Len(t, tx.All("NM1"), 3)
	assert.Len(t, tx.EntityAll("NM1", "1P"), 1)
}

func TestFirstPreservesOrder(t *testing.T) {
	tx := NewTransaction(ClaimSubmission, "0002").Append(
		NewSegment("DTP", "472", "D8", "20240105"),
		NewSegment("DTP", "435", "D8", "20240101"),
	)

	first, found := tx.First("DTP")
	assert.True(t, found)
	assert.Equal(t, "472", first.Qualifier())

	_, found = tx.First("CLM")
	assert.False(t, found)
}

func TestLoopSlicing(t *testing.T) {
	tx := NewTransaction(AuthorizationRequest, "0003").Append(
		NewSegment("BHT", "0007", "13", "REF003"),
		NewSegment("HL", "1", "", "20", "1"),
		NewSegment("NM1", "X3", "2", "ACME HEALTH PLAN"),
		NewSegment("HL", "2", "1", "22", "1"),
		NewSegment("NM1", "IL", "1", "DOE", "JANE"),
		NewSegment("DMG", "D8", "19830522", "F"),
		NewSegment("HL", "3", "2", "19", "0"),
		NewSegment("NM1", "1P", "1", "WELBY", "MARCUS"),
	)

	subscriber := tx.Loop("22")
	assert.Len(t, subscriber, 2)
	assert.Equal(t, "NM1", subscriber[0].ID)
	assert.Equal(t, "DMG", subscriber[1].ID)

	// The last loop runs to the end of the transaction.
	provider := tx.Loop("19")
	assert.Len(t, provider, 1)
	assert.Equal(t, "1P", provider[0].Qualifier())

	assert.Nil(t, tx.Loop("23"))
}
