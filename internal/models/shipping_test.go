package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddressStructured(t *testing.T) {
	addr := ParseAddress("Rue de la Loi 16, Namur, Namur, 5000")
	assert.Equal(t, AddressStructured, addr.Kind)
	assert.Equal(t, "Rue de la Loi 16", addr.Address1)
	assert.Equal(t, "Namur", addr.City)
	assert.Equal(t, "Namur", addr.State)
	assert.Equal(t, "5000", addr.Postcode)
}

func TestParseAddressThreeSegments(t *testing.T) {
	// Sans région : rue, ville, code postal
	addr := ParseAddress("Avenue Louise 54, Bruxelles, 1050")
	assert.Equal(t, AddressStructured, addr.Kind)
	assert.Equal(t, "Avenue Louise 54", addr.Address1)
	assert.Equal(t, "Bruxelles", addr.City)
	assert.Empty(t, addr.State)
	assert.Equal(t, "1050", addr.Postcode)
}

func TestParseAddressFallsBackToRaw(t *testing.T) {
	cases := []string{
		"chez Mme Dubois, 3e étage",              // pas assez de segments
		"Rue Haute 1, Bruxelles, pas-un-code!!!", // code postal invalide
		"quelque part",
	}
	for _, raw := range cases {
		addr := ParseAddress(raw)
		assert.Equal(t, AddressRawOnly, addr.Kind, "%q doit retomber en texte libre", raw)
		assert.Equal(t, raw, addr.Raw)
		assert.Empty(t, addr.Postcode)
	}
}

func TestParseAddressIgnoresEmptySegments(t *testing.T) {
	addr := ParseAddress("Rue Haute 1, , Bruxelles,  , 1000")
	assert.Equal(t, AddressStructured, addr.Kind)
	assert.Equal(t, "Rue Haute 1", addr.Address1)
	assert.Equal(t, "Bruxelles", addr.City)
	assert.Equal(t, "1000", addr.Postcode)
}

func TestLooksLikePostcode(t *testing.T) {
	assert.True(t, looksLikePostcode("1000"))
	assert.True(t, looksLikePostcode("SW1A 1AA"))
	assert.True(t, looksLikePostcode("75-008"))
	assert.False(t, looksLikePostcode(""))
	assert.False(t, looksLikePostcode("pas-un-code!!!"))
	assert.False(t, looksLikePostcode("ABCDE"), "un code postal contient au moins un chiffre")
}
