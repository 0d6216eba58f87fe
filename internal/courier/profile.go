package courier

import (
	"strings"

	"velora_back_end/internal/config"
	"velora_back_end/internal/errs"
	"velora_back_end/internal/models"
)

// Valeurs validées imposées par l'environnement de test du transporteur :
// son sandbox rejette toute adresse hors de son référentiel, on force donc
// une localité connue en gardant la ligne de rue du client quand on l'a.
const (
	sandboxCity     = "Bruxelles"
	sandboxState    = "Bruxelles-Capitale"
	sandboxPostcode = "1000"
	sandboxCountry  = "BE"
)

// Conversion forfaitaire EUR→USD du COD en sandbox (le sandbox ne règle qu'en USD)
const sandboxCODRate = 1.10

// wireAddress : l'adresse au format attendu par l'API du transporteur
type wireAddress struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// normalizeAddress applique le profil d'adresse de l'environnement.
// Production : l'adresse validée passe telle quelle.
// Sandbox : ville/région/pays/code postal sont remplacés par les valeurs
// validées fixes, la ligne de rue du client est conservée si possible.
func normalizeAddress(env string, addr models.Address) (wireAddress, error) {
	street := addr.Address1
	if street == "" {
		street = addr.Raw
	}
	if strings.TrimSpace(street) == "" {
		return wireAddress{}, errs.NewValidation("address", "adresse de livraison vide")
	}

	if env == config.EnvSandbox {
		return wireAddress{
			Address1: street,
			City:     sandboxCity,
			State:    sandboxState,
			Postcode: sandboxPostcode,
			Country:  sandboxCountry,
		}, nil
	}

	if addr.Kind != models.AddressStructured {
		return wireAddress{}, errs.NewValidation("address", "adresse non décomposable, saisie structurée requise")
	}
	country := addr.Country
	if country == "" {
		country = "BE"
	}
	return wireAddress{
		Address1: addr.Address1,
		City:     addr.City,
		State:    addr.State,
		Postcode: addr.Postcode,
		Country:  country,
	}, nil
}

// NormalizePhone met un numéro au format international du pays de destination.
// Profils supportés : BE (+32) et FR (+33).
func NormalizePhone(country, phone string) (string, error) {
	digits := keepDigits(phone)
	if digits == "" {
		return "", errs.NewValidation("phone", "numéro de téléphone vide")
	}

	var prefix, national string
	switch strings.ToUpper(country) {
	case "", "BE":
		prefix, national = "32", strings.TrimPrefix(digits, "32")
	case "FR":
		prefix, national = "33", strings.TrimPrefix(digits, "33")
	default:
		// Pays sans profil : on exige un numéro déjà international
		if len(digits) < 8 || len(digits) > 15 {
			return "", errs.NewValidation("phone", "numéro international invalide pour "+country)
		}
		return "+" + digits, nil
	}

	national = strings.TrimLeft(national, "0")
	if len(national) < 8 || len(national) > 10 {
		return "", errs.NewValidation("phone", "numéro de téléphone invalide")
	}
	return "+" + prefix + national, nil
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parcelWeightKg estime le poids du colis à partir de la quantité totale
// d'articles quand aucun poids explicite n'est connu : 500 g par article,
// minimum 1 kg.
func parcelWeightKg(totalQuantity int) float64 {
	w := 0.5 * float64(totalQuantity)
	if w < 1.0 {
		return 1.0
	}
	return w
}

// codForEnv retourne le montant et la devise du contre-remboursement selon
// l'environnement (conversion forfaitaire en sandbox)
func codForEnv(env string, amountEUR float64) (float64, string) {
	if env == config.EnvSandbox {
		return roundCents(amountEUR * sandboxCODRate), "USD"
	}
	return roundCents(amountEUR), "EUR"
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
