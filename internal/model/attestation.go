package model

// Attestation types recorded by the on-chain registries.
const (
	AttestationNationality = "nationality"
	AttestationAge         = "age"
	AttestationCompany     = "company"
)

// Combination logic for communities requiring more than one badge.
const (
	CombinationAND = "AND"
	CombinationOR  = "OR"
)

func IsValidAttestationType(t string) bool {
	switch t {
	case AttestationNationality, AttestationAge, AttestationCompany:
		return true
	}
	return false
}

func IsValidCombinationLogic(l string) bool {
	return l == CombinationAND || l == CombinationOR
}
