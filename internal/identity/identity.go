// Package identity validates Ecuadorian taxpayer identifiers: the 10-digit
// cédula and the 13-digit RUC.
//
// Both validators are pure functions over ASCII digit strings. Malformed
// input (wrong length, non-digits) returns false, never an error.
//
// Mod-11 check values of 10 and 11 are remapped to 1 and 0 respectively,
// matching the SRI remainder table. The same remap is used by the access key
// check digit in internal/accesskey.
package identity

// TaxpayerKind classifies a RUC by its third digit.
type TaxpayerKind int

const (
	KindUnknown TaxpayerKind = iota
	KindNaturalPerson
	KindPublicEntity
	KindPrivateCompany
)

func (k TaxpayerKind) String() string {
	switch k {
	case KindNaturalPerson:
		return "natural_person"
	case KindPublicEntity:
		return "public_entity"
	case KindPrivateCompany:
		return "private_company"
	default:
		return "unknown"
	}
}

// headOfficeSuffix is the mandatory final segment of every RUC.
const headOfficeSuffix = "001"

var (
	cedulaWeights         = [9]int{2, 1, 2, 1, 2, 1, 2, 1, 2}
	publicEntityWeights   = [8]int{3, 2, 7, 6, 5, 4, 3, 2}
	privateCompanyWeights = [9]int{4, 3, 2, 7, 6, 5, 4, 3, 2}
)

// KindOf returns the taxpayer kind encoded in the third digit of a RUC or
// cédula. It does not validate the checksum.
func KindOf(id string) TaxpayerKind {
	if len(id) < 3 || !allDigits(id[:3]) {
		return KindUnknown
	}
	switch d := id[2] - '0'; {
	case d < 6:
		return KindNaturalPerson
	case d == 6:
		return KindPublicEntity
	case d == 9:
		return KindPrivateCompany
	default:
		return KindUnknown
	}
}

// ValidateNationalID reports whether id is a valid 10-digit cédula.
func ValidateNationalID(id string) bool {
	if len(id) != 10 || !allDigits(id) {
		return false
	}

	// Region code 01..24
	region := int(id[0]-'0')*10 + int(id[1]-'0')
	if region < 1 || region > 24 {
		return false
	}

	// Third digit 0..6 for natural persons
	if id[2]-'0' > 6 {
		return false
	}

	sum := 0
	for i, w := range cedulaWeights {
		v := int(id[i]-'0') * w
		if v > 9 {
			v -= 9
		}
		sum += v
	}
	check := (10 - sum%10) % 10

	return check == int(id[9]-'0')
}

// ValidateTaxID reports whether id is a valid 13-digit RUC.
func ValidateTaxID(id string) bool {
	if len(id) != 13 || !allDigits(id) {
		return false
	}
	if id[10:] != headOfficeSuffix {
		return false
	}

	switch KindOf(id) {
	case KindNaturalPerson:
		return ValidateNationalID(id[:10])
	case KindPublicEntity:
		return validatePublicEntity(id)
	case KindPrivateCompany:
		return validatePrivateCompany(id)
	default:
		return false
	}
}

func validatePublicEntity(id string) bool {
	sum := 0
	for i, w := range publicEntityWeights {
		sum += int(id[i]-'0') * w
	}
	return mod11Check(sum) == int(id[8]-'0')
}

func validatePrivateCompany(id string) bool {
	sum := 0
	for i, w := range privateCompanyWeights {
		sum += int(id[i]-'0') * w
	}
	return mod11Check(sum) == int(id[9]-'0')
}

// mod11Check computes 11 - (sum mod 11) with 11 mapped to 0 and 10 mapped
// to 1, per the SRI remainder table.
func mod11Check(sum int) int {
	check := 11 - sum%11
	switch check {
	case 11:
		return 0
	case 10:
		return 1
	default:
		return check
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
