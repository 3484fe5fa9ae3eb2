package domain

import "errors"

// ErrInvalidBankCode is returned when a bank code is outside the closed
// enumeration. Unknown codes are never defaulted silently.
var ErrInvalidBankCode = errors.New("invalid bank code")

// bankNames is the stable bank-code enumeration shared by the ledger and the
// notification pipeline. Indexes are part of the wire contract.
var bankNames = map[int]string{
	1:  "SSOK Bank",
	2:  "Kakao Bank",
	3:  "Kookmin Bank",
	4:  "Shinhan Bank",
	5:  "Woori Bank",
	6:  "Hana Bank",
	7:  "NH Bank",
	8:  "IBK Bank",
	9:  "K-Bank",
	10: "Toss Bank",
}

// BankName resolves the human-readable display name for a bank code.
func BankName(code int) (string, error) {
	name, ok := bankNames[code]
	if !ok {
		return "", ErrInvalidBankCode
	}
	return name, nil
}

// ValidBankCode reports whether the code is part of the enumeration.
func ValidBankCode(code int) bool {
	_, ok := bankNames[code]
	return ok
}
