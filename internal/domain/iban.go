package domain

// Iban is an account number that passed pattern validation.
type Iban struct {
	value string
}

func (i Iban) String() string { return i.value }

// Bic is a SWIFT bank identifier that passed pattern validation.
type Bic struct {
	value string
}

func (b Bic) String() string { return b.value }
