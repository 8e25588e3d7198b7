package api

// Account is a profile stored on the identity server.
type Account struct {
	ID          string
	Name        *Name
	Email       string
	Phone       string
	Claims      []Claim
	PhotoBase64 string
}

type Name struct {
	FirstName  string
	LastName   string
	MiddleName string
}

// Claim is a typed value attached to an account. Value may be empty.
type Claim struct {
	Type  string
	Value string
}

type accountResponse struct {
	ID          string          `json:"id"`
	FullName    *fullName       `json:"fullName,omitempty"`
	Email       string          `json:"email,omitempty"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Claims      []claimResponse `json:"claims"`
	Photo       string          `json:"photo,omitempty"`
}

type fullName struct {
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
}

type claimResponse struct {
	Type  string  `json:"type"`
	Value *string `json:"value,omitempty"`
}

func (r accountResponse) toAccount() *Account {
	account := &Account{
		ID:          r.ID,
		Email:       r.Email,
		Phone:       r.PhoneNumber,
		Claims:      make([]Claim, 0, len(r.Claims)),
		PhotoBase64: r.Photo,
	}
	if r.FullName != nil {
		account.Name = &Name{
			FirstName:  r.FullName.FirstName,
			LastName:   r.FullName.LastName,
			MiddleName: r.FullName.MiddleName,
		}
	}
	for _, c := range r.Claims {
		claim := Claim{Type: c.Type}
		if c.Value != nil {
			claim.Value = *c.Value
		}
		account.Claims = append(account.Claims, claim)
	}
	return account
}

// Claim returns the value of the first claim of the given type.
func (a *Account) Claim(claimType string) (string, bool) {
	for _, c := range a.Claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

type claimRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func toFullName(n *Name) *fullName {
	if n == nil {
		return nil
	}
	return &fullName{FirstName: n.FirstName, LastName: n.LastName, MiddleName: n.MiddleName}
}

func toClaimRequests(claims []Claim) []claimRequest {
	out := make([]claimRequest, 0, len(claims))
	for _, c := range claims {
		out = append(out, claimRequest{Type: c.Type, Value: c.Value})
	}
	return out
}
