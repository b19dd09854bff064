package domain

// UserRecord is the authenticated user as the backend describes it.
// It is replaced wholesale on every login or token verification.
type UserRecord struct {
	Phone            string `json:"phone"`
	CompanyName      string `json:"companyName,omitempty"`
	ContactPerson    string `json:"contactPerson,omitempty"`
	Email            string `json:"email,omitempty"`
	HasSupplierData  bool   `json:"hasSupplierData"`
	SupplierID       string `json:"supplierId,omitempty"`
	ProfileCompleted bool   `json:"profileCompleted,omitempty"`
}

// Session is the authentication state of one browser session.
type Session struct {
	User            *UserRecord `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// Clone returns a copy that shares nothing with s.
func (s Session) Clone() Session {
	if s.User == nil {
		return s
	}
	u := *s.User
	return Session{User: &u, IsAuthenticated: s.IsAuthenticated}
}

// HasSupplierData reports whether the session's user already completed onboarding.
func (s Session) HasSupplierData() bool {
	return s.User != nil && s.User.HasSupplierData
}
