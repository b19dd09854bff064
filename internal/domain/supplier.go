package domain

import (
	"fmt"
	"time"
)

// ============================================================
// Procurement backend contract (request / response bodies)
// ============================================================

// GenerateOTPRequest is the body for POST /auth/generate-otp.
type GenerateOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone_digits"`
}

// GenerateOTPResponse is returned by POST /auth/generate-otp.
// OTP is only populated by backends running in development mode.
type GenerateOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OTP     string `json:"otp,omitempty"`
}

// VerifyOTPRequest is the body for POST /auth/verify-otp.
type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone_digits"`
	OTP   string `json:"otp" validate:"required,otp_code"`
}

// VerifyOTPResponse is returned by POST /auth/verify-otp.
type VerifyOTPResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    *UserRecord `json:"user"`
	Message string      `json:"message,omitempty"`
}

// VerifyTokenResponse is returned by GET /auth/verify-token.
type VerifyTokenResponse struct {
	Success bool        `json:"success"`
	User    *UserRecord `json:"user"`
}

// ProfileForm holds the company-profile fields, sent as multipart form data.
type ProfileForm struct {
	CompanyName    string  `json:"companyName" validate:"required_trimmed"`
	ContactPerson  string  `json:"contactPerson" validate:"required_trimmed"`
	Email          string  `json:"email" validate:"omitempty,email"`
	Phone          string  `json:"phone" validate:"required_trimmed"`
	Website        string  `json:"website"`
	TaxID          string  `json:"taxId"`
	Address        Address `json:"address"`
	ProfilePicture string  `json:"profilePicture,omitempty"`
}

// BusinessData is the body for PATCH /suppliers/{id}/business.
type BusinessData struct {
	Products          []Product   `json:"products"`
	BusinessType      []string    `json:"businessType"`
	YearsInBusiness   int         `json:"yearsInBusiness"`
	Warehouses        []Warehouse `json:"warehouses"`
	ShippingMethods   []string    `json:"shippingMethods"`
	DeliveryAreas     []string    `json:"deliveryAreas"`
	PaymentTerms      []string    `json:"paymentTerms"`
	PreferredCurrency string      `json:"preferredCurrency"`
	Documents         []Document  `json:"documents"`
}

// WithDefaults fills the fields the backend expects to always be present.
func (b BusinessData) WithDefaults() BusinessData {
	if b.Products == nil {
		b.Products = []Product{}
	}
	if b.BusinessType == nil {
		b.BusinessType = []string{}
	}
	if b.Warehouses == nil {
		b.Warehouses = []Warehouse{}
	}
	if b.ShippingMethods == nil {
		b.ShippingMethods = []string{}
	}
	if b.DeliveryAreas == nil {
		b.DeliveryAreas = []string{}
	}
	if b.PaymentTerms == nil {
		b.PaymentTerms = []string{}
	}
	if b.Documents == nil {
		b.Documents = []Document{}
	}
	if b.PreferredCurrency == "" {
		b.PreferredCurrency = DefaultCurrency
	}
	return b
}

// Supplier review states.
const (
	SupplierPending  = "Pending"
	SupplierApproved = "Approved"
	SupplierRejected = "Rejected"
)

// SupplierRecord is the backend-persisted supplier entity.
type SupplierRecord struct {
	ID     string `json:"_id"`
	Status string `json:"status,omitempty"`
	BusinessData
}

// DisplayStatus returns the review state, Pending when the backend sent none.
func (s SupplierRecord) DisplayStatus() string {
	switch s.Status {
	case SupplierApproved, SupplierRejected:
		return s.Status
	default:
		return SupplierPending
	}
}

// CreateSupplierResponse is returned by POST /suppliers. The body carries
// only the new record; a 2xx answer with an id is the success signal.
type CreateSupplierResponse struct {
	Supplier SupplierRecord `json:"supplier"`
	Message  string         `json:"message,omitempty"`
}

// BusinessUpdateResponse is returned by PATCH /suppliers/{id}/business.
type BusinessUpdateResponse struct {
	Success  bool            `json:"success"`
	Supplier *SupplierRecord `json:"supplier"`
	Message  string          `json:"message,omitempty"`
}

// SupplierUser is the user block of GET /suppliers/my-supplier; it carries the profile.
type SupplierUser struct {
	UserRecord
	Website string   `json:"website,omitempty"`
	TaxID   string   `json:"taxId,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// MySupplierResponse is returned by GET /suppliers/my-supplier.
type MySupplierResponse struct {
	Success  bool            `json:"success"`
	Supplier *SupplierRecord `json:"supplier"`
	User     *SupplierUser   `json:"user"`
}

// ProfileUpdateResponse is returned by PATCH /suppliers/profile.
type ProfileUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ============================================================
// Submission & dashboard views
// ============================================================

// Status shown after a successful submission.
const ApplicationUnderReview = "Under Review"

// SubmissionReceipt summarizes a completed submission for the success view.
type SubmissionReceipt struct {
	ApplicationID string    `json:"applicationId"`
	SupplierID    string    `json:"supplierId"`
	SubmittedAt   time.Time `json:"submittedAt"`
	Status        string    `json:"status"`
	ProductCount  int       `json:"productCount"`
}

// ApplicationID derives the display reference "SP-" + the last six digits of the
// submission time in unix milliseconds.
func ApplicationID(at time.Time) string {
	return fmt.Sprintf("SP-%06d", at.UnixMilli()%1_000_000)
}

// DashboardView is what an onboarded supplier sees on the dashboard.
type DashboardView struct {
	Supplier      SupplierRecord `json:"supplier"`
	Status        string         `json:"status"`
	Profile       ProfileForm    `json:"profile"`
	ProductCount  int            `json:"productCount"`
	DocumentCount int            `json:"documentCount"`
	User          *UserRecord    `json:"user"`
}

// ProfileUpload is a profile form ready for multipart upload; Picture holds
// the decoded (and normalized) profile picture bytes, if any.
type ProfileUpload struct {
	Form        ProfileForm
	Picture     []byte
	PictureType string
}
