package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCountry  = "Indonesia"
	DefaultCurrency = "IDR"
)

// Address of the supplier company. Country is fixed and read-only for the user.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// AddressPatch carries a field-wise address edit. Country is not editable.
type AddressPatch struct {
	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
}

// Merge returns a copy of a with the present fields of p applied.
func (a Address) Merge(p AddressPatch) Address {
	if p.Street != nil {
		a.Street = *p.Street
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	return a
}

// Product is one catalog item the supplier offers, with its commercial terms.
type Product struct {
	EntryID          string  `json:"entryId,omitempty"`
	Category         string  `json:"category"`
	Subcategory      string  `json:"subcategory"`
	Name             string  `json:"name"`
	BrandName        string  `json:"brandName"`
	SelectedSize     string  `json:"selectedSize"`
	MinOrderQuantity float64 `json:"minOrderQuantity"`
	Price            float64 `json:"price"`
	Unit             string  `json:"unit"`
	LeadTime         string  `json:"leadTime,omitempty"`
	Description      string  `json:"description,omitempty"`
}

// Warehouse has no identity beyond its position, plus the generated EntryID.
type Warehouse struct {
	EntryID          string  `json:"entryId,omitempty"`
	WarehouseName    string  `json:"warehouseName"`
	Location         string  `json:"location"`
	HandlingCapacity float64 `json:"handlingCapacity"`
}

// Document is a verification document; DocumentImage is a data URI.
type Document struct {
	EntryID       string    `json:"entryId,omitempty"`
	DocumentID    string    `json:"documentId"`
	DocumentImage string    `json:"documentImage"`
	Description   string    `json:"description"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// ApplicationDraft accumulates the supplier application across the steps.
type ApplicationDraft struct {
	Products          []Product   `json:"products"`
	ProfilePicture    string      `json:"profilePicture"`
	CompanyName       string      `json:"companyName"`
	ContactPerson     string      `json:"contactPerson"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone"`
	Address           Address     `json:"address"`
	Website           string      `json:"website"`
	TaxID             string      `json:"taxId"`
	BusinessType      []string    `json:"businessType"`
	YearsInBusiness   int         `json:"yearsInBusiness"`
	Warehouses        []Warehouse `json:"warehouses"`
	ShippingMethods   []string    `json:"shippingMethods"`
	DeliveryAreas     []string    `json:"deliveryAreas"`
	PaymentTerms      []string    `json:"paymentTerms"`
	Documents         []Document  `json:"documents"`
	PreferredCurrency string      `json:"preferredCurrency"`
}

// NewDraft returns the empty draft a flow starts from.
func NewDraft() ApplicationDraft {
	return ApplicationDraft{
		Products:          []Product{},
		Address:           Address{Country: DefaultCountry},
		BusinessType:      []string{},
		Warehouses:        []Warehouse{},
		ShippingMethods:   []string{},
		DeliveryAreas:     []string{},
		PaymentTerms:      []string{},
		Documents:         []Document{},
		PreferredCurrency: DefaultCurrency,
	}
}

// DraftPatch is a partial update: nil fields are left untouched.
type DraftPatch struct {
	Products          *[]Product   `json:"products,omitempty"`
	ProfilePicture    *string      `json:"profilePicture,omitempty"`
	CompanyName       *string      `json:"companyName,omitempty"`
	ContactPerson     *string      `json:"contactPerson,omitempty"`
	Email             *string      `json:"email,omitempty"`
	Phone             *string      `json:"phone,omitempty"`
	Address           *Address     `json:"address,omitempty"`
	Website           *string      `json:"website,omitempty"`
	TaxID             *string      `json:"taxId,omitempty"`
	BusinessType      *[]string    `json:"businessType,omitempty"`
	YearsInBusiness   *int         `json:"yearsInBusiness,omitempty"`
	Warehouses        *[]Warehouse `json:"warehouses,omitempty"`
	ShippingMethods   *[]string    `json:"shippingMethods,omitempty"`
	DeliveryAreas     *[]string    `json:"deliveryAreas,omitempty"`
	PaymentTerms      *[]string    `json:"paymentTerms,omitempty"`
	Documents         *[]Document  `json:"documents,omitempty"`
	PreferredCurrency *string      `json:"preferredCurrency,omitempty"`
}

// Apply performs a shallow merge: each present key replaces the draft's value.
// Nested values (address) are replaced whole, never merged.
func (d *ApplicationDraft) Apply(p DraftPatch) {
	if p.Products != nil {
		d.Products = append([]Product{}, (*p.Products)...)
	}
	if p.ProfilePicture != nil {
		d.ProfilePicture = *p.ProfilePicture
	}
	if p.CompanyName != nil {
		d.CompanyName = *p.CompanyName
	}
	if p.ContactPerson != nil {
		d.ContactPerson = *p.ContactPerson
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.Address != nil {
		d.Address = *p.Address
	}
	if p.Website != nil {
		d.Website = *p.Website
	}
	if p.TaxID != nil {
		d.TaxID = *p.TaxID
	}
	if p.BusinessType != nil {
		d.BusinessType = append([]string{}, (*p.BusinessType)...)
	}
	if p.YearsInBusiness != nil {
		d.YearsInBusiness = *p.YearsInBusiness
	}
	if p.Warehouses != nil {
		d.Warehouses = append([]Warehouse{}, (*p.Warehouses)...)
	}
	if p.ShippingMethods != nil {
		d.ShippingMethods = append([]string{}, (*p.ShippingMethods)...)
	}
	if p.DeliveryAreas != nil {
		d.DeliveryAreas = append([]string{}, (*p.DeliveryAreas)...)
	}
	if p.PaymentTerms != nil {
		d.PaymentTerms = append([]string{}, (*p.PaymentTerms)...)
	}
	if p.Documents != nil {
		d.Documents = append([]Document{}, (*p.Documents)...)
	}
	if p.PreferredCurrency != nil {
		d.PreferredCurrency = *p.PreferredCurrency
	}
}

// Clone returns a deep copy, safe to hand out as a snapshot.
func (d ApplicationDraft) Clone() ApplicationDraft {
	c := d
	c.Products = append([]Product{}, d.Products...)
	c.BusinessType = append([]string{}, d.BusinessType...)
	c.Warehouses = append([]Warehouse{}, d.Warehouses...)
	c.ShippingMethods = append([]string{}, d.ShippingMethods...)
	c.DeliveryAreas = append([]string{}, d.DeliveryAreas...)
	c.PaymentTerms = append([]string{}, d.PaymentTerms...)
	c.Documents = append([]Document{}, d.Documents...)
	return c
}

// HasProducts reports whether the flow may go past product selection.
func (d ApplicationDraft) HasProducts() bool {
	return len(d.Products) > 0
}

// Profile extracts the company-profile fields sent when the supplier record is created.
func (d ApplicationDraft) Profile() ProfileForm {
	return ProfileForm{
		CompanyName:    d.CompanyName,
		ContactPerson:  d.ContactPerson,
		Email:          d.Email,
		Phone:          d.Phone,
		Website:        d.Website,
		TaxID:          d.TaxID,
		Address:        d.Address,
		ProfilePicture: d.ProfilePicture,
	}
}

// Business extracts the business fields patched onto the supplier record.
func (d ApplicationDraft) Business() BusinessData {
	return BusinessData{
		Products:          append([]Product{}, d.Products...),
		BusinessType:      append([]string{}, d.BusinessType...),
		YearsInBusiness:   d.YearsInBusiness,
		Warehouses:        append([]Warehouse{}, d.Warehouses...),
		ShippingMethods:   append([]string{}, d.ShippingMethods...),
		DeliveryAreas:     append([]string{}, d.DeliveryAreas...),
		PaymentTerms:      append([]string{}, d.PaymentTerms...),
		PreferredCurrency: d.PreferredCurrency,
		Documents:         append([]Document{}, d.Documents...),
	}
}

// ProductInput is a product as typed by the user: quantities and prices are
// still raw strings, checked for presence before they are coerced.
type ProductInput struct {
	Category         string `json:"category"`
	Subcategory      string `json:"subcategory"`
	Name             string `json:"name"`
	BrandName        string `json:"brandName"`
	SelectedSize     string `json:"selectedSize"`
	MinOrderQuantity string `json:"minOrderQuantity"`
	Price            string `json:"price"`
	Unit             string `json:"unit"`
	LeadTime         string `json:"leadTime"`
	Description      string `json:"description"`
}

// Complete reports whether brand, minimum order quantity and price are filled.
func (in ProductInput) Complete() bool {
	return strings.TrimSpace(in.BrandName) != "" &&
		strings.TrimSpace(in.MinOrderQuantity) != "" &&
		strings.TrimSpace(in.Price) != ""
}

// Product coerces the input; quantities that do not parse become 0.
func (in ProductInput) Product() Product {
	return Product{
		Category:         in.Category,
		Subcategory:      in.Subcategory,
		Name:             in.Name,
		BrandName:        in.BrandName,
		SelectedSize:     in.SelectedSize,
		MinOrderQuantity: ParseNumber(in.MinOrderQuantity),
		Price:            ParseNumber(in.Price),
		Unit:             in.Unit,
		LeadTime:         in.LeadTime,
		Description:      in.Description,
	}
}

// ParseNumber is lenient numeric coercion: anything unparsable, infinite or NaN is 0.
func ParseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
