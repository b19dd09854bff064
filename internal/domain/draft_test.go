package domain_test

import (
	"testing"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewDraft_Defaults(t *testing.T) {
	d := domain.NewDraft()

	assert.Empty(t, d.Products)
	assert.NotNil(t, d.Products)
	assert.Equal(t, "Indonesia", d.Address.Country)
	assert.Equal(t, "IDR", d.PreferredCurrency)
	assert.Zero(t, d.YearsInBusiness)
	assert.False(t, d.HasProducts())
}

func TestApply_LastValueWinsAndUntouchedKeysKeepDefaults(t *testing.T) {
	d := domain.NewDraft()

	d.Apply(domain.DraftPatch{CompanyName: ptr("Acme"), YearsInBusiness: ptr(3)})
	d.Apply(domain.DraftPatch{CompanyName: ptr("Acme Building Supply")})
	d.Apply(domain.DraftPatch{Email: ptr("sales@acme.id")})
	d.Apply(domain.DraftPatch{})

	want := domain.NewDraft()
	want.CompanyName = "Acme Building Supply"
	want.YearsInBusiness = 3
	want.Email = "sales@acme.id"
	assert.Equal(t, want, d)
}

func TestApply_AddressIsReplacedWhole(t *testing.T) {
	d := domain.NewDraft()
	d.Apply(domain.DraftPatch{Address: &domain.Address{Street: "Jl. Sunset 1", City: "Denpasar", Country: "Indonesia"}})

	d.Apply(domain.DraftPatch{Address: &domain.Address{City: "Badung"}})

	assert.Equal(t, domain.Address{City: "Badung"}, d.Address)
}

func TestAddressMerge_IsFieldWise(t *testing.T) {
	a := domain.Address{Street: "Jl. Sunset 1", City: "Denpasar", Country: "Indonesia"}

	got := a.Merge(domain.AddressPatch{City: ptr("Badung"), PostalCode: ptr("80361")})

	assert.Equal(t, domain.Address{Street: "Jl. Sunset 1", City: "Badung", PostalCode: "80361", Country: "Indonesia"}, got)
	assert.Equal(t, "Denpasar", a.City, "receiver must not change")
}

func TestApply_DoesNotAliasCallerSlices(t *testing.T) {
	products := []domain.Product{{Name: "White Cement"}}
	d := domain.NewDraft()
	d.Apply(domain.DraftPatch{Products: &products})

	products[0].Name = "changed"

	assert.Equal(t, "White Cement", d.Products[0].Name)
}

func TestClone_IsDeep(t *testing.T) {
	d := domain.NewDraft()
	d.Products = append(d.Products, domain.Product{Name: "Fire Brick"})
	d.Documents = append(d.Documents, domain.Document{DocumentID: "NIB-1", UploadedAt: time.Now()})

	c := d.Clone()
	c.Products[0].Name = "changed"
	c.Documents = c.Documents[:0]

	assert.Equal(t, "Fire Brick", d.Products[0].Name)
	assert.Len(t, d.Documents, 1)
}

func TestBusiness_WithDefaults(t *testing.T) {
	b := domain.BusinessData{}.WithDefaults()

	require.NotNil(t, b.Products)
	assert.NotNil(t, b.Documents)
	assert.Equal(t, "IDR", b.PreferredCurrency)
}

func TestApplicationID(t *testing.T) {
	at := time.UnixMilli(1_700_000_123_456)
	assert.Equal(t, "SP-123456", domain.ApplicationID(at))

	at = time.UnixMilli(1_700_000_000_042)
	assert.Equal(t, "SP-000042", domain.ApplicationID(at))
}

func TestSupplierDisplayStatus(t *testing.T) {
	assert.Equal(t, "Pending", domain.SupplierRecord{}.DisplayStatus())
	assert.Equal(t, "Approved", domain.SupplierRecord{Status: "Approved"}.DisplayStatus())
	assert.Equal(t, "Pending", domain.SupplierRecord{Status: "weird"}.DisplayStatus())
}

func TestProductInput_CompleteAndCoercion(t *testing.T) {
	in := domain.ProductInput{Name: "Fly Ash Brick", BrandName: "Supreme", MinOrderQuantity: "abc", Price: " 12.5 "}

	assert.True(t, in.Complete())
	p := in.Product()
	assert.Zero(t, p.MinOrderQuantity, "unparsable quantity coerces to 0")
	assert.Equal(t, 12.5, p.Price)

	in.BrandName = "  "
	assert.False(t, in.Complete())
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 100.0, domain.ParseNumber("100"))
	assert.Zero(t, domain.ParseNumber(""))
	assert.Zero(t, domain.ParseNumber("NaN"))
	assert.Zero(t, domain.ParseNumber("Inf"))
}

func TestToggleOption(t *testing.T) {
	d := domain.NewDraft()

	on, err := d.ToggleOption(domain.OptionShippingMethods, "Sea Freight")
	require.NoError(t, err)
	assert.True(t, on)
	_, _ = d.ToggleOption(domain.OptionShippingMethods, "Air Freight")
	assert.Equal(t, []string{"Sea Freight", "Air Freight"}, d.ShippingMethods)

	snapshot := d.Clone()
	on, err = d.ToggleOption(domain.OptionShippingMethods, "Sea Freight")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []string{"Air Freight"}, d.ShippingMethods)
	assert.Equal(t, []string{"Sea Freight", "Air Freight"}, snapshot.ShippingMethods)

	var verr *domain.ErrValidation
	_, err = d.ToggleOption(domain.OptionDeliveryAreas, "Jakarta")
	assert.ErrorAs(t, err, &verr)
	_, err = d.ToggleOption("colors", "red")
	assert.ErrorAs(t, err, &verr)
}
