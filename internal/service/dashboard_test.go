package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onboarded(t *testing.T, f *fixture, ctx context.Context) {
	t.Helper()
	user := domain.UserRecord{Phone: "081234567890", HasSupplierData: true, SupplierID: "sup-1"}
	f.login(t, ctx, user)
	f.auth.token = &domain.VerifyTokenResponse{Success: true, User: &user}
	f.suppliers.updated = &domain.BusinessUpdateResponse{Success: true}
	f.suppliers.profile = &domain.ProfileUpdateResponse{Success: true}

	products := []domain.Product{
		{EntryID: "p1", Category: "Construction Material", Subcategory: "Cement", Name: "White Cement", BrandName: "JK White", Price: 90000, MinOrderQuantity: 5, Unit: "piece"},
		{EntryID: "p2", Category: "Construction Material", Subcategory: "Bricks", Name: "Red Clay Brick", BrandName: "Local", Price: 1200, MinOrderQuantity: 1000, Unit: "piece"},
	}
	f.suppliers.mine = &domain.MySupplierResponse{
		Success: true,
		Supplier: &domain.SupplierRecord{
			ID:           "sup-1",
			BusinessData: domain.BusinessData{Products: products, PaymentTerms: []string{"Net 30"}},
		},
		User: &domain.SupplierUser{
			UserRecord: domain.UserRecord{Phone: "081234567890", CompanyName: "PT Semen Jaya", ContactPerson: "Made"},
			Address:    &domain.Address{City: "Denpasar", Country: domain.DefaultCountry},
		},
	}
}

func TestDashboard_LoadAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	view, err := f.dashboard.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.SupplierPending, view.Status)
	assert.Equal(t, 2, view.ProductCount)
	assert.Equal(t, "PT Semen Jaya", view.Profile.CompanyName)
	assert.Equal(t, "Denpasar", view.Profile.Address.City)
	assert.NotNil(t, view.Supplier.Documents)

	_, err = f.dashboard.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.suppliers.mineCalls)
}

func TestDashboard_CachedViewRechecksToken(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	_, err := f.dashboard.Load(ctx)
	require.NoError(t, err)

	f.auth.tokenErr = &domain.ErrUnauthorized{}
	_, err = f.dashboard.Load(ctx)
	var unauthorized *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)

	// The cached view was dropped with the rejected token.
	f.auth.tokenErr = nil
	_, err = f.dashboard.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.suppliers.mineCalls)
}

func TestDashboard_RequiresSupplierData(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	f.login(t, ctx, domain.UserRecord{Phone: "081234567890"})

	_, err := f.dashboard.Load(ctx)

	var blocked *domain.ErrStepBlocked
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.RouteProductSelection, blocked.Path)
}

func TestDashboard_LoadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)
	f.suppliers.mineErr = errors.New("boom")

	_, err := f.dashboard.Load(ctx)
	assert.EqualError(t, err, "Failed to load supplier data")

	f.suppliers.mineErr = &domain.ErrUnauthorized{}
	_, err = f.dashboard.Load(ctx)
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func TestDashboard_UpdateProductSendsFullBusinessSet(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	edit := domain.ProductInput{BrandName: "Birla White", MinOrderQuantity: "8", Price: "95000", Unit: "box"}
	view, err := f.dashboard.UpdateProduct(ctx, 0, edit)
	require.NoError(t, err)

	require.Equal(t, []string{"sup-1"}, f.suppliers.patchedIDs)
	sent := f.suppliers.businesses[0]
	require.Len(t, sent.Products, 2)
	assert.Equal(t, "White Cement", sent.Products[0].Name)
	assert.Equal(t, "Birla White", sent.Products[0].BrandName)
	assert.Equal(t, 95000.0, sent.Products[0].Price)
	assert.Equal(t, "box", sent.Products[0].Unit)
	assert.Equal(t, "p1", sent.Products[0].EntryID)
	assert.Equal(t, []string{"Net 30"}, sent.PaymentTerms)
	assert.Equal(t, domain.DefaultCurrency, sent.PreferredCurrency)

	// The cache was dropped, so the view reflects the write.
	assert.Equal(t, "Birla White", view.Supplier.Products[0].BrandName)
	assert.Equal(t, 2, f.suppliers.mineCalls)
}

func TestDashboard_UpdateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	_, err := f.dashboard.UpdateProduct(ctx, 0, domain.ProductInput{BrandName: "X"})
	assert.EqualError(t, err, "Please fill all required fields for the product")

	_, err = f.dashboard.UpdateProduct(ctx, 9, domain.ProductInput{BrandName: "X", MinOrderQuantity: "1", Price: "1"})
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
	assert.Empty(t, f.suppliers.patchedIDs)
}

func TestDashboard_DeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	view, err := f.dashboard.DeleteProduct(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ProductCount)
	assert.Equal(t, "Red Clay Brick", view.Supplier.Products[0].Name)

	f.suppliers.updateErr = &domain.ErrUpstream{Status: http.StatusInternalServerError}
	_, err = f.dashboard.DeleteProduct(ctx, 0)
	assert.EqualError(t, err, "Failed to delete product")
}

func TestDashboard_AddProductsFromSelection(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	_, err := f.dashboard.AddProducts(ctx)
	assert.EqualError(t, err, domain.NoticeSelectProducts)

	_, err = f.drafts.ChooseCategory(ctx, "Construction Material")
	require.NoError(t, err)
	_, err = f.drafts.ChooseSubcategory(ctx, "Cement")
	require.NoError(t, err)
	_, err = f.drafts.ToggleProduct(ctx, "cement-2")
	require.NoError(t, err)
	_, err = f.drafts.SetProductDetails(ctx, "cement-2", detailsWithTerms("10", "80000"))
	require.NoError(t, err)

	view, err := f.dashboard.AddProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, view.ProductCount)

	sel, err := f.drafts.Selection(ctx)
	require.NoError(t, err)
	assert.Empty(t, sel.Picks)
}

func TestDashboard_SaveProfile(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	onboarded(t, f, ctx)

	_, err := f.dashboard.SaveProfile(ctx, domain.ProfileForm{CompanyName: "PT A", Phone: "0812"})
	assert.EqualError(t, err, "Contact person is required")

	_, err = f.dashboard.SaveProfile(ctx, domain.ProfileForm{CompanyName: "PT A", ContactPerson: "B", Phone: "0812"})
	require.NoError(t, err)
	require.Len(t, f.suppliers.uploads, 1)
	assert.Equal(t, domain.DefaultCountry, f.suppliers.uploads[0].Form.Address.Country)
	assert.Nil(t, f.suppliers.uploads[0].Picture)
}
