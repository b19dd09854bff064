package service_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/boddenberg/supplier-portal-bfa/internal/catalog"
	"github.com/boddenberg/supplier-portal-bfa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func ptr[T any](v T) *T { return &v }

func TestDraft_UpdateMergesAndPinsCountry(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	d, err := f.drafts.Update(ctx, domain.DraftPatch{
		CompanyName: ptr("PT Semen Jaya"),
		Address:     &domain.Address{City: "Denpasar", Country: "Elsewhere"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PT Semen Jaya", d.CompanyName)
	assert.Equal(t, domain.DefaultCountry, d.Address.Country)

	d, err = f.drafts.UpdateAddress(ctx, domain.AddressPatch{Street: ptr("Jl. Sunset 1")})
	require.NoError(t, err)
	assert.Equal(t, "Denpasar", d.Address.City)
	assert.Equal(t, "Jl. Sunset 1", d.Address.Street)
	assert.Equal(t, domain.DefaultCurrency, d.PreferredCurrency)
}

func TestDraft_UpdateAssignsEntryIDs(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	d, err := f.drafts.Update(ctx, domain.DraftPatch{
		Products:   &[]domain.Product{{Name: "White Cement"}, {EntryID: "keep", Name: "Red Clay Brick"}},
		Warehouses: &[]domain.Warehouse{{WarehouseName: "Gudang 1"}},
	})
	require.NoError(t, err)
	require.Len(t, d.Products, 2)
	assert.NotEmpty(t, d.Products[0].EntryID)
	assert.Equal(t, "keep", d.Products[1].EntryID)
	assert.NotEmpty(t, d.Warehouses[0].EntryID)

	d, err = f.drafts.RemoveProductByID(ctx, d.Products[0].EntryID)
	require.NoError(t, err)
	require.Len(t, d.Products, 1)
	assert.Equal(t, "Red Clay Brick", d.Products[0].Name)
}

func TestDraft_SnapshotsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	_, err := f.drafts.AddProducts(ctx, []domain.ProductInput{completeInput("Portland Cement Type I")})
	require.NoError(t, err)

	snap, err := f.drafts.Snapshot(ctx)
	require.NoError(t, err)
	snap.Products[0].Name = "tampered"

	again, err := f.drafts.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Portland Cement Type I", again.Products[0].Name)

	other, err := f.drafts.Snapshot(sessionCtx("sid-2"))
	require.NoError(t, err)
	assert.Empty(t, other.Products)
}

func TestDraft_AddProductsIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	incomplete := completeInput("White Cement")
	incomplete.Price = "  "
	_, err := f.drafts.AddProducts(ctx, []domain.ProductInput{completeInput("Portland Cement Type I"), incomplete})
	assert.EqualError(t, err, "Please fill all required fields for White Cement")

	d, err := f.drafts.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Products)

	odd := completeInput("Rapid Hardening Cement")
	odd.MinOrderQuantity = "ten"
	d, err = f.drafts.AddProducts(ctx, []domain.ProductInput{odd})
	require.NoError(t, err)
	require.Len(t, d.Products, 1)
	assert.Zero(t, d.Products[0].MinOrderQuantity)
	assert.Equal(t, 85000.0, d.Products[0].Price)
	assert.NotEmpty(t, d.Products[0].EntryID)
}

func TestDraft_RemoveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	d, err := f.drafts.AddProducts(ctx, []domain.ProductInput{
		completeInput("A"), completeInput("B"), completeInput("C"),
	})
	require.NoError(t, err)

	d, err = f.drafts.RemoveProduct(ctx, 1)
	require.NoError(t, err)
	require.Len(t, d.Products, 2)
	assert.Equal(t, "A", d.Products[0].Name)
	assert.Equal(t, "C", d.Products[1].Name)

	d, err = f.drafts.RemoveProductByID(ctx, d.Products[1].EntryID)
	require.NoError(t, err)
	require.Len(t, d.Products, 1)

	_, err = f.drafts.RemoveProduct(ctx, 5)
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
	_, err = f.drafts.RemoveProductByID(ctx, "nope")
	assert.ErrorAs(t, err, &nf)
}

func TestDraft_Warehouses(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	_, err := f.drafts.AddWarehouse(ctx, domain.WarehouseInput{WarehouseName: "  "})
	assert.EqualError(t, err, "Warehouse name is required")

	d, err := f.drafts.AddWarehouse(ctx, domain.WarehouseInput{WarehouseName: "Gudang 1", Location: "Kuta", HandlingCapacity: "1500"})
	require.NoError(t, err)
	require.Len(t, d.Warehouses, 1)
	assert.Equal(t, 1500.0, d.Warehouses[0].HandlingCapacity)

	d, err = f.drafts.RemoveWarehouseByID(ctx, d.Warehouses[0].EntryID)
	require.NoError(t, err)
	assert.Empty(t, d.Warehouses)
}

func TestDraft_Documents(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	_, err := f.drafts.AddDocument(ctx, domain.DocumentInput{DocumentID: "NIB-1", DocumentImage: "https://example.com/a.png"})
	assert.EqualError(t, err, "Please upload a document image or PDF")

	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("just text"))
	_, err = f.drafts.AddDocument(ctx, domain.DocumentInput{DocumentID: "NIB-1", DocumentImage: text})
	assert.Error(t, err)

	d, err := f.drafts.AddDocument(ctx, domain.DocumentInput{DocumentID: "NIB-1", DocumentImage: pngDataURI(t, 4, 4)})
	require.NoError(t, err)
	require.Len(t, d.Documents, 1)
	assert.False(t, d.Documents[0].UploadedAt.IsZero())

	d, err = f.drafts.RemoveDocument(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, d.Documents)
}

func TestDraft_ToggleOption(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	d, err := f.drafts.ToggleOption(ctx, domain.OptionPaymentTerms, "Net 30")
	require.NoError(t, err)
	assert.Equal(t, []string{"Net 30"}, d.PaymentTerms)

	d, err = f.drafts.ToggleOption(ctx, domain.OptionPaymentTerms, "Net 30")
	require.NoError(t, err)
	assert.Empty(t, d.PaymentTerms)

	_, err = f.drafts.ToggleOption(ctx, domain.OptionDeliveryAreas, "Jakarta")
	assert.Error(t, err)
}

func TestDraft_SelectionCommit(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	_, err := f.drafts.CommitSelection(ctx)
	assert.EqualError(t, err, domain.NoticeSelectProducts)

	_, err = f.drafts.ChooseCategory(ctx, "Construction Material")
	require.NoError(t, err)
	_, err = f.drafts.ChooseSubcategory(ctx, "Cement")
	require.NoError(t, err)
	sel, err := f.drafts.ToggleProduct(ctx, "cement-1")
	require.NoError(t, err)
	require.Len(t, sel.Picks, 1)
	assert.Equal(t, "ACC", sel.Picks[0].Details.BrandName)

	_, err = f.drafts.CommitSelection(ctx)
	assert.EqualError(t, err, "Please fill all required fields for Portland Cement Type I")

	_, err = f.drafts.SetProductDetails(ctx, "cement-1", catalog.DetailsPatch{
		BrandName:        ptr(catalog.BrandOther),
		CustomBrandName:  ptr("Semen Bali"),
		MinOrderQuantity: ptr("20"),
		Price:            ptr("70000"),
	})
	require.NoError(t, err)

	d, err := f.drafts.CommitSelection(ctx)
	require.NoError(t, err)
	require.Len(t, d.Products, 1)
	assert.Equal(t, "Semen Bali", d.Products[0].BrandName)
	assert.Equal(t, "Cement", d.Products[0].Subcategory)

	sel, err = f.drafts.Selection(ctx)
	require.NoError(t, err)
	assert.Empty(t, sel.Picks)
	assert.Equal(t, "Cement", sel.Subcategory)
}

func TestDraft_ResetClearsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	_, err := f.drafts.AddProducts(ctx, []domain.ProductInput{completeInput("A")})
	require.NoError(t, err)
	_, err = f.drafts.ChooseCategory(ctx, "Construction Material")
	require.NoError(t, err)

	d, err := f.drafts.Reset(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Products)
	sel, err := f.drafts.Selection(ctx)
	require.NoError(t, err)
	assert.Empty(t, sel.Category)
}

func TestDraft_RequiresBrowserSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.drafts.Snapshot(sessionCtx(""))
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func detailsWithTerms(moq, price string) catalog.DetailsPatch {
	return catalog.DetailsPatch{MinOrderQuantity: ptr(moq), Price: ptr(price)}
}
