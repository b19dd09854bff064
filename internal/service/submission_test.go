package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyToSubmit logs the session in and fills a draft that passes every precondition.
func readyToSubmit(t *testing.T, f *fixture, ctx context.Context) {
	t.Helper()
	f.login(t, ctx, domain.UserRecord{Phone: "081234567890"})
	_, err := f.drafts.AddProducts(ctx, []domain.ProductInput{completeInput("Portland Cement Type I")})
	require.NoError(t, err)
	_, err = f.drafts.Update(ctx, domain.DraftPatch{
		CompanyName:    ptr("PT Semen Jaya"),
		ContactPerson:  ptr("Made"),
		Phone:          ptr("081234567890"),
		ProfilePicture: ptr(pngDataURI(t, 1024, 256)),
	})
	require.NoError(t, err)
	_, err = f.drafts.ToggleOption(ctx, "shippingMethods", "Sea Freight")
	require.NoError(t, err)

	f.suppliers.created = &domain.CreateSupplierResponse{Supplier: domain.SupplierRecord{ID: "sup-1"}}
	f.suppliers.updated = &domain.BusinessUpdateResponse{Success: true}
	f.auth.token = &domain.VerifyTokenResponse{Success: true, User: &domain.UserRecord{
		Phone: "081234567890", HasSupplierData: true, SupplierID: "sup-1",
	}}
}

func TestSubmit_TwoPhases(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	readyToSubmit(t, f, ctx)

	receipt, err := f.submission.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "sup-1", receipt.SupplierID)
	assert.Equal(t, domain.ApplicationUnderReview, receipt.Status)
	assert.True(t, strings.HasPrefix(receipt.ApplicationID, "SP-"))
	assert.Equal(t, 1, receipt.ProductCount)

	require.Len(t, f.suppliers.uploads, 1)
	upload := f.suppliers.uploads[0]
	assert.Equal(t, "PT Semen Jaya", upload.Form.CompanyName)
	assert.Equal(t, "image/jpeg", upload.PictureType)
	assert.NotEmpty(t, upload.Picture)
	assert.Empty(t, upload.Form.ProfilePicture)

	require.Equal(t, []string{"sup-1"}, f.suppliers.patchedIDs)
	business := f.suppliers.businesses[0]
	assert.Len(t, business.Products, 1)
	assert.Equal(t, []string{"Sea Freight"}, business.ShippingMethods)

	// The refreshed user opens the dashboard, and the draft is kept.
	d, err := f.navigation.Resolve(ctx, domain.RouteProductSelection)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteDashboard, d.Path)
	draft, err := f.drafts.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, draft.Products, 1)

	stored, err := f.submission.Receipt(ctx)
	require.NoError(t, err)
	assert.Equal(t, receipt.ApplicationID, stored.ApplicationID)
}

func TestSubmit_AcceptsBareSupplierBody(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	readyToSubmit(t, f, ctx)

	var created domain.CreateSupplierResponse
	require.NoError(t, json.Unmarshal([]byte(`{"supplier":{"_id":"sup-7"}}`), &created))
	f.suppliers.created = &created
	f.suppliers.updated = &domain.BusinessUpdateResponse{}

	receipt, err := f.submission.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "sup-7", receipt.SupplierID)
	assert.Equal(t, []string{"sup-7"}, f.suppliers.patchedIDs)
}

func TestSubmit_CreateWithoutIDFails(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	readyToSubmit(t, f, ctx)
	f.suppliers.created = &domain.CreateSupplierResponse{Message: "Supplier rejected"}

	_, err := f.submission.Submit(ctx)

	assert.EqualError(t, err, "Supplier rejected")
	assert.Empty(t, f.suppliers.patchedIDs)
}

func TestSubmit_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")

	_, err := f.submission.Submit(ctx)
	var unauthorized *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)

	f.login(t, ctx, domain.UserRecord{Phone: "081234567890"})
	_, err = f.submission.Submit(ctx)
	var blocked *domain.ErrStepBlocked
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.RouteProductSelection, blocked.Path)
	assert.Equal(t, domain.NoticeSelectProducts, blocked.Notice)

	_, err = f.drafts.AddProducts(ctx, []domain.ProductInput{completeInput("A")})
	require.NoError(t, err)
	_, err = f.submission.Submit(ctx)
	assert.EqualError(t, err, "Company name is required")

	_, err = f.drafts.Update(ctx, domain.DraftPatch{CompanyName: ptr("PT A"), ContactPerson: ptr("B"), Phone: ptr("0812"), Email: ptr("not-an-email")})
	require.NoError(t, err)
	_, err = f.submission.Submit(ctx)
	assert.EqualError(t, err, "Please enter a valid email address")

	assert.Empty(t, f.suppliers.uploads)
}

func TestSubmit_ErrorMessages(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		want      string
	}{
		{"forbidden", &domain.ErrUpstream{Status: http.StatusForbidden, Message: "nope"}, "Access denied. There was an issue with your account permissions."},
		{"server message", &domain.ErrUpstream{Status: http.StatusBadRequest, Message: "Tax ID already registered"}, "Tax ID already registered"},
		{"no message", &domain.ErrUpstream{Status: http.StatusInternalServerError}, "There was an error submitting the form. Please try again."},
		{"network", errors.New("connection reset"), "There was an error submitting the form. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := sessionCtx("sid-1")
			readyToSubmit(t, f, ctx)
			f.suppliers.createErr = tt.createErr

			_, err := f.submission.Submit(ctx)
			assert.EqualError(t, err, tt.want)

			draft, err := f.drafts.Snapshot(ctx)
			require.NoError(t, err)
			assert.Len(t, draft.Products, 1)
			assert.Empty(t, f.suppliers.patchedIDs)
		})
	}
}

func TestSubmit_VerificationFailureStopsBeforePhaseTwo(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	readyToSubmit(t, f, ctx)
	f.auth.token = &domain.VerifyTokenResponse{Success: false}

	_, err := f.submission.Submit(ctx)

	assert.EqualError(t, err, "Token verification failed after supplier creation")
	assert.Empty(t, f.suppliers.patchedIDs)
	_, err = f.submission.Receipt(ctx)
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestSubmit_UnauthorizedPassesThrough(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	readyToSubmit(t, f, ctx)
	f.suppliers.updateErr = &domain.ErrUnauthorized{}

	_, err := f.submission.Submit(ctx)

	var unauthorized *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, domain.MsgSessionExpired, err.Error())
}

func TestSubmit_CanRetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := sessionCtx("sid-1")
	readyToSubmit(t, f, ctx)
	f.suppliers.updateErr = &domain.ErrUpstream{Status: http.StatusBadGateway}

	_, err := f.submission.Submit(ctx)
	require.Error(t, err)

	f.suppliers.updateErr = nil
	_, err = f.submission.Submit(ctx)
	require.NoError(t, err)
	assert.Len(t, f.suppliers.uploads, 2)
}
