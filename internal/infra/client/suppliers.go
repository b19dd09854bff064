package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
)

// ProfilePictureFilename is the file name the picture part is uploaded under.
const ProfilePictureFilename = "profile.jpg"

// CreateSupplier creates the supplier record from the profile (POST /suppliers).
// Empty scalar fields are left out of the form.
func (b *Backend) CreateSupplier(ctx context.Context, upload domain.ProfileUpload) (*domain.CreateSupplierResponse, error) {
	var out domain.CreateSupplierResponse
	err := b.do(ctx, request{
		op:     "CreateSupplier",
		method: http.MethodPost,
		path:   "/suppliers",
		encode: profileForm(upload, false),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBusiness replaces the business fields of a supplier record.
func (b *Backend) UpdateBusiness(ctx context.Context, supplierID string, data domain.BusinessData) (*domain.BusinessUpdateResponse, error) {
	var out domain.BusinessUpdateResponse
	err := b.do(ctx, request{
		op:     "UpdateBusiness",
		method: http.MethodPatch,
		path:   fmt.Sprintf("/suppliers/%s/business", url.PathEscape(supplierID)),
		encode: jsonBody(data.WithDefaults()),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMySupplier fetches the supplier record and profile of the session's user.
func (b *Backend) GetMySupplier(ctx context.Context) (*domain.MySupplierResponse, error) {
	var out domain.MySupplierResponse
	err := b.do(ctx, request{
		op:     "GetMySupplier",
		method: http.MethodGet,
		path:   "/suppliers/my-supplier",
		out:    &out,
		retry:  true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves the dashboard profile form (PATCH /suppliers/profile).
// Every field is sent, empty ones included, so they can be cleared.
func (b *Backend) UpdateProfile(ctx context.Context, upload domain.ProfileUpload) (*domain.ProfileUpdateResponse, error) {
	var out domain.ProfileUpdateResponse
	err := b.do(ctx, request{
		op:     "UpdateProfile",
		method: http.MethodPatch,
		path:   "/suppliers/profile",
		encode: profileForm(upload, true),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// profileForm encodes the profile as multipart/form-data: scalar fields as
// form values, address as a JSON string, the picture as a file part.
func profileForm(upload domain.ProfileUpload, includeEmpty bool) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		f := upload.Form
		fields := []struct{ name, value string }{
			{"companyName", f.CompanyName},
			{"contactPerson", f.ContactPerson},
			{"email", f.Email},
			{"phone", f.Phone},
			{"website", f.Website},
			{"taxId", f.TaxID},
		}
		for _, field := range fields {
			if field.value == "" && !includeEmpty {
				continue
			}
			if err := w.WriteField(field.name, field.value); err != nil {
				return nil, "", err
			}
		}

		address, err := json.Marshal(f.Address)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("address", string(address)); err != nil {
			return nil, "", err
		}

		if len(upload.Picture) > 0 {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="profilePicture"; filename="%s"`, ProfilePictureFilename))
			ct := upload.PictureType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)
			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(upload.Picture); err != nil {
				return nil, "", err
			}
		}

		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}
}
