package service

import (
	"errors"

	"github.com/boddenberg/supplier-portal-bfa/internal/domain"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/media"

	"go.uber.org/zap"
)

// DefaultPictureMaxDim bounds the long edge of uploaded profile pictures.
const DefaultPictureMaxDim = 512

// profileUpload prepares a profile form for multipart upload. A data URI
// picture is decoded and shrunk to a JPEG; one that does not decode as an
// image is sent as it came. Anything else in the picture field is dropped.
func profileUpload(form domain.ProfileForm, maxDim int, logger *zap.Logger) domain.ProfileUpload {
	upload := domain.ProfileUpload{Form: form}
	upload.Form.ProfilePicture = ""
	if form.ProfilePicture == "" {
		return upload
	}

	blob, err := media.ParseDataURI(form.ProfilePicture)
	if err != nil {
		if !errors.Is(err, media.ErrNotDataURI) {
			logger.Warn("profile picture dropped", zap.Error(err))
		}
		return upload
	}

	normalized, err := media.NormalizeProfilePicture(blob.Data, maxDim)
	if err != nil {
		logger.Info("profile picture sent unnormalized", zap.String("type", blob.Detected), zap.Error(err))
		upload.Picture = blob.Data
		upload.PictureType = firstNonEmpty(blob.Declared, blob.Detected)
		return upload
	}

	upload.Picture = normalized
	upload.PictureType = "image/jpeg"
	return upload
}
