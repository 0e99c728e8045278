// Package services implements the estimate-request workflows: intake,
// payment-session creation and webhook reconciliation.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/sanitize"
	"github.com/avilrenovations/estimates/internal/server/models"
	"github.com/avilrenovations/estimates/internal/server/repositories/submissions"
	"github.com/avilrenovations/estimates/internal/server/storage"
)

// IntakeService validates photos, uploads them and persists the submission
// row with status pending_payment.
type IntakeService struct {
	repo   submissions.Repository
	photos storage.PhotoStore
	logger logging.Logger

	// seams for deterministic tests
	now        func() time.Time
	randSuffix func() string
}

// NewIntakeService constructs the intake workflow.
func NewIntakeService(repo submissions.Repository, photos storage.PhotoStore, logger logging.Logger) *IntakeService {
	return &IntakeService{
		repo:       repo,
		photos:     photos,
		logger:     logger.With("module", "intake"),
		now:        time.Now,
		randSuffix: defaultRandSuffix,
	}
}

func defaultRandSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// newSubmissionID builds the public id: date, email local part, random
// uppercase suffix. Unique per the submissions table index.
func (s *IntakeService) newSubmissionID(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	return fmt.Sprintf("%s_%s_%s", s.now().UTC().Format("20060102"), local, s.randSuffix())
}

// Process uploads each photo sequentially and then writes the row. Any
// upload failure aborts the whole intake before the row exists; objects
// already uploaded for this submission stay in the bucket under its id and
// are logged for manual collection.
func (s *IntakeService) Process(ctx context.Context, req *models.IntakeRequest) (*models.Submission, error) {
	submissionID := s.newSubmissionID(req.Email)
	log := s.logger.With("submission_id", submissionID)

	urls := make([]string, 0, len(req.Photos))
	for i, photo := range req.Photos {
		data, err := decodePhotoData(photo.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: photo %d has invalid image data", common.ErrValidation, i+1)
		}
		key := fmt.Sprintf("%s/%d_%d.%s", submissionID, s.now().UnixMilli(), i, extFromMIME(photo.Type))
		url, err := s.photos.Upload(ctx, key, photo.Type, data)
		if err != nil {
			log.Error(ctx, "photo upload failed",
				"index", i, "orphaned_uploads", len(urls), "error", err.Error())
			return nil, fmt.Errorf("failed to upload photo: %w", err)
		}
		urls = append(urls, url)
	}

	sub := &models.Submission{
		SubmissionID:    submissionID,
		Name:            sanitize.Text(req.Name),
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         sanitize.Text(req.Address),
		City:            sanitize.Text(req.City),
		Zip:             req.Zip,
		Description:     sanitize.Text(req.Description),
		Priorities:      sanitize.Text(req.Priorities),
		Height:          req.Height,
		HeightUnit:      req.HeightUnit,
		PhotosFolderURL: models.JoinPhotoURLs(urls),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	log.Info(ctx, "submission saved", "photos", len(urls))
	return sub, nil
}

// decodePhotoData accepts either a browser data URL
// ("data:image/jpeg;base64,...") or bare base64.
func decodePhotoData(d string) ([]byte, error) {
	if strings.HasPrefix(d, "data:") {
		i := strings.IndexByte(d, ',')
		if i < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		d = d[i+1:]
	}
	return base64.StdEncoding.DecodeString(d)
}

func extFromMIME(t string) string {
	if i := strings.IndexByte(t, '/'); i >= 0 && i < len(t)-1 {
		return t[i+1:]
	}
	return "bin"
}
