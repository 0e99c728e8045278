package sidechannel

import (
	"context"
	"fmt"
	"strings"

	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/server/models"
)

// Hook is one best-effort post-commit action, run after the payment
// transition is durable.
type Hook struct {
	Name string
	Run  func(ctx context.Context, sub *models.Submission, sessionID string) error
}

// Runner executes hooks in order. Errors and panics are logged and
// swallowed; the primary webhook response has already been decided by the
// time hooks run.
type Runner struct {
	logger logging.Logger
	hooks  []Hook
}

// NewRunner builds a runner over the given hooks.
func NewRunner(logger logging.Logger, hooks ...Hook) *Runner {
	return &Runner{logger: logger.With("module", "sidechannel"), hooks: hooks}
}

// Run executes every hook for the given submission.
func (r *Runner) Run(ctx context.Context, sub *models.Submission, sessionID string) {
	for _, h := range r.hooks {
		r.runOne(ctx, h, sub, sessionID)
	}
}

func (r *Runner) runOne(ctx context.Context, h Hook, sub *models.Submission, sessionID string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error(ctx, "side-channel hook panicked",
				"hook", h.Name, "submission_id", sub.SubmissionID, "panic", fmt.Sprint(p))
		}
	}()

	if err := h.Run(ctx, sub, sessionID); err != nil {
		r.logger.Error(ctx, "side-channel hook failed",
			"hook", h.Name, "submission_id", sub.SubmissionID, "error", err.Error())
		return
	}
	r.logger.Info(ctx, "side-channel hook completed",
		"hook", h.Name, "submission_id", sub.SubmissionID)
}

// SheetsHook mirrors the paid row into the spreadsheet. A failed append is
// additionally recorded on the error-log sheet, itself best-effort.
func SheetsHook(sheets *SheetsClient, feeLabel string) Hook {
	return Hook{
		Name: "sheets",
		Run: func(ctx context.Context, sub *models.Submission, sessionID string) error {
			err := sheets.AppendSubmission(ctx, sub, sessionID, feeLabel)
			if err != nil {
				_ = sheets.LogSyncError(ctx, sessionID, err.Error(), 1)
			}
			return err
		},
	}
}

// PhotoSource is the subset of the photo store the Drive hook needs.
type PhotoSource interface {
	Download(ctx context.Context, key string) ([]byte, error)
	KeyFromURL(url string) (string, bool)
}

// DriveHook copies each referenced photo from the bucket into the Drive
// folder. Foreign URLs in the list are skipped.
func DriveHook(drive *DriveClient, photos PhotoSource) Hook {
	return Hook{
		Name: "drive",
		Run: func(ctx context.Context, sub *models.Submission, sessionID string) error {
			for _, u := range sub.PhotoURLs() {
				key, ok := photos.KeyFromURL(u)
				if !ok {
					continue
				}
				data, err := photos.Download(ctx, key)
				if err != nil {
					return fmt.Errorf("photo %s: %w", key, err)
				}
				name := strings.ReplaceAll(key, "/", "_")
				if err := drive.UploadFile(ctx, name, contentTypeFromKey(key), data); err != nil {
					return fmt.Errorf("photo %s: %w", key, err)
				}
			}
			return nil
		},
	}
}

// NotifyHook posts the outbound notification.
func NotifyHook(n *Notifier) Hook {
	return Hook{
		Name: "notify",
		Run: func(ctx context.Context, sub *models.Submission, sessionID string) error {
			return n.Notify(ctx, sub)
		},
	}
}

// contentTypeFromKey recovers the image MIME type from the key's extension,
// which intake derived from the original type on upload.
func contentTypeFromKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 && i < len(key)-1 {
		return "image/" + key[i+1:]
	}
	return "application/octet-stream"
}
