package sidechannel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avilrenovations/estimates/internal/server/models"
)

const defaultSheetsBaseURL = "https://sheets.googleapis.com"

// SheetsClient appends submission rows to the configured spreadsheet and
// failed-sync entries to a separate log sheet.
type SheetsClient struct {
	auth       *GoogleAuth
	httpClient *http.Client
	baseURL    string
	sheetID    string
	logSheet   string
	now        func() time.Time
}

// NewSheetsClient builds a client for one spreadsheet. logSheet names the
// tab receiving sync-error entries.
func NewSheetsClient(auth *GoogleAuth, sheetID, logSheet string) *SheetsClient {
	return &SheetsClient{
		auth:       auth,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultSheetsBaseURL,
		sheetID:    sheetID,
		logSheet:   logSheet,
		now:        time.Now,
	}
}

func (c *SheetsClient) appendRow(ctx context.Context, rangeA1 string, row []any) error {
	token, err := c.auth.AccessToken(ctx, scopeSheets)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"values": [][]any{row}})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW",
		c.baseURL, c.sheetID, url.PathEscape(rangeA1))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to append to sheet: %s", strings.TrimSpace(string(respBody)))
	}
	return nil
}

// AppendSubmission mirrors one paid submission into Sheet1!A:I. The column
// layout matches the operator's spreadsheet: name, phone, email, address,
// submission id, fee, provider session id, status, created timestamp.
func (c *SheetsClient) AppendSubmission(ctx context.Context, sub *models.Submission, sessionID, feeLabel string) error {
	row := []any{
		sub.Name,
		sub.Phone,
		sub.Email,
		fmt.Sprintf("%s, %s, %s", sub.Address, sub.City, sub.Zip),
		sub.SubmissionID,
		feeLabel,
		sessionID,
		sub.Status,
		sub.CreatedAt.Format(time.RFC3339),
	}
	return c.appendRow(ctx, "Sheet1!A:I", row)
}

// LogSyncError appends one error entry (timestamp, session id, message,
// attempt count) to the log sheet. Itself best-effort; callers ignore its
// return value beyond logging.
func (c *SheetsClient) LogSyncError(ctx context.Context, sessionID, message string, attempt int) error {
	row := []any{
		c.now().Format(time.RFC3339),
		sessionID,
		message,
		attempt,
	}
	return c.appendRow(ctx, c.logSheet+"!A:D", row)
}
