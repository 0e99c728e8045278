package sidechannel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const defaultDriveUploadURL = "https://www.googleapis.com/upload/drive/v3/files"

// DriveClient copies photo files into a Drive folder using the multipart
// upload endpoint.
type DriveClient struct {
	auth       *GoogleAuth
	httpClient *http.Client
	uploadURL  string
	folderID   string
}

// NewDriveClient builds a client targeting one Drive folder.
func NewDriveClient(auth *GoogleAuth, folderID string) *DriveClient {
	return &DriveClient{
		auth:       auth,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		uploadURL:  defaultDriveUploadURL,
		folderID:   folderID,
	}
}

// UploadFile creates one file in the configured folder. The request is a
// multipart/related body: a JSON metadata part followed by the media part.
func (c *DriveClient) UploadFile(ctx context.Context, name, contentType string, data []byte) error {
	token, err := c.auth.AccessToken(ctx, scopeDrive)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return err
	}
	meta := map[string]any{"name": name, "parents": []string{c.folderID}}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return err
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", contentType)
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return err
	}
	if _, err := mediaPart.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL+"?uploadType=multipart", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/related; boundary="+w.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to upload to drive: %s", strings.TrimSpace(string(body)))
	}
	return nil
}
