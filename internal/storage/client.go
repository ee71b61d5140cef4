// Package storage wraps the Supabase storage API for the buckets this
// application writes: evidence photos, per-session acta assets and the
// final report PDFs.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
)

// ErrNotFound reports that the remote object does not exist. Deletions
// treat it as success; transport-level failures stay hard errors.
var ErrNotFound = errors.New("storage: object not found")

const (
	FolderEvidencias = "mi-app"
	FolderInformes   = "informes"
)

// ActaFolder is the per-session prefix for signed-document uploads.
func ActaFolder(sesionID string) string {
	return "actas/" + sesionID
}

// ActaImagesFolder is the per-session prefix for acta supporting images.
func ActaImagesFolder(sesionID string) string {
	return ActaFolder(sesionID) + "/imagenes"
}

type Client struct {
	client  *storage_go.Client
	bucket  string
	baseURL string
}

type Object struct {
	Path      string
	UpdatedAt time.Time
}

func NewClient(supabaseURL, serviceKey, bucket string) (*Client, error) {
	baseURL := strings.TrimRight(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("storage: empty base URL")
	}
	client := storage_go.NewClient(baseURL+"/storage/v1", serviceKey, nil)

	return &Client{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// Upload stores data at path and returns its public URL. upsert=false
// guards content-addressed report objects against accidental overwrite.
func (s *Client) Upload(path string, data []byte, contentType string, upsert bool) (string, error) {
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return s.PublicURL(path), nil
}

func (s *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
}

// Delete removes one object. A missing object maps to ErrNotFound so
// callers can treat it as an already-done deletion.
func (s *Client) Delete(path string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{path})
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("delete %s: %w", path, err)
}

func (s *Client) Download(path string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", path, err)
	}
	return data, nil
}

// List returns the objects under a prefix, for the reconciliation job.
func (s *Client) List(prefix string) ([]Object, error) {
	files, err := s.client.ListFiles(s.bucket, prefix, storage_go.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	out := make([]Object, 0, len(files))
	for _, f := range files {
		updated, _ := time.Parse(time.RFC3339, f.UpdatedAt)
		out = append(out, Object{
			Path:      strings.TrimSuffix(prefix, "/") + "/" + f.Name,
			UpdatedAt: updated,
		})
	}
	return out, nil
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not_found") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "404")
}
