package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// AddFile uploads the file at path to a dataset and waits for the
// configured upload delay. Files without a category get DefaultCategory.
func (c *Client) AddFile(ctx context.Context, dataset, path string, meta FileMetadata) ([]FileEntry, error) {
	if len(meta.Categories) == 0 {
		meta.Categories = []string{DefaultCategory}
	}
	jsonData, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file metadata: %w", err)
	}

	reqPath, query := objectPath("datasets", dataset, "/add")
	if c.skip(http.MethodPost, reqPath, query, fmt.Sprintf("file=%s jsonData=%s", path, jsonData)) {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := mw.WriteField("jsonData", string(jsonData)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, reqPath, query, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result struct {
		Files []FileEntry `json:"files"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	c.log.Info("uploaded file", "dataset", dataset, "file", path)

	if err := sleep(ctx, c.uploadDelay); err != nil {
		return result.Files, err
	}
	return result.Files, nil
}

// DownloadFile writes the content of a datafile, given by database id or
// persistent id, to w and returns the number of bytes written.
func (c *Client) DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error) {
	path, query := objectPath("access/datafile", id, "")
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to download datafile %s: %w", id, err)
	}
	return n, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
