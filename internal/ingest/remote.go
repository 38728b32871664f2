package ingest

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
	"strings"
)

// remoteExtractor posts the file to an external extraction service (tika-like
// contract: multipart upload in, {"text": ...} out). It backs the formats the
// process cannot parse itself.
type remoteExtractor struct {
	endpoint string
	client   *http.Client
}

func NewRemoteExtractor(endpoint string, client *http.Client) Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &remoteExtractor{endpoint: strings.TrimRight(endpoint, "/"), client: client}
}

type remoteExtractResponse struct {
	Text string `json:"text"`
}

func (e *remoteExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/extract", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("extraction service failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out remoteExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode extraction response: %w", err)
	}
	return out.Text, nil
}
