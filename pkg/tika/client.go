// Package tika provides a client for an Apache Tika server, used to
// extract plain text from uploaded vault documents.
package tika

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"codexai-go/internal/config"
)

// Client talks to a Tika server.
type Client struct {
	serverURL string
	client    *http.Client
}

// NewClient creates a new Tika client.
func NewClient(cfg config.TikaConfig) *Client {
	return &Client{
		serverURL: cfg.ServerURL,
		client:    &http.Client{},
	}
}

// ExtractText infers the MIME type from the file name and asks Tika for
// the plain-text content of the document.
func (c *Client) ExtractText(fileReader io.Reader, fileName string) (string, error) {
	contentType := detectMimeType(fileName)

	req, err := http.NewRequest(http.MethodPut, c.serverURL+"/tika", fileReader)
	if err != nil {
		return "", fmt.Errorf("failed to create tika request: %w", err)
	}

	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call tika: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read tika response: %w", err)
	}
	return string(body), nil
}

func detectMimeType(fileName string) string {
	ext := filepath.Ext(fileName)
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	switch ext {
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
