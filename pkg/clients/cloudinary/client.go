// Package cloudinary uploads receipt images with an unsigned upload preset.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/rentledger/internal/config"
)

// Client uploads a file and returns its public URL.
type Client struct {
	httpClient   *resty.Client
	cloudName    string
	uploadPreset string
	folder       string
}

// NewClient builds a Cloudinary upload client.
func NewClient(cfg config.CloudinaryConfig) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(30 * time.Second)

	return &Client{
		httpClient:   restyClient,
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		folder:       cfg.Folder,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the content of r as filename and returns the HTTPS URL of the stored image.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	result := new(uploadResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetFormData(map[string]string{
			"upload_preset": c.uploadPreset,
			"folder":        c.folder,
		}).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("%s/image/upload", c.cloudName))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return "", fmt.Errorf("cloudinary api error: status=%d, message=%s", resp.StatusCode(), apiErr.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("upload %s: response carried no secure_url", filename)
	}

	return result.SecureURL, nil
}
