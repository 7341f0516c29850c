package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
)

// FetchedImage is the raw body of a pasted URL along with its declared type.
type FetchedImage struct {
	Data        []byte
	ContentType string
	SourceURL   string
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (*FetchedImage, error)
}

// HTTPImageFetcher resolves pasted URLs with a single GET per paste
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher. A non-positive maxBytes
// disables the body limit.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 16 << 10,
	}

	return NewHTTPImageFetcherWithClient(&http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("too many redirects (limit: 3)")
			}
			return nil
		},
	}, maxBytes)
}

// NewHTTPImageFetcherWithClient is used by tests to inject an httptest client.
func NewHTTPImageFetcherWithClient(client *http.Client, maxBytes int64) *HTTPImageFetcher {
	return &HTTPImageFetcher{client: client, maxBytes: maxBytes}
}

// FetchImage issues one GET. Any transport failure, non-200 status, non-image
// content type or oversized body is reported as a paste resolution error.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewPasteResolutionError("invalid URL", err)
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", "gradient-fade/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.NewPasteResolutionError("failed to fetch pasted URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewPasteResolutionError(fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !IsImageContentType(contentType) {
		return nil, apperrors.NewPasteResolutionError(fmt.Sprintf("content type %q is not an image", contentType), nil)
	}

	body := io.Reader(resp.Body)
	if h.maxBytes > 0 {
		body = io.LimitReader(resp.Body, h.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewPasteResolutionError("failed to read response body", err)
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return nil, apperrors.NewPasteResolutionError(fmt.Sprintf("image exceeds %d bytes", h.maxBytes), nil)
	}

	return &FetchedImage{Data: data, ContentType: contentType, SourceURL: imageURL}, nil
}

// IsImageContentType reports whether a declared type has the image/ prefix.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
