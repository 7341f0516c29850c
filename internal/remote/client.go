// Package remote talks to the image processing endpoint: one multipart POST
// per submission, no retries.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anime-shed/gradient-fade/internal/analyzer"
	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/naming"
	"github.com/anime-shed/gradient-fade/pkg/models"

	"github.com/gabriel-vasile/mimetype"
)

// LogoFieldName is the optional second part overlaid by the backend.
const LogoFieldName = "logo"

// Processor is what the coordinator submits through.
type Processor interface {
	Process(ctx context.Context, input models.ImageInput) (*Result, error)
}

// Result is a validated response body.
type Result struct {
	Data        []byte
	ContentType string
	Info        analyzer.ImageInfo
}

type Options struct {
	Endpoint  string
	FieldName string
	LogoPath  string
	Timeout   time.Duration
	MaxBytes  int64
}

type Client struct {
	httpClient *http.Client
	inspector  analyzer.ImageInspector
	opts       Options
}

func NewClient(opts Options, inspector analyzer.ImageInspector) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: opts.Timeout}, opts, inspector)
}

func NewClientWithHTTPClient(httpClient *http.Client, opts Options, inspector analyzer.ImageInspector) *Client {
	if opts.FieldName == "" {
		opts.FieldName = "image"
	}
	if inspector == nil {
		inspector = analyzer.NewImageInspector()
	}
	return &Client{httpClient: httpClient, inspector: inspector, opts: opts}
}

// Process uploads the input and returns the processed image. Every failure is
// a submission error; timeouts carry 504, everything else 502.
func (c *Client) Process(ctx context.Context, input models.ImageInput) (*Result, error) {
	body, contentType, err := c.encode(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, body)
	if err != nil {
		return nil, apperrors.NewSubmissionError("failed to build request", http.StatusInternalServerError, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewSubmissionError(
			fmt.Sprintf("processing endpoint returned status=%d", resp.StatusCode),
			http.StatusBadGateway,
			errors.New(strings.TrimSpace(string(snippet))),
		)
	}

	data, err := c.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	declared := resp.Header.Get("Content-Type")
	if declared != "" && !strings.HasPrefix(strings.ToLower(declared), "image/") {
		return nil, apperrors.NewSubmissionError(fmt.Sprintf("malformed body: content type %q", declared), 0, nil)
	}
	info, err := c.inspector.Inspect(data)
	if err != nil {
		return nil, apperrors.NewSubmissionError("malformed body", 0, err)
	}
	if declared == "" {
		declared = info.ContentType
	}

	return &Result{Data: data, ContentType: declared, Info: info}, nil
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.opts.MaxBytes > 0 {
		r = io.LimitReader(r, c.opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if c.opts.MaxBytes > 0 && int64(len(data)) > c.opts.MaxBytes {
		return nil, apperrors.NewSubmissionError(fmt.Sprintf("response exceeds %d bytes", c.opts.MaxBytes), 0, nil)
	}
	return data, nil
}

func (c *Client) encode(input models.ImageInput) (io.Reader, string, error) {
	if input.IsZero() {
		return nil, "", apperrors.NewValidationError("no image to submit", nil)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := input.ReadAll(c.opts.MaxBytes)
	if err != nil {
		return nil, "", apperrors.NewSubmissionError("failed to read image", http.StatusUnprocessableEntity, err)
	}
	filename := input.Name()
	if strings.TrimSpace(filename) == "" {
		filename = naming.FallbackBaseName + naming.FallbackExtension
	}
	if err := writePart(w, c.opts.FieldName, filename, input.MIMEType(), data); err != nil {
		return nil, "", apperrors.NewSubmissionError("failed to encode image part", http.StatusInternalServerError, err)
	}

	if c.opts.LogoPath != "" {
		logo, err := os.ReadFile(c.opts.LogoPath)
		if err != nil {
			return nil, "", apperrors.NewSubmissionError("logo unavailable", http.StatusInternalServerError, err)
		}
		logoType := mimetype.Detect(logo).String()
		if err := writePart(w, LogoFieldName, filepath.Base(c.opts.LogoPath), logoType, logo); err != nil {
			return nil, "", apperrors.NewSubmissionError("failed to encode logo part", http.StatusInternalServerError, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", apperrors.NewSubmissionError("failed to finish multipart body", http.StatusInternalServerError, err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writePart is multipart.CreateFormFile with a real Content-Type instead of
// application/octet-stream.
func writePart(w *multipart.Writer, field, filename, contentType string, data []byte) error {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewSubmissionError("processing endpoint timed out", http.StatusGatewayTimeout, err)
	}
	return apperrors.NewSubmissionError("processing endpoint unreachable", http.StatusBadGateway, err)
}
