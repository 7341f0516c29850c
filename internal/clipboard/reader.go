// Package clipboard reads the operating system clipboard into a paste event
// by shelling out to the platform's clipboard tools.
package clipboard

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/anime-shed/gradient-fade/internal/logger"
	"github.com/anime-shed/gradient-fade/pkg/models"
)

// ErrEmpty is returned when no tool produced any clipboard content.
var ErrEmpty = errors.New("clipboard is empty or no clipboard tool is available (try wl-paste, xclip or pngpaste)")

// CommandRunner runs a tool and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type command struct {
	name string
	args []string
}

const psImageScript = `Add-Type -AssemblyName System.Windows.Forms; Add-Type -AssemblyName System.Drawing
if ([Windows.Forms.Clipboard]::ContainsImage()) {
  $ms = New-Object System.IO.MemoryStream
  [Windows.Forms.Clipboard]::GetImage().Save($ms, [System.Drawing.Imaging.ImageFormat]::Png)
  [Convert]::ToBase64String($ms.ToArray())
}`

// SystemReader reads image bytes, a file list and text from the clipboard.
type SystemReader struct {
	goos   string
	runner CommandRunner
}

func NewSystemReader() *SystemReader {
	return NewSystemReaderWithRunner(runtime.GOOS, execRunner{})
}

func NewSystemReaderWithRunner(goos string, runner CommandRunner) *SystemReader {
	return &SystemReader{goos: goos, runner: runner}
}

// Read collects whatever the clipboard holds. Image bytes become a typed
// item, existing file paths or file:// URIs become the file list, and the
// raw text is kept as text.
func (r *SystemReader) Read(ctx context.Context) (models.PasteEvent, error) {
	var event models.PasteEvent

	if data := r.readImage(ctx); len(data) > 0 {
		input := models.ImageInputFromBytes("", "image/png", data)
		event.Items = append(event.Items, models.ClipboardItem{
			Kind: models.ClipboardKindFile,
			Type: "image/png",
			File: &input,
		})
	}

	text := r.readText(ctx)
	event.Text = text
	event.Files = filesFromText(text)

	if len(event.Items) == 0 && len(event.Files) == 0 && strings.TrimSpace(text) == "" {
		return event, ErrEmpty
	}
	return event, nil
}

func (r *SystemReader) readImage(ctx context.Context) []byte {
	switch r.goos {
	case "windows":
		out, err := r.runner.Run(ctx, "powershell", "-NoProfile", "-Command", psImageScript)
		if err != nil {
			return nil
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(out)))
		if err != nil {
			return nil
		}
		return data
	case "darwin":
		return r.firstOutput(ctx, []command{{"pngpaste", []string{"-"}}})
	default:
		return r.firstOutput(ctx, []command{
			{"wl-paste", []string{"--no-newline", "--type", "image/png"}},
			{"xclip", []string{"-selection", "clipboard", "-t", "image/png", "-o"}},
		})
	}
}

func (r *SystemReader) readText(ctx context.Context) string {
	var candidates []command
	switch r.goos {
	case "windows":
		candidates = []command{{"powershell", []string{"-NoProfile", "-Command", "Get-Clipboard -Raw"}}}
	case "darwin":
		candidates = []command{{"pbpaste", nil}}
	default:
		candidates = []command{
			{"wl-paste", []string{"--no-newline", "--type", "text/plain"}},
			{"xclip", []string{"-selection", "clipboard", "-o"}},
			{"xsel", []string{"--clipboard", "--output"}},
		}
	}
	return strings.TrimRight(string(r.firstOutput(ctx, candidates)), "\r\n")
}

func (r *SystemReader) firstOutput(ctx context.Context, candidates []command) []byte {
	for _, c := range candidates {
		out, err := r.runner.Run(ctx, c.name, c.args...)
		if err != nil {
			logger.WithField("tool", c.name).WithError(err).Debug("Clipboard tool produced nothing")
			continue
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// filesFromText turns a clipboard text consisting of absolute file paths or
// file:// URIs (one per line, as file managers copy them) into the file list.
// Relative names are plain text, not files.
func filesFromText(text string) []models.ImageInput {
	var files []models.ImageInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		path := line
		if strings.HasPrefix(line, "file://") {
			u, err := url.Parse(line)
			if err != nil {
				return nil
			}
			path = uriPath(u.Path)
		}
		if !filepath.IsAbs(path) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		input, err := models.ImageInputFromFile(path, "")
		if err != nil {
			return nil
		}
		files = append(files, input)
	}
	return files
}

// uriPath maps "/C:/dir/a.png" from a Windows file URI to a native path.
func uriPath(p string) string {
	if len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}
