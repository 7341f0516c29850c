// Package naming derives the human-facing names of an image: the display
// identifier shown next to the input and the suggested download file name.
package naming

import (
	"fmt"
	"mime"
	"strings"
)

const (
	// Suffix is inserted before the extension of the output file name.
	Suffix = "_gradient"
	// FallbackBaseName stands in for inputs that arrive without a name.
	FallbackBaseName = "pasted_image"
	// FallbackExtension completes FallbackBaseName when deriving output names.
	FallbackExtension = ".png"
	// DefaultOutputName applies when there is no input at all.
	DefaultOutputName = "gradient_image.png"
)

// DeriveOutputName inserts Suffix before the last dot of the name, or appends
// it when the name has no usable extension. A dot at index 0 (".png") is not
// an extension separator, so the base never becomes empty. Blank names use
// FallbackBaseName+FallbackExtension.
func DeriveOutputName(declaredName string) string {
	name := declaredName
	if isBlank(name) {
		name = FallbackBaseName + FallbackExtension
	}

	if dot := strings.LastIndex(name, "."); dot > 0 {
		return name[:dot] + Suffix + name[dot:]
	}
	return name + Suffix
}

// DeriveDisplayIdentifier renders "name (fingerprint)", or the bare name when
// fingerprinting failed.
func DeriveDisplayIdentifier(declaredName, fingerprint string, fingerprintErr error) string {
	name := DisplayName(declaredName)
	if fingerprintErr != nil || fingerprint == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, fingerprint)
}

// DisplayName is the declared name, or FallbackBaseName when it is blank.
func DisplayName(declaredName string) string {
	if isBlank(declaredName) {
		return FallbackBaseName
	}
	return declaredName
}

// PastedName synthesizes "pasted_image.<subtype>" for an image fetched from a
// pasted URL. Parameters such as "; charset=..." are dropped.
func PastedName(contentType string) string {
	ext := SubtypeOf(contentType)
	if ext == "" {
		return FallbackBaseName
	}
	return FallbackBaseName + "." + ext
}

// SubtypeOf returns the lower-cased subtype of a media type, or "" when the
// value has none.
func SubtypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	_, subtype, ok := strings.Cut(strings.ToLower(mediaType), "/")
	if !ok {
		return ""
	}
	return strings.TrimSpace(subtype)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
