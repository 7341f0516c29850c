package validation

import (
	"net/url"
	"regexp"
	"strings"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
)

// pastedURLPattern matches a whole clipboard text that is a single http(s) URL.
var pastedURLPattern = regexp.MustCompile(`(?i)^https?://\S+$`)

// URLValidator decides whether pasted text is an image URL worth fetching
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// LooksLikeURL is the cheap syntactic check applied to every text paste
// before any network call is considered.
func LooksLikeURL(text string) bool {
	return pastedURLPattern.MatchString(strings.TrimSpace(text))
}

// ParsePastedURL trims the text and validates it, returning the URL to fetch.
func (v *URLValidator) ParsePastedURL(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if !LooksLikeURL(trimmed) {
		return "", apperrors.NewValidationError("text is not an http(s) URL", nil)
	}
	if err := v.ValidateImageURL(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidateImageURL validates if the provided URL is acceptable for fetching
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// isSchemeAllowed checks the scheme case-insensitively
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
