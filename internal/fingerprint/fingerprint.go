// Package fingerprint derives a short display hash from the leading bytes of
// an image. It is for human disambiguation only.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/pkg/models"
)

const (
	// PrefixSize bounds how much of the image is read.
	PrefixSize = 10000
	// Length is the number of hex characters returned.
	Length = 8
)

// Fingerprint hashes at most PrefixSize bytes of the input with SHA-256 and
// returns the first Length hex characters.
func Fingerprint(input models.ImageInput) (string, error) {
	rc, err := input.Open()
	if err != nil {
		return "", apperrors.NewFingerprintError("image bytes unavailable", err)
	}
	defer rc.Close()

	return FromReader(rc)
}

// FromReader is Fingerprint over an arbitrary reader.
func FromReader(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, io.LimitReader(r, PrefixSize)); err != nil {
		return "", apperrors.NewFingerprintError("failed to read image prefix", err)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:Length], nil
}
