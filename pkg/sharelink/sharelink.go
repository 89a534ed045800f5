// Package sharelink produces shareable pointers to processed flights: a
// stable URL derived from the record's data id, and a QR code PNG written
// next to the artifact so a printout or a phone screen can carry the link.
package sharelink

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// BaseURL is the public flight viewer; the escaped data id is the path.
const BaseURL = "https://cosmic-on-air.org/flight/"

const qrSizePx = 512

// URL returns the share link for a record's data id.
func URL(dataID string) string {
	return BaseURL + url.PathEscape(dataID)
}

// WriteQR renders the share link as a QR code PNG at path.  Medium error
// correction keeps the code scannable from a crumpled boarding-pass print.
func WriteQR(path, dataID string) error {
	if err := qrcode.WriteFile(URL(dataID), qrcode.Medium, qrSizePx, path); err != nil {
		return fmt.Errorf("write share QR: %w", err)
	}
	return nil
}

// ForArtifact writes the QR next to the processed artifact, swapping the
// extension for .png, and returns the PNG path.
func ForArtifact(artifactPath, dataID string) (string, error) {
	ext := filepath.Ext(artifactPath)
	pngPath := strings.TrimSuffix(artifactPath, ext) + ".png"
	if err := WriteQR(pngPath, dataID); err != nil {
		return "", err
	}
	return pngPath, nil
}
