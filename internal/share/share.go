// Package share builds shareable links and QR codes for voting categories.
package share

import (
	"fmt"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

// VoteURL returns the public web URL for voting in a category
func VoteURL(webBase string, categoryID int) string {
	return fmt.Sprintf("%s/vote/%d", webBase, categoryID)
}

// ResultsURL returns the public web URL for a category's results
func ResultsURL(webBase string, categoryID int) string {
	return fmt.Sprintf("%s/results/%d", webBase, categoryID)
}

// QRPNG encodes a URL as a QR code PNG
func QRPNG(url string, size int) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// WriteQRPNG writes a QR code PNG for the URL to the given path
func WriteQRPNG(url, path string, size int) error {
	png, err := QRPNG(url, size)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0644)
}
