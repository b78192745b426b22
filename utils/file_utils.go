package utils

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// Base directory for storing uploaded files
	UploadBaseDir = "uploads"
	// Base URL for serving files
	UploadBaseURL = "/uploads"
	// Maximum file size (10MB)
	MaxFileSize = 10 * 1024 * 1024
	// Receipts wider than this are scaled down
	maxReceiptWidth = 1600
)

// Allowed image extensions
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// CleanFilename removes any potentially dangerous characters from the filename
func CleanFilename(filename string) string {
	filename = filepath.Base(filename)
	return unsafeFilenameChars.ReplaceAllString(filename, "")
}

// ValidateImageFile checks the size and extension of an uploaded image
func ValidateImageFile(filename string, size int) error {
	if size == 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxFileSize {
		return fmt.Errorf("file too large. Maximum size is %d bytes", MaxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}

// NormalizeReceiptImage decodes the image, applies EXIF orientation, scales it down to a
// sane width and re-encodes it as JPEG.
func NormalizeReceiptImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > maxReceiptWidth {
		img = imaging.Resize(img, maxReceiptWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveUploadedFile writes data under uploads/<subDir>/<filename> and returns the public URL
// and the storage path.
func SaveUploadedFile(baseDir, subDir, filename string, data []byte) (string, string, error) {
	if baseDir == "" {
		baseDir = UploadBaseDir
	}
	name := CleanFilename(filename)
	if name == "" || name == "." {
		return "", "", fmt.Errorf("invalid filename")
	}
	relPath := filepath.ToSlash(filepath.Join(subDir, name))
	fullPath := filepath.Join(baseDir, subDir, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", "", fmt.Errorf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write file: %v", err)
	}
	return fmt.Sprintf("%s/%s", UploadBaseURL, relPath), relPath, nil
}

// DeleteUploadedFile removes a file saved by SaveUploadedFile. Missing files are not an error.
func DeleteUploadedFile(baseDir, relPath string) error {
	if baseDir == "" {
		baseDir = UploadBaseDir
	}
	clean := filepath.Clean("/" + relPath)
	err := os.Remove(filepath.Join(baseDir, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
