package security

import (
	"mime"
	"net/http"
)

var allowedContentTypes = map[string]bool{
	"application/json":    true,
	"multipart/form-data": true,
}

// ValidateContentType reports whether a request body of this Content-Type is accepted.
// Parameters such as charset or boundary are ignored.
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedContentTypes[mediaType]
}

// SanitizeHeaders returns a copy of headers without credentials, safe to log.
func SanitizeHeaders(headers http.Header) http.Header {
	sensitiveHeaders := []string{
		"Authorization",
		"Cookie",
		"Set-Cookie",
		"X-CSRF-Token",
	}

	clean := headers.Clone()
	for _, header := range sensitiveHeaders {
		clean.Del(header)
	}
	return clean
}
