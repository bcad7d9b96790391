package extraction

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Extraction failures, one per user-visible remediation path. Every error
// returned by an Extractor wraps exactly one of these so callers can
// discriminate with errors.Is.
var (
	// ErrMissingCredential means no API credential is configured. Checked
	// locally before any network call is attempted.
	ErrMissingCredential = errors.New("no API credential configured")

	// ErrInvalidCredential means the external service rejected the credential.
	ErrInvalidCredential = errors.New("API credential rejected")

	// ErrQuotaExhausted means the external service reported a rate or quota
	// limit. Retryable after a delay; no automatic backoff is performed.
	ErrQuotaExhausted = errors.New("extraction service quota exhausted")

	// ErrEmptyResponse means the service returned no textual payload.
	ErrEmptyResponse = errors.New("empty response from extraction service")

	// ErrMalformedResponse means the response text did not conform to the
	// expected schema.
	ErrMalformedResponse = errors.New("malformed response from extraction service")
)

// classifyAPIError reclassifies a transport error into the taxonomy above.
// Quota and credential failures are recognized by status code when the
// backend surfaces one, and by message content otherwise ("entity was not
// found" is how the Gemini API reports an invalid or unfunded key).
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	case strings.Contains(msg, "entity was not found") || strings.Contains(msg, "api key"):
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	return fmt.Errorf("calling extraction service: %w", err)
}
