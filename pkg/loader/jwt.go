package loader

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// IsJWT detects whether input looks like a JWT token: exactly three
// dot-separated parts where the first two are base64url-encoded JSON objects.
func IsJWT(input string) bool {
	input = strings.TrimPrefix(input, "Bearer ")
	input = strings.TrimSpace(input)

	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if len(part) == 0 {
			return false
		}
	}

	for i := 0; i < 2; i++ {
		decoded, err := base64.RawURLEncoding.DecodeString(parts[i])
		if err != nil {
			return false
		}
		var obj map[string]any
		if err := json.Unmarshal(decoded, &obj); err != nil {
			return false
		}
	}

	// The signature only needs to be valid base64url.
	_, err := base64.RawURLEncoding.DecodeString(parts[2])
	return err == nil
}

// DecodeJWT splits and decodes a JWT token into a map with header, payload,
// and signature keys, so claims can be resolved like any other path
// ("payload.sub", "header.alg").
func DecodeJWT(input string) (map[string]any, error) {
	input = strings.TrimPrefix(input, "Bearer ")
	input = strings.TrimSpace(input)

	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT: expected 3 parts, got %d", len(parts))
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header: %w", err)
	}
	var header map[string]any
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid JWT header JSON: %w", err)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("invalid JWT payload JSON: %w", err)
	}

	// Signature stays as the raw base64url string; it is binary data that
	// has no JSON representation.
	return map[string]any{
		"header":    header,
		"payload":   payload,
		"signature": parts[2],
	}, nil
}

// loadJWT parses a JWT string into the single-document slice shape.
func loadJWT(input string) ([]any, error) {
	decoded, err := DecodeJWT(input)
	if err != nil {
		return nil, err
	}
	return []any{decoded}, nil
}
