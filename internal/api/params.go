package api

import (
	"math"
	"strconv"
	"strings"
)

// ValidationError is bad or missing caller input. Message names the field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Parameter parsing helpers
func ParseCoordinates(params map[string]string) (float64, float64, error) {
	latStr := strings.TrimSpace(params["latitude"])
	lonStr := strings.TrimSpace(params["longitude"])

	if latStr == "" || lonStr == "" {
		return 0, 0, newValidationError("latitude,longitude", "Latitude and longitude parameters are required")
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil || !finite(lat) || !finite(lon) {
		return 0, 0, newValidationError("latitude,longitude", "Invalid latitude or longitude values")
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, newValidationError("latitude,longitude", "Latitude must be between -90 and 90, longitude between -180 and 180")
	}

	return lat, lon, nil
}

// RequireParam returns the trimmed value or a ValidationError with message.
func RequireParam(params map[string]string, name, message string) (string, error) {
	value := strings.TrimSpace(params[name])
	if value == "" {
		return "", newValidationError(name, message)
	}
	return value, nil
}

// ParamOrDefault returns the raw value when present, otherwise def.
func ParamOrDefault(params map[string]string, name, def string) string {
	if value, ok := params[name]; ok && value != "" {
		return value
	}
	return def
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
