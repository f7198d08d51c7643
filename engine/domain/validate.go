package domain

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinModelYear is the earliest model year accepted in a vehicle context.
const MinModelYear = 1900

// MaxModelYear is the latest model year accepted (next-year models included).
const MaxModelYear = 2028

const maxQueryLength = 200

var yearRegex = regexp.MustCompile(`^\d{4}$`)

// Injection patterns: SQL, NoSQL and template fragments that never belong in a part search.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION)\b.*\b(TABLE|FROM|INTO|SELECT|SET)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)\$\{.*\}`),            // template injection
	regexp.MustCompile(`(?i)\{\s*"\$[a-z]+"\s*:`), // NoSQL operator injection
	regexp.MustCompile(`(?i)<\s*script`),
}

// NormalizeQuery trims surrounding whitespace from a raw search phrase.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// ValidateQuery validates a raw search phrase.
func ValidateQuery(q string) error {
	text := NormalizeQuery(q)
	if text == "" {
		return NewValidationError("query", q, ErrInvalidQuery)
	}
	if utf8.RuneCountInString(text) > maxQueryLength {
		return NewValidationError("query", string([]rune(text)[:32])+"...", ErrQueryTooLong)
	}
	for _, pat := range injectionPatterns {
		if pat.MatchString(text) {
			return NewValidationError("query", text, ErrQueryInjection)
		}
	}
	return nil
}

// NormalizeVehicle trims every field and returns nil when nothing remains.
func NormalizeVehicle(v *VehicleContext) *VehicleContext {
	if v == nil {
		return nil
	}
	out := &VehicleContext{
		Year:  strings.TrimSpace(v.Year),
		Make:  strings.TrimSpace(v.Make),
		Model: strings.TrimSpace(v.Model),
	}
	if out.IsZero() {
		return nil
	}
	return out
}

// ValidateVehicle validates an optional vehicle context. A nil context is valid.
func ValidateVehicle(v *VehicleContext) error {
	if v == nil || v.Year == "" {
		return nil
	}
	if !yearRegex.MatchString(v.Year) {
		return NewValidationError("year", v.Year, ErrInvalidYear)
	}
	year, _ := strconv.Atoi(v.Year)
	if year < MinModelYear || year > MaxModelYear {
		return NewValidationError("year", v.Year, ErrInvalidYear)
	}
	return nil
}
