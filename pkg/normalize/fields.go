// pkg/normalize/fields.go
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	namePattern        = regexp.MustCompile(`^\p{L}+(?:[-\s'\p{L}]+)*\.?$`)
	countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	dialPrefixPattern  = regexp.MustCompile(`\+\d+\(`)
	phoneStripPattern  = regexp.MustCompile(`[().]`)
	emailSplitPattern  = regexp.MustCompile(`[@.]`)
	weightPattern      = regexp.MustCompile(`(?i)^([0-9.]+)\s*(kg|g|ml|oz)$`)
	nonDigitPattern    = regexp.MustCompile(`\D`)

	titleCaser = cases.Title(language.English)
)

// addressAbbreviations is the fixed expansion table applied to address
// tokens. Expansion is token-bounded so an already expanded value round-trips
// unchanged.
var addressAbbreviations = map[string]string{
	"St.": "Street",
	"Ave": "Avenue",
	"Rd.": "Road",
}

// Index parses a non-negative integer row index.
func Index(raw interface{}) (int64, error) {
	s, err := asString(raw)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	if n < 0 {
		return 0, errors.New("negative index")
	}
	return n, nil
}

// Name validates a personal name: one or more Unicode letters, optionally
// followed by letter/hyphen/space/apostrophe groups and an optional trailing
// period. Returns the trimmed name.
func Name(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(s)
	if !namePattern.MatchString(trimmed) {
		return "", errors.New("no letters")
	}
	return trimmed, nil
}

// Date parses any common date text leniently and returns the calendar date
// with the time component zeroed (UTC).
func Date(raw interface{}) (time.Time, error) {
	if t, ok := raw.(time.Time); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	s, err := asString(raw)
	if err != nil {
		return time.Time{}, err
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, ErrEmpty
	}

	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable date %q", trimmed)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Timestamp validates an HH:MM:SS wall-clock value and returns it unchanged.
func Timestamp(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(s)
	if _, err := time.Parse("15:04:05", trimmed); err != nil {
		return "", errors.New("not an HH:MM:SS timestamp")
	}
	return trimmed, nil
}

// FreeText validates company names and other free text: anything non-empty
// after trimming.
func FreeText(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrEmpty
	}
	return trimmed, nil
}

// Address cleans a postal address: line breaks become ", ", internal
// whitespace collapses to single spaces, the fixed abbreviation table is
// expanded token-wise, and the result is title-cased.
func Address(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	joined := strings.ReplaceAll(s, "\n", ", ")
	collapsed := collapseWhitespace(strings.TrimSpace(joined))
	if collapsed == "" {
		return "", ErrEmpty
	}

	words := strings.Split(collapsed, " ")
	for i, w := range words {
		// Keep a trailing comma out of the lookup so "St.," expands too.
		trailing := ""
		if strings.HasSuffix(w, ",") {
			w = strings.TrimSuffix(w, ",")
			trailing = ","
		}
		if full, ok := addressAbbreviations[w]; ok {
			words[i] = full + trailing
		}
	}

	return titleCaser.String(strings.Join(words, " ")), nil
}

// Email cleans an email address: a doubled "@" collapses to one, then the
// value must split on "@" and "." into at least three non-empty segments,
// none containing whitespace.
func Email(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	cleaned := strings.ReplaceAll(s, "@@", "@")

	segments := 0
	for _, part := range emailSplitPattern.Split(cleaned, -1) {
		if part == "" {
			continue
		}
		if strings.ContainsAny(part, " \t") {
			return "", errors.New("contains whitespace")
		}
		segments++
	}
	if segments < 3 {
		return "", errors.New("too few segments")
	}
	return cleaned, nil
}

// CountryIn returns a normalizer that accepts only country names present in
// the supplied country-to-code lookup.
func CountryIn(lookup map[string]string) Func {
	return func(raw interface{}) (interface{}, error) {
		s, err := textOnly(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := lookup[s]; !ok {
			return nil, fmt.Errorf("unknown country %q", s)
		}
		return s, nil
	}
}

// CountryCode validates a two-uppercase-letter country code. The known
// upstream typo "GGB" is corrected to "GB"; this path applies the
// correction unconditionally, schemas confirm it against the country field.
func CountryCode(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	if countryCodePattern.MatchString(s) {
		return s, nil
	}
	if s == "GGB" {
		return "GB", nil
	}
	return "", errors.New("not a two-letter uppercase code")
}

// Phone standardizes a phone number: an international dialing prefix
// immediately before a parenthesis is stripped, a leading "(0)" is stripped,
// remaining parentheses and periods are removed, and the result is forced to
// start with "0".
func Phone(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", ErrEmpty
	}

	cleaned := dialPrefixPattern.ReplaceAllStringFunc(s, func(m string) string {
		return "(" // keep the parenthesis the prefix was attached to
	})
	cleaned = strings.TrimPrefix(cleaned, "(0)")
	cleaned = phoneStripPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", ErrEmpty
	}
	if !strings.HasPrefix(cleaned, "0") {
		cleaned = "0" + cleaned
	}
	return cleaned, nil
}

// UUIDv4 validates a version-4 identifier. The input is trimmed and
// lower-cased; it is valid only if its canonical rendering equals that
// exactly, so non-canonical formatting (braces, missing hyphens) is
// rejected.
func UUIDv4(raw interface{}) (string, error) {
	s, err := textOnly(raw)
	if err != nil {
		return "", err
	}

	lowered := strings.ToLower(strings.TrimSpace(s))
	parsed, err := uuid.Parse(lowered)
	if err != nil {
		return "", errors.New("not a UUID")
	}
	if parsed.Version() != 4 {
		return "", fmt.Errorf("UUID version %d, want 4", parsed.Version())
	}
	if parsed.String() != lowered {
		return "", errors.New("non-canonical UUID formatting")
	}
	return lowered, nil
}

// currencySymbols are the recognized monetary prefixes.
var currencySymbols = []string{"£", "$", "€"}

// Money strips a recognized currency symbol prefix and parses the remainder
// as an exact decimal amount.
func Money(raw interface{}) (decimal.Decimal, error) {
	s, err := asString(raw)
	if err != nil {
		return decimal.Zero, err
	}

	trimmed := strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		if strings.HasPrefix(trimmed, sym) {
			trimmed = strings.TrimPrefix(trimmed, sym)
			break
		}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(trimmed))
	if err != nil {
		return decimal.Zero, errors.New("not a decimal amount")
	}
	return amount, nil
}

// gramsPerUnit converts a recognized weight unit to grams. The ml factor
// assumes water density; a documented approximation, not a fix candidate.
var gramsPerUnit = map[string]float64{
	"kg": 1000,
	"g":  1,
	"ml": 1,
	"oz": 28.3495,
}

// Weight parses a magnitude with a trailing unit token (kg, g, ml, oz,
// case-insensitive) and converts it to grams.
func Weight(raw interface{}) (float64, error) {
	s, err := asString(raw)
	if err != nil {
		return 0, err
	}

	m := weightPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, errors.New("unrecognized unit")
	}

	magnitude, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.New("non-numeric weight")
	}
	return magnitude * gramsPerUnit[strings.ToLower(m[2])], nil
}

// StaffCount strips every non-digit character and parses what remains.
func StaffCount(raw interface{}) (int64, error) {
	s, err := asString(raw)
	if err != nil {
		return 0, err
	}

	digits := nonDigitPattern.ReplaceAllString(s, "")
	if digits == "" {
		return 0, errors.New("no digits")
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, errors.New("not a count")
	}
	return n, nil
}

// CardNumber strips every non-digit character and accepts 9 to 19 digits,
// the length range seen across order and payment sources.
func CardNumber(raw interface{}) (string, error) {
	s, err := asString(raw)
	if err != nil {
		return "", err
	}

	digits := nonDigitPattern.ReplaceAllString(s, "")
	if len(digits) < 9 || len(digits) > 19 {
		return "", fmt.Errorf("card number has %d digits, want 9-19", len(digits))
	}
	return digits, nil
}

// Float parses a plain floating-point value, used for store coordinates.
func Float(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	}

	s, err := asString(raw)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return f, nil
}
