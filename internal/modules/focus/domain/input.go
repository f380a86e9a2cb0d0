package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "focuslock/internal/platform/errors"
)

const (
	ReasonNoWebsites     = "No websites to block were provided."
	ReasonBlockTimeRange = "Block time must be greater than zero."
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseBlockTime reads the leading decimal number of raw, ignoring trailing
// text ("25 min" is 25). The result must be finite, positive and fit a
// time.Duration.
func ParseBlockTime(raw string) (float64, error) {
	match := leadingNumber.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0, &ValidationError{Field: "blockTime", Reason: ReasonBlockTimeRange}
	}
	minutes, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(minutes, 0) || math.IsNaN(minutes) || minutes <= 0 || minutes*float64(time.Minute) >= math.MaxInt64 {
		return 0, &ValidationError{Field: "blockTime", Reason: ReasonBlockTimeRange}
	}
	return minutes, nil
}

// NormalizeSites trims entries, drops blanks and keeps the first occurrence
// of each site (compared case-insensitively), preserving order.
func NormalizeSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	seen := make(map[string]struct{}, len(sites))
	for _, site := range sites {
		site = strings.TrimSpace(site)
		if site == "" {
			continue
		}
		key := strings.ToLower(site)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, site)
	}
	return out
}

// ParseSiteList splits free text on newlines and commas.
func ParseSiteList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	return NormalizeSites(fields)
}

func ValidateSites(sites []string) ([]string, error) {
	normalized := NormalizeSites(sites)
	if len(normalized) == 0 {
		return nil, &ValidationError{Field: "websites", Reason: ReasonNoWebsites}
	}
	return normalized, nil
}

// IsBlocked is the loose client-side check: a URL is blocked when it
// contains any saved site as a substring.
func IsBlocked(rawURL string, sites []string) (string, bool) {
	for _, site := range sites {
		site = strings.TrimSpace(site)
		if site == "" {
			continue
		}
		if strings.Contains(rawURL, site) {
			return site, true
		}
	}
	return "", false
}

func FormatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}

func StartedMessage(minutes float64) string {
	return fmt.Sprintf("You have %s minutes to focus.", FormatMinutes(minutes))
}
