package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// OrderNumberFormat renders and parses sequence-backed document numbers such as WO-000042
type OrderNumberFormat struct {
	Prefix  string
	Padding int
	pattern *regexp.Regexp
}

// NewOrderNumberFormat creates a format for prefix with zero padding to width digits
func NewOrderNumberFormat(prefix string, padding int) (*OrderNumberFormat, error) {
	if prefix == "" {
		return nil, fmt.Errorf("number prefix cannot be empty")
	}
	if padding < 1 {
		return nil, fmt.Errorf("number padding must be positive, got %d", padding)
	}
	return &OrderNumberFormat{
		Prefix:  prefix,
		Padding: padding,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)$`),
	}, nil
}

// Format renders sequence value seq
func (f *OrderNumberFormat) Format(seq int64) string {
	return fmt.Sprintf("%s-%0*d", f.Prefix, f.Padding, seq)
}

// Parse extracts the sequence value from a number produced by Format
func (f *OrderNumberFormat) Parse(number string) (int64, error) {
	matches := f.pattern.FindStringSubmatch(number)
	if len(matches) != 2 {
		return 0, fmt.Errorf("invalid %s number format: %s", f.Prefix, number)
	}

	seq, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric portion in %s: %v", number, err)
	}
	return seq, nil
}

// Compare orders two numbers by sequence value. Numbers that do not parse fall back
// to string comparison.
// Returns: -1 if a < b, 0 if equal, 1 if a > b
func (f *OrderNumberFormat) Compare(a, b string) int {
	if a == b {
		return 0
	}

	seqA, errA := f.Parse(a)
	seqB, errB := f.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	if seqA < seqB {
		return -1
	} else if seqA > seqB {
		return 1
	}
	return 0
}
