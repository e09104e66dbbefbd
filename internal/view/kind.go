package view

import (
	"fmt"
	"strings"
)

// Kind is the view granularity. The set is closed: every switch over Kind
// handles all four values.
type Kind int

const (
	Day Kind = iota
	Week
	Month
	Year
)

// Kinds lists every view in display order.
var Kinds = []Kind{Day, Week, Month, Year}

func (k Kind) String() string {
	switch k {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses "day", "week", "month" or "year".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	}
	return Day, fmt.Errorf("unknown view %q", s)
}
