package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

// FlexibleID accepts a JSON string or number. Gateway payment ids are numeric
// and the dashboard forwards them as received.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*id = FlexibleID(strings.TrimSpace(value))
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexibleID(number.String())
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}

// parseDateTime accepts RFC3339, a datetime-local value or a bare date.
// Zone-less values are read in America/Sao_Paulo. endOfDay moves a bare date
// to its last instant so date ranges stay inclusive.
func parseDateTime(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if parsed, err := time.ParseInLocation(layout, value, entity.SaoPaulo); err == nil {
			return parsed.UTC(), nil
		}
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, entity.SaoPaulo)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	if endOfDay {
		parsed = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}
	return parsed.UTC(), nil
}

func hasAtMostTwoDecimals(value decimal.Decimal) bool {
	return value.Equal(value.Round(2))
}

func parseInt32Query(name, raw string) (int32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return int32(value), nil
}

func maxLen(field, value string, limit int) error {
	if len([]rune(value)) > limit {
		return fmt.Errorf("%s must have at most %d characters", field, limit)
	}
	return nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
