package databases

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// formatValue renders a value of a column of type dbType as text, giving the
// dialect the first say. SQL NULL stays nil.
func (s *Session) formatValue(dbType string, v any) *string {
	if v == nil {
		return nil
	}
	if format := s.dialect.FormatValue; format != nil {
		if text, ok := format(dbType, v); ok {
			return &text
		}
	}
	return toNullableString(v)
}

// toNullableString renders a driver value as text. SQL NULL stays nil.
func toNullableString(v any) *string {
	if v == nil {
		return nil
	}

	var s string
	switch val := v.(type) {
	case []byte:
		s = string(val)
	case time.Time:
		s = val.Format("2006-01-02 15:04:05.999999999")
	case fmt.Stringer:
		s = val.String()
	default:
		var err error
		if s, err = cast.ToStringE(v); err != nil {
			s = fmt.Sprint(v)
		}
	}
	return &s
}

// toInt64 converts the integer-like values drivers return for COUNT and SUM,
// including decimal text and arbitrary precision integers. NULL counts as 0.
func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case []byte:
		return cast.ToInt64E(strings.TrimSpace(string(val)))
	case interface{ Int64() int64 }:
		return val.Int64(), nil
	default:
		return cast.ToInt64E(v)
	}
}
