package sender

import (
	"fmt"
	protocol "github.com/influxdata/line-protocol"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParsePoint parses a single line protocol literal such as
//
//	cpu,host=a\ b usage=20.5 100
//
// into a Point. Tags come back sorted by key, the way the Influx parser stores
// them. A line without a timestamp yields a Point without one.
func ParsePoint(line string) (Point, error) {
	parser := protocol.NewParser(protocol.NewMetricHandler())
	parser.SetTimeFunc(func() time.Time { return time.Time{} })

	metrics, err := parser.Parse([]byte(line))
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if len(metrics) != 1 {
		return Point{}, fmt.Errorf("%w: expected one line, got %d", ErrSyntax, len(metrics))
	}

	return PointFromMetric(metrics[0])
}

var stringFieldUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
)

// ParseFieldValue parses one field literal: "10i" is an integer, "20.5" a
// float, "true" or "false" a boolean and a double-quoted value a string with
// \" and \\ unescaped. Anything else is taken as a bare string.
func ParseFieldValue(s string) (FieldValue, error) {
	if s == "" {
		return FieldValue{}, fmt.Errorf("%w: empty field literal", ErrSyntax)
	}

	if strings.HasPrefix(s, `"`) {
		if len(s) < 2 || !strings.HasSuffix(s, `"`) {
			return FieldValue{}, fmt.Errorf("%w: unterminated string literal %s", ErrSyntax, s)
		}
		return String(stringFieldUnescaper.Replace(s[1 : len(s)-1])), nil
	}

	switch s {
	case "t", "T", "true", "True", "TRUE":
		return Bool(true), nil
	case "f", "F", "false", "False", "FALSE":
		return Bool(false), nil
	}

	if strings.HasSuffix(s, "i") {
		if v, err := strconv.ParseInt(s[:len(s)-1], 10, 64); err == nil {
			return Int(v), nil
		}
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Float(v), nil
	}

	return String(s), nil
}
