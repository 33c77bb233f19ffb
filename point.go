package sender

import (
	"fmt"
	protocol "github.com/influxdata/line-protocol"
	"math"
	"time"
)

// Tag is an indexed, string-valued label of a Point.
type Tag struct {
	Key   string
	Value string
}

// Field is a typed value of a Point.
type Field struct {
	Key   string
	Value FieldValue
}

// Point is a single metric observation. Tags and fields are encoded in the
// order they were added. A zero Timestamp is left off the line so the agent
// assigns the receipt time.
type Point struct {
	Measurement string
	Tags        []Tag
	Fields      []Field
	Timestamp   time.Time
}

// compile-time check for protocol.Metric conformance
var _ protocol.Metric = (*Point)(nil)

func NewPoint(measurement string) *Point {
	return &Point{Measurement: measurement}
}

func (p *Point) AddTag(key, value string) *Point {
	p.Tags = append(p.Tags, Tag{Key: key, Value: value})
	return p
}

func (p *Point) AddField(key string, value FieldValue) *Point {
	p.Fields = append(p.Fields, Field{Key: key, Value: value})
	return p
}

func (p *Point) SetTime(t time.Time) *Point {
	p.Timestamp = t
	return p
}

// SetTimestamp sets the timestamp from nanoseconds since the Unix epoch.
func (p *Point) SetTimestamp(ns int64) *Point {
	return p.SetTime(time.Unix(0, ns))
}

// HasTimestamp reports whether the point carries its own timestamp.
func (p *Point) HasTimestamp() bool {
	return !p.Timestamp.IsZero()
}

func (p *Point) Name() string {
	return p.Measurement
}

func (p *Point) TagList() []*protocol.Tag {
	tags := make([]*protocol.Tag, len(p.Tags))
	for i, t := range p.Tags {
		tags[i] = &protocol.Tag{Key: t.Key, Value: t.Value}
	}
	return tags
}

func (p *Point) FieldList() []*protocol.Field {
	fields := make([]*protocol.Field, len(p.Fields))
	for i, f := range p.Fields {
		fields[i] = &protocol.Field{Key: f.Key, Value: f.Value.Interface()}
	}
	return fields
}

// Time returns the point's timestamp, which is the zero time when absent.
func (p *Point) Time() time.Time {
	return p.Timestamp
}

// Timestamps must fit in int64 nanoseconds since the epoch.
var (
	minTimestamp = time.Unix(0, math.MinInt64)
	maxTimestamp = time.Unix(0, math.MaxInt64)
)

// Validate checks that p can be encoded: the measurement, tag keys, tag values
// and field keys are non-empty, there is at least one field, every field value
// is representable and the timestamp, if any, fits in int64 nanoseconds.
func (p *Point) Validate() error {
	if p.Measurement == "" {
		return fmt.Errorf("%w: empty measurement", ErrEncoding)
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("%w: measurement %q has no fields", ErrEncoding, p.Measurement)
	}
	for _, t := range p.Tags {
		if t.Key == "" {
			return fmt.Errorf("%w: empty tag key", ErrEncoding)
		}
		if t.Value == "" {
			return fmt.Errorf("%w: empty value for tag %q", ErrEncoding, t.Key)
		}
	}
	for _, f := range p.Fields {
		if f.Key == "" {
			return fmt.Errorf("%w: empty field key", ErrEncoding)
		}
		if err := f.Value.validate(); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	if p.HasTimestamp() && (p.Timestamp.Before(minTimestamp) || p.Timestamp.After(maxTimestamp)) {
		return fmt.Errorf("%w: timestamp %s is out of the nanosecond range", ErrEncoding,
			p.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// PointFromMetric copies an Influx protocol.Metric into a Point, converting
// each field value with ToFieldValue. A zero metric time stays absent.
func PointFromMetric(m protocol.Metric) (Point, error) {
	p := Point{
		Measurement: m.Name(),
		Timestamp:   m.Time(),
	}

	for _, t := range m.TagList() {
		p.Tags = append(p.Tags, Tag{Key: t.Key, Value: t.Value})
	}

	for _, f := range m.FieldList() {
		v, err := ToFieldValue(f.Value)
		if err != nil {
			return Point{}, fmt.Errorf("field %q: %w", f.Key, err)
		}
		p.Fields = append(p.Fields, Field{Key: f.Key, Value: v})
	}

	return p, nil
}

// Metric is implemented by caller types that map themselves to a Point.
type Metric interface {
	ToPoint() Point
}
