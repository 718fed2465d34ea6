package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DurationFormat converts a [time.Duration] field to an value that can be
// logged. A nil return leaves the field unchanged.
type DurationFormat func(time.Duration) interface{}

var (
	DurationFormatString       DurationFormat = func(d time.Duration) interface{} { return d.String() }
	DurationFormatSeconds      DurationFormat = func(d time.Duration) interface{} { return d.Seconds() }
	DurationFormatMilliseconds DurationFormat = func(d time.Duration) interface{} { return d.Milliseconds() }
)

// Format formats an object into a JSON string, without any indendtation or
// HTML escapes.
// Context is used to output a log waring if the conversion fails.
//
// This is intended primarily for span attributes.
func Format(ctx context.Context, v interface{}) string {
	b, err := encode(v)
	if err != nil {
		G(ctx).WithError(err).Warning("could not format value")
		return ""
	}

	return string(b)
}

func encode(v interface{}) ([]byte, error) {
	return encodeBuffer(&bytes.Buffer{}, v)
}

func encodeBuffer(buf *bytes.Buffer, v interface{}) ([]byte, error) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "")

	if err := enc.Encode(v); err != nil {
		err = fmt.Errorf("could not marshall %T to JSON for logging: %w", v, err)
		return nil, err
	}

	// encoder.Encode appends a newline to the end
	return bytes.TrimSpace(buf.Bytes()), nil
}
