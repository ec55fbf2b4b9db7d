package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RagicIDKey is the synthetic field under which the remote record identifier
// is stored on a RemoteRecord. Ragic list responses key records by id; the
// client folds that key back into the record under this name.
const RagicIDKey = "_ragicId"

// RemoteRecord is a raw Ragic record: field keys mapped to raw string values.
// Adapters deliver records keyed by remote field identifier; the mapping
// layer remaps them to logical field names before domain code reads them.
type RemoteRecord map[string]string

// FieldError reports a single record value that does not fit the expected
// shape. It names the field and the raw value so a sync run can skip the
// record instead of aborting the batch.
type FieldError struct {
	Field string
	Raw   string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q: %v", e.Field, e.Raw, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Ragic returns every cell as text, so typed accessors cast here. Empty
// values cast to the zero value without error; malformed values return a
// *FieldError.

var dateLayouts = []string{
	"2006/01/02",
	"2006-01-02",
}

var dateTimeLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var (
	errBadDate     = errors.New("unrecognized date format")
	errBadDateTime = errors.New("unrecognized datetime format")
)

// RagicID returns the remote record identifier, or 0 when absent/invalid.
func (r RemoteRecord) RagicID() int64 {
	id, err := strconv.ParseInt(r[RagicIDKey], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Get returns the raw value for a field key ("" when absent).
func (r RemoteRecord) Get(field string) string {
	return r[field]
}

// Text returns the field value with surrounding whitespace trimmed.
func (r RemoteRecord) Text(field string) string {
	return strings.TrimSpace(r[field])
}

func (r RemoteRecord) Int(field string) (int64, error) {
	s := r.Text(field)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0, &FieldError{Field: field, Raw: r[field], Err: err}
	}
	return v, nil
}

func (r RemoteRecord) Float(field string) (float64, error) {
	s := r.Text(field)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, &FieldError{Field: field, Raw: r[field], Err: err}
	}
	return v, nil
}

// Bool treats the usual affirmative spellings as true and anything else,
// including empty, as false.
func (r RemoteRecord) Bool(field string) bool {
	switch strings.ToLower(r.Text(field)) {
	case "true", "yes", "y", "1", "on":
		return true
	}
	return false
}

func (r RemoteRecord) Date(field string) (time.Time, error) {
	s := r.Text(field)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FieldError{Field: field, Raw: r[field], Err: errBadDate}
}

func (r RemoteRecord) DateTime(field string) (time.Time, error) {
	s := r.Text(field)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Date-only values show up in datetime columns after manual edits.
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FieldError{Field: field, Raw: r[field], Err: errBadDateTime}
}
