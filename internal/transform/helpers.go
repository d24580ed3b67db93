// Package transform converts raw Nexudus payloads into typed entities.
// All functions are pure: no I/O, no clock, no store access. Callers
// decide what to do with errors and skips.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrMissingSourceID marks a payload without the stable Nexudus Id.
	// Such records cannot be merged and count as record failures.
	ErrMissingSourceID = errors.New("record has no source id")

	// ErrMissingItemType marks a product payload without ItemType, the
	// required classification discriminant.
	ErrMissingItemType = errors.New("product record has no item type")

	// ErrExcluded marks records that are intentionally not promoted to
	// the typed tables. Callers count these as skips, not failures.
	ErrExcluded = errors.New("record excluded from typed tables")
)

// Root business account and demo location. They exist in Nexudus but
// are not real physical sites.
var excludedLocationIDs = map[int64]bool{
	1376491116: true,
	1376491117: true,
}

type record map[string]any

func decode(payload string) (record, error) {
	var r record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return r, nil
}

// sourceID returns the required stable id or ErrMissingSourceID.
func (r record) sourceID() (int64, error) {
	id := r.int64At("Id")
	if id == nil || *id == 0 {
		return 0, ErrMissingSourceID
	}
	return *id, nil
}

func (r record) strAt(key string) *string {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (r record) int64At(key string) *int64 {
	f, ok := r[key].(float64)
	if !ok {
		return nil
	}
	i := int64(f)
	return &i
}

func (r record) intAt(key string) *int {
	f, ok := r[key].(float64)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func (r record) floatAt(key string) *float64 {
	f, ok := r[key].(float64)
	if !ok {
		return nil
	}
	return &f
}

func (r record) boolAt(key string) *bool {
	b, ok := r[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

// boolOr treats a missing or non-boolean value as false.
func (r record) boolOr(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// timeAt parses Nexudus ISO-8601 timestamps leniently: a value that
// does not parse becomes nil rather than a record failure.
func (r record) timeAt(key string) *time.Time {
	s := r.strAt(key)
	if s == nil {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", *s); err == nil {
		return &t
	}
	return nil
}

// htmlAt strips markup from a free-text field and collapses whitespace.
func (r record) htmlAt(key string) *string {
	s := r.strAt(key)
	if s == nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(*s))
	if err != nil {
		return s
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return nil
	}
	return &text
}
