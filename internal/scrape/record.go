package scrape

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Field names a property record attribute. The values double as the keys
// of the serialized record.
type Field string

const (
	FieldLocation  Field = "location"
	FieldHeadline  Field = "headline"
	FieldPrice     Field = "price"
	FieldBedrooms  Field = "bedrooms"
	FieldBathrooms Field = "bathrooms"
	FieldURL       Field = "url"
)

// AllFields lists the record fields in display order.
var AllFields = []Field{FieldLocation, FieldHeadline, FieldPrice, FieldBedrooms, FieldBathrooms, FieldURL}

// PropertyRecord is one listing as shown on a result card. Absent fields
// are omitted, never empty. Records are immutable once built.
type PropertyRecord struct {
	fields map[Field]string
}

// NewRecord builds a record from the given fields, dropping empty values.
func NewRecord(fields map[Field]string) PropertyRecord {
	r := PropertyRecord{fields: make(map[Field]string, len(fields))}
	for k, v := range fields {
		if v != "" {
			r.fields[k] = v
		}
	}
	return r
}

// Get returns a field's value and whether it is present.
func (r PropertyRecord) Get(f Field) (string, bool) {
	v, ok := r.fields[f]
	return v, ok
}

// Has reports whether the field is present.
func (r PropertyRecord) Has(f Field) bool {
	_, ok := r.fields[f]
	return ok
}

// Fields returns a copy of the present fields.
func (r PropertyRecord) Fields() map[Field]string {
	out := make(map[Field]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Keys returns the present field names, sorted.
func (r PropertyRecord) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Accepted reports whether the record is worth returning: it has a price
// and at least one of location or headline.
func (r PropertyRecord) Accepted() bool {
	return r.Has(FieldPrice) && (r.Has(FieldLocation) || r.Has(FieldHeadline))
}

// MarshalJSON encodes the record as a flat object of its present fields.
func (r PropertyRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[string(k)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a flat object, keeping only non-empty values.
func (r *PropertyRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(map[Field]string, len(raw))
	for k, v := range raw {
		fields[Field(k)] = v
	}
	*r = NewRecord(fields)
	return nil
}
