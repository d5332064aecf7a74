package scrape_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

func TestRecordAccepted(t *testing.T) {
	tests := []struct {
		name   string
		fields map[scrape.Field]string
		want   bool
	}{
		{"price and location", map[scrape.Field]string{scrape.FieldPrice: "1", scrape.FieldLocation: "Bogotá"}, true},
		{"price and headline", map[scrape.Field]string{scrape.FieldPrice: "1", scrape.FieldHeadline: "Casa"}, true},
		{"bare price", map[scrape.Field]string{scrape.FieldPrice: "1", scrape.FieldBedrooms: "3"}, false},
		{"no price", map[scrape.Field]string{scrape.FieldLocation: "Bogotá", scrape.FieldHeadline: "Casa"}, false},
		{"empty location does not count", map[scrape.Field]string{scrape.FieldPrice: "1", scrape.FieldLocation: ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrape.NewRecord(tt.fields).Accepted())
		})
	}
}

func TestRecordIsImmutable(t *testing.T) {
	src := map[scrape.Field]string{scrape.FieldPrice: "COP 1", scrape.FieldLocation: "Chicó"}
	rec := scrape.NewRecord(src)

	src[scrape.FieldPrice] = "changed"
	out := rec.Fields()
	out[scrape.FieldLocation] = "changed"

	price, _ := rec.Get(scrape.FieldPrice)
	location, _ := rec.Get(scrape.FieldLocation)
	assert.Equal(t, "COP 1", price)
	assert.Equal(t, "Chicó", location)
}

func TestRecordJSONKeys(t *testing.T) {
	full := scrape.NewRecord(map[scrape.Field]string{
		scrape.FieldLocation:  "Chicó, Bogotá",
		scrape.FieldHeadline:  "Apartamento",
		scrape.FieldPrice:     "COP 1.250.000.000",
		scrape.FieldBedrooms:  "3",
		scrape.FieldBathrooms: "4",
		scrape.FieldURL:       "https://example.test/1",
	})

	data, err := json.Marshal(full)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"location", "headline", "price", "bedrooms", "bathrooms", "url"}, keys)
	assert.Equal(t, []string{"bathrooms", "bedrooms", "headline", "location", "price", "url"}, full.Keys())
}

func TestRecordJSONOmitsAbsentFields(t *testing.T) {
	rec := scrape.NewRecord(map[scrape.Field]string{scrape.FieldPrice: "COP 1", scrape.FieldHeadline: ""})
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"COP 1"}`, string(data))

	var back scrape.PropertyRecord
	require.NoError(t, json.Unmarshal([]byte(`{"price":"COP 2","location":""}`), &back))
	assert.Equal(t, []string{"price"}, back.Keys())
	assert.False(t, back.Has(scrape.FieldLocation))
}
