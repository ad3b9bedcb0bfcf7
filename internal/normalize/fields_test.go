package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestFirstString(t *testing.T) {
	item := gjson.Parse(`{"brand_name":"  ","manufacturer":"Evo-Stik","other":null}`)

	assert.Equal(t, "Evo-Stik", FirstString(item, "other", "brand_name", "manufacturer"))
	assert.Equal(t, "", FirstString(item, "missing"))
}

func TestPrice(t *testing.T) {
	item := gjson.Parse(`{"n":4.99,"s":"£1,050.50","loose":"GBP12.00 each","bad":"call us","nil":null}`)

	got := Price(item.Get("n"))
	require.NotNil(t, got)
	assert.Equal(t, 4.99, *got)

	got = Price(item.Get("s"))
	require.NotNil(t, got)
	assert.Equal(t, 1050.5, *got)

	got = Price(item.Get("loose"))
	require.NotNil(t, got)
	assert.Equal(t, 12.0, *got)

	assert.Nil(t, Price(item.Get("bad")))
	assert.Nil(t, Price(item.Get("nil")))
	assert.Nil(t, Price(item.Get("missing")))
}

func TestOptionalIntAndFloat(t *testing.T) {
	item := gjson.Parse(`{"reviews":"1,204","rating":4.6,"none":"n/a"}`)

	reviews := OptionalInt(item.Get("reviews"))
	require.NotNil(t, reviews)
	assert.Equal(t, 1204, *reviews)

	rating := OptionalFloat(item.Get("rating"))
	require.NotNil(t, rating)
	assert.Equal(t, 4.6, *rating)

	assert.Nil(t, OptionalFloat(item.Get("none")))
	assert.Nil(t, OptionalInt(item.Get("missing")))
}

func TestTristate(t *testing.T) {
	tests := []struct {
		json string
		want *bool
	}{
		{`{"v":true}`, boolPtr(true)},
		{`{"v":false}`, boolPtr(false)},
		{`{"v":1}`, boolPtr(true)},
		{`{"v":0}`, boolPtr(false)},
		{`{"v":"Yes"}`, boolPtr(true)},
		{`{"v":"out of stock"}`, boolPtr(false)},
		{`{"v":"maybe"}`, nil},
		{`{"v":null}`, nil},
		{`{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.json, func(t *testing.T) {
			assert.Equal(t, tt.want, Tristate(gjson.Get(tt.json, "v")))
		})
	}
}

func boolPtr(b bool) *bool { return &b }
