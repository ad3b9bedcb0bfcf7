package awin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/backend/internal/domain"
)

func TestMapProducts(t *testing.T) {
	checkedAt := time.Now()

	t.Run("defaults missing fields", func(t *testing.T) {
		results, err := MapProducts([]byte(`{"products":[{"product_name":"Gorilla Grab Adhesive 290ml"}]}`), checkedAt)
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Nil(t, r.Price)
		assert.Nil(t, r.InStock)
		assert.Nil(t, r.SKU)
		assert.Equal(t, "Gorilla", *r.Brand, "brand inferred from name")
		assert.Equal(t, "GBP", r.Currency)
		assert.Equal(t, "Awin", r.StoreName)
		assert.Equal(t, "", r.ProductURL)
		assert.Nil(t, r.PricePerUnit)
	})

	t.Run("drops nameless items", func(t *testing.T) {
		results, err := MapProducts([]byte(`{"products":[{"search_price":"3.00"},{"product_name":"  "}]}`), checkedAt)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("string price with thousands separator", func(t *testing.T) {
		results, err := MapProducts([]byte(`[{"product_name":"Mitre Saw","search_price":"GBP 1,049.00"}]`), checkedAt)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1049.0, *results[0].Price)
	})

	t.Run("price per unit from size", func(t *testing.T) {
		results, err := MapProducts([]byte(`[{"product_name":"Trade Emulsion 10L","search_price":40}]`), checkedAt)
		require.NoError(t, err)
		require.NotNil(t, results[0].PricePerUnit)
		assert.Equal(t, 4.0, *results[0].PricePerUnit)
	})

	t.Run("unexpected object shape", func(t *testing.T) {
		results, err := MapProducts([]byte(`{"error":"none"}`), checkedAt)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := MapProducts([]byte(`{"products":[`), checkedAt)
		assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	})
}
