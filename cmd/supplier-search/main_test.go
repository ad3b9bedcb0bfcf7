package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/backend/internal/domain"
)

type stubSearcher struct {
	results []domain.ProductResult
	err     error

	query  string
	limit  int
	filter []string
}

func (s *stubSearcher) SearchSuppliers(ctx context.Context, query string, limit int, filter []string) ([]domain.ProductResult, error) {
	s.query, s.limit, s.filter = query, limit, filter
	return s.results, s.err
}

func stubBuild(s *stubSearcher, closed *bool) buildFunc {
	return func(ctx context.Context, verbose bool) (searcher, func(context.Context) error, error) {
		return s, func(context.Context) error {
			*closed = true
			return nil
		}, nil
	}
}

func execute(t *testing.T, build buildFunc, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(build)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func listing(name, store string, price float64, isReal bool) domain.ProductResult {
	source := domain.SourceStructuredAPI
	if !isReal {
		source = domain.SourceAIEstimatePrimary
	}
	return domain.ProductResult{
		ProductName:   name,
		Price:         domain.Float64Ptr(price),
		Currency:      "GBP",
		StoreName:     store,
		Source:        source,
		IsRealPrice:   isReal,
		LastCheckedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestRoot_PassesFlags(t *testing.T) {
	s := &stubSearcher{results: []domain.ProductResult{}}
	var closed bool

	out, err := execute(t, stubBuild(s, &closed), "no", "more", "nails", "--limit", "3", "--sources", "awin,scraper")
	require.NoError(t, err)

	assert.Equal(t, "no more nails", s.query)
	assert.Equal(t, 3, s.limit)
	assert.Equal(t, []string{"awin", "scraper"}, s.filter)
	assert.Contains(t, out, "no results")
	assert.True(t, closed)
}

func TestRoot_Table(t *testing.T) {
	s := &stubSearcher{results: []domain.ProductResult{
		listing("UniBond No More Nails", "Screwfix", 5.49, true),
		listing("Stixall", "Toolstation", 7.2, true),
	}}
	var closed bool

	out, err := execute(t, stubBuild(s, &closed), "glue")
	require.NoError(t, err)

	assert.Contains(t, out, "PRICE")
	assert.Contains(t, out, "GBP 5.49")
	assert.Contains(t, out, "Toolstation")
	assert.NotContains(t, out, "(est.)")
}

func TestRoot_TableMarksEstimates(t *testing.T) {
	s := &stubSearcher{results: []domain.ProductResult{listing("Sealant", "Wickes", 4, false)}}
	var closed bool

	out, err := execute(t, stubBuild(s, &closed), "sealant")
	require.NoError(t, err)

	assert.Contains(t, out, "GBP 4.00 (est.)")
	assert.Contains(t, out, "All prices are estimates")
}

func TestRoot_JSON(t *testing.T) {
	s := &stubSearcher{results: []domain.ProductResult{listing("Screws", "Screwfix", 2.99, true)}}
	var closed bool

	out, err := execute(t, stubBuild(s, &closed), "screws", "--json")
	require.NoError(t, err)

	var decoded []domain.ProductResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Screws", decoded[0].ProductName)
}

func TestRoot_Errors(t *testing.T) {
	t.Run("requires a query", func(t *testing.T) {
		var closed bool
		_, err := execute(t, stubBuild(&stubSearcher{}, &closed))
		assert.Error(t, err)
		assert.False(t, closed)
	})

	t.Run("search error", func(t *testing.T) {
		var closed bool
		_, err := execute(t, stubBuild(&stubSearcher{err: domain.ErrInvalidRequest}, &closed), "###")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.True(t, closed)
	})

	t.Run("build error", func(t *testing.T) {
		boom := errors.New("no config")
		build := func(ctx context.Context, verbose bool) (searcher, func(context.Context) error, error) {
			return nil, nil, boom
		}
		_, err := execute(t, build, "glue")
		assert.ErrorIs(t, err, boom)
	})
}
