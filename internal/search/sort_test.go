package search

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"premium-homes/internal/models"
)

func TestSort_NewestByDescendingID(t *testing.T) {
	t.Parallel()

	in := []models.Property{{ID: 1, Price: 450}, {ID: 2, Price: 165000}}
	require.Equal(t, []int{2, 1}, ids(Sort(in, SortNewest)))
}

func TestSort_UnknownStrategyFallsBackToNewest(t *testing.T) {
	t.Parallel()

	in := sampleListings()
	require.Equal(t, ids(Sort(in, SortNewest)), ids(Sort(in, "whatever")))
	require.Equal(t, ids(Sort(in, SortNewest)), ids(Sort(in, "")))
}

func TestSort_Price(t *testing.T) {
	t.Parallel()

	in := sampleListings()
	require.Equal(t, []int{2, 3, 1, 4}, ids(Sort(in, SortPriceLow)))
	require.Equal(t, []int{4, 1, 3, 2}, ids(Sort(in, SortPriceHigh)))
}

func TestSort_LowThenHighReversesDistinctPrices(t *testing.T) {
	t.Parallel()

	low := Sort(sampleListings(), SortPriceLow)
	high := Sort(low, SortPriceHigh)

	want := ids(low)
	slices.Reverse(want)
	require.Equal(t, want, ids(high))
}

func TestSort_StableForEqualKeys(t *testing.T) {
	t.Parallel()

	in := []models.Property{{ID: 5, Price: 10}, {ID: 3, Price: 10}, {ID: 9, Price: 10}}
	require.Equal(t, []int{5, 3, 9}, ids(Sort(in, SortPriceLow)))
	require.Equal(t, []int{5, 3, 9}, ids(Sort(in, SortPriceHigh)))
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := sampleListings()
	before := ids(in)
	out := Sort(in, SortPriceHigh)

	require.Equal(t, before, ids(in))
	require.NotSame(t, &in[0], &out[0])
}

func TestSort_EmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Sort(nil, SortNewest))
	require.NotNil(t, Sort(nil, SortNewest))
}

func TestView(t *testing.T) {
	t.Parallel()

	c := DefaultCriteria()
	c.TransactionType = "rent"
	c.SortBy = SortPriceHigh
	require.Equal(t, []int{3, 2}, ids(View(sampleListings(), c)))
}

func TestSelectors(t *testing.T) {
	t.Parallel()

	in := sampleListings()
	require.Equal(t, []int{1, 2}, ids(Featured(in)))
	require.Equal(t, []int{4}, ids(ByPropertyType(in, "villa")))
	require.Len(t, ByPropertyType(in, All), 4)
	require.Equal(t, []int{2, 3}, ids(ByTransactionType(in, "rent")))
	require.Equal(t, []string{"Durrës", "Tirana", "Vlorë"}, Cities(in))
}
