package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"premium-homes/internal/models"
)

func prop(id int, title string) models.Property {
	return models.Property{
		ID:              id,
		Title:           title,
		Location:        "Tirana, Albania",
		PropertyType:    models.PropertyTypeApartment,
		TransactionType: models.TransactionSale,
		Images:          models.StringList{"a.jpg"},
	}
}

func TestReduce_FetchLifecycle(t *testing.T) {
	t.Parallel()

	s := InitialPropertiesState()
	s = ReduceProperties(s, FetchStarted{})
	require.Equal(t, StatusLoading, s.Status)
	require.True(t, s.Loading)

	s = ReduceProperties(s, FetchSucceeded{Generation: s.Generation, Properties: []models.Property{prop(1, "a")}})
	require.Equal(t, StatusLoaded, s.Status)
	require.False(t, s.Loading)
	require.Len(t, s.Properties, 1)

	// the previous collection stays visible while loading and after a failure
	s = ReduceProperties(s, FetchStarted{})
	require.Len(t, s.Properties, 1)
	s = ReduceProperties(s, FetchFailed{Generation: s.Generation, Message: "boom"})
	require.Equal(t, StatusError, s.Status)
	require.Equal(t, "boom", s.Error)
	require.False(t, s.Loading)
	require.Len(t, s.Properties, 1)

	s = ReduceProperties(s, FetchStarted{})
	require.Empty(t, s.Error)
}

func TestReduce_StaleFetchDiscarded(t *testing.T) {
	t.Parallel()

	s := ReduceProperties(InitialPropertiesState(), FetchStarted{})
	first := s.Generation
	s = ReduceProperties(s, FetchStarted{})
	second := s.Generation

	s = ReduceProperties(s, FetchSucceeded{Generation: second, Properties: []models.Property{prop(2, "new")}})
	s = ReduceProperties(s, FetchSucceeded{Generation: first, Properties: []models.Property{prop(1, "old")}})
	s = ReduceProperties(s, FetchFailed{Generation: first, Message: "late"})

	require.Equal(t, StatusLoaded, s.Status)
	require.Empty(t, s.Error)
	require.Equal(t, "new", s.Properties[0].Title)
}

func TestReduce_AddUpdateDelete(t *testing.T) {
	t.Parallel()

	s := InitialPropertiesState()
	s = ReduceProperties(s, PropertyAdded{Property: prop(1, "one")})
	s = ReduceProperties(s, PropertyAdded{Property: prop(2, "two")})
	s = ReduceProperties(s, PropertyAdded{Property: prop(1, "one again")})
	require.Len(t, s.Properties, 2)
	require.Equal(t, "one again", s.Properties[0].Title)

	s = ReduceProperties(s, PropertyUpdated{Property: prop(2, "two v2")})
	s = ReduceProperties(s, PropertyUpdated{Property: prop(9, "ghost")})
	require.Len(t, s.Properties, 2)
	require.Equal(t, "two v2", s.Properties[1].Title)

	s = ReduceProperties(s, PropertyDeleted{ID: 1})
	require.Len(t, s.Properties, 1)
	require.Equal(t, 2, s.Properties[0].ID)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	before := ReduceProperties(InitialPropertiesState(), PropertyAdded{Property: prop(1, "one")})
	after := ReduceProperties(before, PropertyUpdated{Property: prop(1, "changed")})
	after = ReduceProperties(after, PropertyDeleted{ID: 1})

	require.Len(t, before.Properties, 1)
	require.Equal(t, "one", before.Properties[0].Title)
	require.Empty(t, after.Properties)
}

func TestReduce_Selection(t *testing.T) {
	t.Parallel()

	s := ReduceProperties(InitialPropertiesState(), PropertySelected{Property: prop(4, "four")})
	require.NotNil(t, s.Selected)
	require.Equal(t, 4, s.Selected.ID)
	s = ReduceProperties(s, SelectionCleared{})
	require.Nil(t, s.Selected)
}

func TestStore_SubscribeAndSnapshot(t *testing.T) {
	t.Parallel()

	st := NewStore()
	var seen []Status
	unsubscribe := st.Subscribe(func(s PropertiesState) { seen = append(seen, s.Status) })

	gen := st.Dispatch(FetchStarted{}).Generation
	st.Dispatch(FetchSucceeded{Generation: gen, Properties: []models.Property{prop(1, "one")}})
	unsubscribe()
	st.Dispatch(FetchStarted{})

	require.Equal(t, []Status{StatusLoading, StatusLoaded}, seen)

	snap := st.State()
	snap.Properties[0].Images[0] = "mutated.jpg"
	p, ok := st.Find(1)
	require.True(t, ok)
	require.Equal(t, "a.jpg", p.Images[0])
}
