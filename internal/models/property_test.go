package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"premium-homes/internal/errs"
)

func validProperty() Property {
	return Property{
		Title:           "Luxury Apartment in City Center",
		Location:        "Tirana, Albania",
		Price:           165000,
		Area:            88,
		Bedrooms:        2,
		PropertyType:    PropertyTypeApartment,
		TransactionType: TransactionSale,
	}
}

func TestProperty_City(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Tirana, Albania":  "Tirana",
		"  Vlorë , Albania": "Vlorë",
		"Durrës":           "Durrës",
		"":                 "",
	}
	for loc, want := range cases {
		p := Property{Location: loc}
		require.Equal(t, want, p.City(), "location %q", loc)
	}
}

func TestProperty_Validate(t *testing.T) {
	t.Parallel()

	p := validProperty()
	require.NoError(t, p.Validate())

	bad := []func(*Property){
		func(p *Property) { p.Title = "  " },
		func(p *Property) { p.Price = -1 },
		func(p *Property) { p.Area = -5 },
		func(p *Property) { p.Bedrooms = -1 },
		func(p *Property) { p.PropertyType = "castle" },
		func(p *Property) { p.TransactionType = "" },
	}
	for i, mutate := range bad {
		p := validProperty()
		mutate(&p)
		require.ErrorIs(t, p.Validate(), errs.ErrValidation, "case %d", i)
	}
}

func TestProperty_CloneDoesNotShareImages(t *testing.T) {
	t.Parallel()

	p := validProperty()
	p.Images = StringList{"a.jpg", "b.jpg"}
	c := p.Clone()
	c.Images[0] = "changed.jpg"
	require.Equal(t, "a.jpg", p.Images[0])
}

func TestStringList_JSONAndSQL(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Property{ID: 1})
	require.NoError(t, err)
	require.Contains(t, string(b), `"images":[]`)

	v, err := StringList{"x", "y"}.Value()
	require.NoError(t, err)
	require.Equal(t, `["x","y"]`, v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["x","y"]`)))
	require.Equal(t, StringList{"x", "y"}, l)

	require.NoError(t, l.Scan(nil))
	require.Empty(t, l)

	require.Error(t, l.Scan(42))
}

func TestAgent_Validate(t *testing.T) {
	t.Parallel()

	a := Agent{Name: "Elira", Email: "elira@example.com"}
	require.NoError(t, a.Validate())
	a.Email = ""
	require.ErrorIs(t, a.Validate(), errs.ErrValidation)
}
