// Package state holds the client-side listing collection and login session.
// State changes only through reducers; controllers issue API calls and turn
// their outcomes into actions.
package state

import (
	"slices"

	"premium-homes/internal/models"
)

// Status of the listing collection
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// PropertiesState is the canonical client copy of the listings.
type PropertiesState struct {
	Properties []models.Property
	Status     Status
	Loading    bool
	Error      string
	Selected   *models.Property

	// Generation is bumped by every FetchStarted. Fetch results carrying an
	// older generation are dropped.
	Generation uint64
}

// InitialPropertiesState is the empty, idle collection.
func InitialPropertiesState() PropertiesState {
	return PropertiesState{Properties: []models.Property{}, Status: StatusIdle}
}

// Action is a state transition request.
type Action interface {
	action()
}

type (
	FetchStarted   struct{}
	FetchSucceeded struct {
		Generation uint64
		Properties []models.Property
	}
	FetchFailed struct {
		Generation uint64
		Message    string
	}
	// PropertyAdded appends the listing, or replaces the one with the same id.
	PropertyAdded struct{ Property models.Property }
	// PropertyUpdated replaces the listing with the same id; unknown ids are ignored.
	PropertyUpdated  struct{ Property models.Property }
	PropertyDeleted  struct{ ID int }
	PropertySelected struct{ Property models.Property }
	SelectionCleared struct{}
)

func (FetchStarted) action()     {}
func (FetchSucceeded) action()   {}
func (FetchFailed) action()      {}
func (PropertyAdded) action()    {}
func (PropertyUpdated) action()  {}
func (PropertyDeleted) action()  {}
func (PropertySelected) action() {}
func (SelectionCleared) action() {}

// ReduceProperties returns the state that follows s after a. s is not modified.
func ReduceProperties(s PropertiesState, a Action) PropertiesState {
	switch a := a.(type) {
	case FetchStarted:
		s.Generation++
		s.Status = StatusLoading
		s.Loading = true
		s.Error = ""
	case FetchSucceeded:
		if a.Generation != s.Generation {
			return s
		}
		s.Properties = cloneAll(a.Properties)
		s.Status = StatusLoaded
		s.Loading = false
		s.Error = ""
	case FetchFailed:
		if a.Generation != s.Generation {
			return s
		}
		s.Status = StatusError
		s.Loading = false
		s.Error = a.Message
	case PropertyAdded:
		s.Properties = cloneAll(s.Properties)
		if i := indexOf(s.Properties, a.Property.ID); i >= 0 {
			s.Properties[i] = a.Property.Clone()
		} else {
			s.Properties = append(s.Properties, a.Property.Clone())
		}
	case PropertyUpdated:
		if i := indexOf(s.Properties, a.Property.ID); i >= 0 {
			s.Properties = cloneAll(s.Properties)
			s.Properties[i] = a.Property.Clone()
		}
	case PropertyDeleted:
		s.Properties = slices.DeleteFunc(cloneAll(s.Properties), func(p models.Property) bool {
			return p.ID == a.ID
		})
	case PropertySelected:
		p := a.Property.Clone()
		s.Selected = &p
	case SelectionCleared:
		s.Selected = nil
	}
	return s
}

func indexOf(properties []models.Property, id int) int {
	return slices.IndexFunc(properties, func(p models.Property) bool { return p.ID == id })
}

func cloneAll(properties []models.Property) []models.Property {
	out := make([]models.Property, len(properties))
	for i := range properties {
		out[i] = properties[i].Clone()
	}
	return out
}
