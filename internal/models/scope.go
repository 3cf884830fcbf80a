package models

// Scope identifies a team or the personal account whose events are
// independently cached and paginated.
type Scope struct {
	// ID is the opaque unique identifier. Pagination state is carried
	// over by ID when the scope list is replaced.
	ID string `json:"id"`

	// Name is the human-friendly scope name.
	Name string `json:"name"`

	// IsTeam determines query parameterization: team scopes carry a
	// team identifier on fetch, the personal scope omits it.
	IsTeam bool `json:"is_team"`
}
