package domain

// Identity represents the authenticated user derived from the access token's
// claims segment. It is transient: never persisted, always recomputed from the
// current access token on demand.
type Identity struct {
	SubjectID         string   `json:"sub"`
	Email             string   `json:"email"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Roles             []string `json:"roles"`
	DateOfBirth       string   `json:"dateOfBirth,omitempty"`
	ProfilePictureURL string   `json:"profilePictureUrl,omitempty"`
	Street            string   `json:"street,omitempty"`
	City              string   `json:"city,omitempty"`
	Country           string   `json:"country,omitempty"`
	PostalCode        string   `json:"postalCode,omitempty"`
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FullName returns the display name for the identity.
func (i *Identity) FullName() string {
	switch {
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	default:
		return i.FirstName + " " + i.LastName
	}
}
