package domain

// TokenPair represents a pair of access and refresh tokens.
//
// The pair is the unit of persistence: both tokens are always written and
// cleared together, never one without the other.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both tokens are present.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}
