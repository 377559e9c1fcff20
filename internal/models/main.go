// Package models defines the core data structures for users and
// connection requests.
package models

import "time"

// User represents a member profile as returned by the backend.
// The client treats everything except ID as an opaque payload:
// it renders these fields but never interprets them.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// FirstName is the user's given name.
	FirstName string `json:"firstName"`
	// LastName is the user's family name.
	LastName string `json:"lastName"`
	// Username is the unique handle chosen by the user.
	Username string `json:"username"`
	// Email is the user's contact address.
	Email string `json:"email,omitempty"`
	// ProfilePhoto is a URL to the user's photo.
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	// Bio holds the free-form self description.
	Bio string `json:"bio,omitempty"`
	// Age in years.
	Age int `json:"age,omitempty"`
	// Gender as entered by the user.
	Gender string `json:"gender,omitempty"`
	// Skills lists self-reported skills.
	Skills []string `json:"skills,omitempty"`
	// Location is the user's city or region.
	Location string `json:"location,omitempty"`
	// CurrentPosition is the user's job title.
	CurrentPosition string `json:"currentPosition,omitempty"`
	// CurrentOrganisation is the user's employer.
	CurrentOrganisation string `json:"currentOrganisation,omitempty"`
	// GithubURL, LinkedinURL and PortfolioURL are external profile links.
	GithubURL    string `json:"githubUrl,omitempty"`
	LinkedinURL  string `json:"linkedinUrl,omitempty"`
	PortfolioURL string `json:"portfolioUrl,omitempty"`
}

// ProfileUpdate carries a partial profile edit for PATCH /users/profile.
// Zero-valued fields are omitted from the payload so the server only
// touches what the user actually changed.
type ProfileUpdate struct {
	FirstName           string   `json:"firstName,omitempty"`
	LastName            string   `json:"lastName,omitempty"`
	Bio                 string   `json:"bio,omitempty"`
	Age                 int      `json:"age,omitempty"`
	Gender              string   `json:"gender,omitempty"`
	Skills              []string `json:"skills,omitempty"`
	Location            string   `json:"location,omitempty"`
	CurrentPosition     string   `json:"currentPosition,omitempty"`
	CurrentOrganisation string   `json:"currentOrganisation,omitempty"`
	GithubURL           string   `json:"githubUrl,omitempty"`
	LinkedinURL         string   `json:"linkedinUrl,omitempty"`
	PortfolioURL        string   `json:"portfolioUrl,omitempty"`
	ProfilePhoto        string   `json:"profilePhoto,omitempty"`
}

// ConnectionStatus is the lifecycle state of a connection request.
// The server holds the authoritative status; the client derives it
// from which projection an entry was fetched into.
type ConnectionStatus string

const (
	// StatusPending means the request awaits a response from the recipient.
	StatusPending ConnectionStatus = "pending"
	// StatusAccepted means both sides are connected.
	StatusAccepted ConnectionStatus = "accepted"
	// StatusRejected means the recipient declined the request.
	StatusRejected ConnectionStatus = "rejected"
	// StatusCancelled means the sender withdrew the request.
	StatusCancelled ConnectionStatus = "cancelled"
	// StatusBlocked means the issuing user blocked the counterpart.
	StatusBlocked ConnectionStatus = "blocked"
)

// ConnectionRequest is a directed relationship record between two users.
type ConnectionRequest struct {
	// ID is the unique identifier of the request.
	ID string `json:"id"`
	// FromUser is the user who initiated the request.
	FromUser User `json:"fromUser"`
	// ToUser is the user the request is directed at.
	ToUser User `json:"toUser"`
	// Status is the lifecycle state of the request.
	Status ConnectionStatus `json:"status"`
	// CreatedAt is when the request was created.
	CreatedAt time.Time `json:"createdAt"`
}

// Counterpart returns the user on the other side of the request
// relative to selfID. Falls back to FromUser when selfID matches
// neither side.
func (c ConnectionRequest) Counterpart(selfID string) User {
	if c.FromUser.ID == selfID {
		return c.ToUser
	}
	return c.FromUser
}
