/*
Package user contains the core data structures related to user identity.

It defines the public representation of a platform participant (the User struct)
as exchanged over WebSocket messages and REST responses, plus the two roles
the platform knows about.
*/
package user

// Roles a participant can hold. The role is resolved once per connection at
// authentication time and never re-checked for the life of the connection.
const (
	// RoleClient identifies a person undergoing a career assessment.
	RoleClient = "client"

	// RoleConsultant identifies a consultant reviewing assessments.
	RoleConsultant = "consultant"
)

// IsValidRole reports whether role is one of the two platform roles.
func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleConsultant
}

// User represents the public identity of a platform participant.
// Field names mirror the wire format expected by the web client.
type User struct {

	// ID is the unique numeric identifier assigned by the user store.
	ID int64 `json:"id"`

	// Prenom is the participant's first name.
	Prenom string `json:"prenom"`

	// Nom is the participant's last name.
	Nom string `json:"nom"`

	// Email is the participant's login email.
	Email string `json:"email"`

	// Role is either RoleClient or RoleConsultant.
	Role string `json:"role"`
}
