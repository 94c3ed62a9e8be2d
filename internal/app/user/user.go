/*
Package user contains core data structures and logic related to user identity.

It defines the basic representation of a user within the server (the User
struct) and the Manager that resolves userNames to shared User instances.
*/
package user

// User represents the identity of one participant. Identity is the userName;
// two Users are the same user exactly when their names match. The profile
// fields are cached from the database on first lookup.
type User struct {

	// Name is the unique userName the client logged in with.
	Name string

	// Email is the cached contact address from the user's database row.
	Email string

	// Description is the cached free-form profile text.
	Description string
}

// Is reports whether two user references denote the same user.
func (u *User) Is(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Name == other.Name
}
