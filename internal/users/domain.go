package users

import "time"

// User represents a user account for management.
type User struct {
	ID         int64
	Username   string
	Email      string
	FirstName  string
	LastName   string
	IsActive   bool
	DateJoined time.Time
	LastLogin  time.Time
}

// reservedUsernames may not be taken at registration.
var reservedUsernames = map[string]struct{}{
	"admin": {},
	"user":  {},
	"test":  {},
	"root":  {},
}

// IsReservedUsername reports whether a username is reserved for system
// accounts.
func IsReservedUsername(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}

// CreateUserInput carries validated registration data.
type CreateUserInput struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
}

// UpdateUserInput carries profile updates. Nil fields are left unchanged.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}
