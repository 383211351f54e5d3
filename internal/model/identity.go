package model

// UserID is the opaque identifier an auth provider assigns to an account
type UserID string

// Identity is the requester resolved from a session.
// A nil *Identity means the requester is anonymous.
type Identity struct {
	UserID      UserID
	Email       string
	DisplayName string
}

// Name returns the display name, falling back to the email address
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// Account extends Identity with local credential data.
// Only used by the local auth provider; the hosted provider keeps its own.
type Account struct {
	UserID       UserID
	Email        string // login email, lower-cased (immutable)
	DisplayName  string
	PasswordHash string // bcrypt hash
	CreatedAt    Timestamp
}

// Identity returns the public identity for the account
func (a *Account) Identity() *Identity {
	return &Identity{
		UserID:      a.UserID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
	}
}
