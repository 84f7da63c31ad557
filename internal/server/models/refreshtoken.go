package models

import "time"

// RefreshToken is a server-side record of an issued refresh token. JTI is
// shared with the access token minted in the same pair.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	JTI       string
	Expires   time.Time
	CreatedAt time.Time
}
