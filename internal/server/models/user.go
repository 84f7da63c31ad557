// Package models defines server-side data models persisted in the database
// and the documents served from the search index.
package models

import (
	"strings"
	"time"
)

// Continent is the partition key of the users table.
type Continent string

const (
	Africa       Continent = "Africa"
	Asia         Continent = "Asia"
	Europe       Continent = "Europe"
	NorthAmerica Continent = "North America"
	Oceania      Continent = "Oceania"
	SouthAmerica Continent = "South America"
	Antarctica   Continent = "Antarctica"
)

// DefaultContinent is used when registration does not name one.
const DefaultContinent = Europe

// Continents lists every partition in declaration order.
var Continents = []Continent{Africa, Asia, Europe, NorthAmerica, Oceania, SouthAmerica, Antarctica}

// Valid reports whether c is one of the known continents.
func (c Continent) Valid() bool {
	for _, v := range Continents {
		if v == c {
			return true
		}
	}
	return false
}

// PartitionTable returns the name of the users partition holding rows for c,
// e.g. "users_northamerica".
func (c Continent) PartitionTable() string {
	return "users_" + strings.ToLower(strings.ReplaceAll(string(c), " ", ""))
}

// User is an account. The pair (ID, Continent) is the primary key.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsSuperuser  bool
	Continent    Continent
	CreatedAt    time.Time

	// ExternalID and ExternalEmail are set for accounts created through a
	// third-party login.
	ExternalID    *string
	ExternalEmail *string

	Roles []Role
}

// RoleNames returns the names of the user's roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// LoginEvent is one successful sign-in, kept append-only.
type LoginEvent struct {
	ID         string
	UserID     string
	SigninData string
	LoginAt    time.Time
}
