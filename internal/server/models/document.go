package models

import "time"

// PersonRef is a short reference to a person embedded in a film document.
type PersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Film struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Created     *time.Time  `json:"created,omitempty"`
	IMDBRating  float64     `json:"imdb_rating"`
	Genres      []string    `json:"genres"`
	Directors   []PersonRef `json:"directors"`
	Actors      []PersonRef `json:"actors"`
	Writers     []PersonRef `json:"writers"`
}

func (f Film) ItemID() string { return f.ID }

type Genre struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

func (g Genre) ItemID() string { return g.ID }

type Person struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	FilmIDs string `json:"film_ids"`
}

func (p Person) ItemID() string { return p.ID }
