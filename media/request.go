// Package media describes what a resolution is looking for.
package media

import (
	"errors"
	"fmt"
	"strings"
)

// Type distinguishes movies from show episodes.
type Type string

const (
	Movie Type = "movie"
	Show  Type = "show"
)

// ParseType converts a media type name.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case Movie, Show:
		return t, nil
	default:
		return "", fmt.Errorf("unknown media type %q", name)
	}
}

// Numbered identifies a season or an episode.
type Numbered struct {
	Number int    `json:"number"`
	ID     string `json:"id,omitempty"`
}

// Request is an immutable description of the media to resolve.
type Request struct {
	Type        Type      `json:"type"`
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	ReleaseYear int       `json:"releaseYear,omitempty"`
	Season      *Numbered `json:"season,omitempty"`
	Episode     *Numbered `json:"episode,omitempty"`
}

// NewMovie builds a movie request.
func NewMovie(id string) Request {
	return Request{Type: Movie, ID: id}
}

// NewShow builds a request for a single show episode.
func NewShow(id string, season, episode int) Request {
	return Request{
		Type:    Show,
		ID:      id,
		Season:  &Numbered{Number: season},
		Episode: &Numbered{Number: episode},
	}
}

// Validate checks the request shape.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("media id is required")
	}

	switch r.Type {
	case Movie:
		if r.Season != nil || r.Episode != nil {
			return errors.New("movie requests cannot carry a season or episode")
		}
	case Show:
		if r.Season == nil || r.Season.Number <= 0 {
			return errors.New("show requests need a positive season number")
		}
		if r.Episode == nil || r.Episode.Number <= 0 {
			return errors.New("show requests need a positive episode number")
		}
	default:
		return fmt.Errorf("unknown media type %q", r.Type)
	}

	return nil
}

func (r Request) String() string {
	if r.Type == Show && r.Season != nil && r.Episode != nil {
		return fmt.Sprintf("show %s S%02dE%02d", r.ID, r.Season.Number, r.Episode.Number)
	}
	return fmt.Sprintf("%s %s", r.Type, r.ID)
}
