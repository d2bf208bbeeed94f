package listing

import (
	"strings"
	"time"
)

// Category is the fixed listing taxonomy shared with the map frontend.
type Category string

const (
	CategoryEvents   Category = "Events"
	CategoryFood     Category = "Food"
	CategoryItems    Category = "Items"
	CategoryServices Category = "Services"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEvents, CategoryFood, CategoryItems, CategoryServices:
		return true
	}
	return false
}

// NormalizeCategory maps anything outside the enum (including empty) to Items.
func NormalizeCategory(c Category) Category {
	if c.Valid() {
		return c
	}
	return CategoryItems
}

// Candidate is a listing as produced by a scraper, before normalization.
// Title, AvailableFrom and the scraper's source tag form the natural key.
type Candidate struct {
	Title          string
	Description    string
	Category       Category
	Lat            *float64
	Lng            *float64
	AvailableFrom  time.Time
	AvailableUntil *time.Time
	URL            string
	TimeDetails    string
	Source         string
}

// Key returns the deduplication key (title, available_from, source), with the
// source normalized to the empty string when absent.
func (c Candidate) Key() Key {
	return Key{
		Title:         strings.TrimSpace(c.Title),
		AvailableFrom: c.AvailableFrom.UTC(),
		Source:        strings.TrimSpace(c.Source),
	}
}

type Key struct {
	Title         string
	AvailableFrom time.Time
	Source        string
}

// Listing is a persisted row. The contact/edit/interest/status columns belong
// to user submissions; ingestion never writes them.
type Listing struct {
	ID             int64
	Title          string
	Description    string
	Category       Category
	Lat            *float64
	Lng            *float64
	AvailableFrom  time.Time
	AvailableUntil *time.Time
	URL            string
	TimeDetails    string
	Source         string
	ContactInfo    string
	InterestCount  int
	Status         string
	LastVerified   time.Time
	CreatedAt      time.Time
}
