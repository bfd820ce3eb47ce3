package core

import (
	"slices"
	"time"
)

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Event struct {
	Id               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	DateTime         time.Time `json:"dateTime"`
	ImageUrl         string    `json:"imageUrl"`
	OrganizerId      string    `json:"organizerId"`
	Position         Position  `json:"position"`
	VolunteersNeeded int       `json:"volunteersNeeded"`
	VolunteersIds    []string  `json:"volunteersIds"`
}

// IsFull reports whether the event has as many volunteers as it asked for.
func (e *Event) IsFull() bool {
	return len(e.VolunteersIds) >= e.VolunteersNeeded
}

func (e *Event) HasVolunteer(userId string) bool {
	return slices.Contains(e.VolunteersIds, userId)
}

// WithVolunteer returns a copy of the event with userId appended.
func (e *Event) WithVolunteer(userId string) *Event {
	candidate := *e
	candidate.VolunteersIds = append(slices.Clone(e.VolunteersIds), userId)

	return &candidate
}

type UserName struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

type User struct {
	Id     string   `json:"id"`
	Name   UserName `json:"name"`
	Email  string   `json:"email,omitempty"`
	Mobile string   `json:"mobile,omitempty"`
}

// Session is what the remote login endpoint hands back.
type Session struct {
	AccessToken string `json:"accessToken,omitempty"`
	User        User   `json:"user"`
}

// EventDraft is the user-entered part of a new event.
type EventDraft struct {
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	DateTime         time.Time `json:"dateTime"`
	ImageUrl         string    `json:"imageUrl,omitempty"`
	Position         Position  `json:"position"`
	VolunteersNeeded int       `json:"volunteersNeeded"`
}

type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// QueryInfo describes the last time the events listing was refreshed.
type QueryInfo struct {
	LastFetched time.Time `json:"lastFetched"`
	Total       int       `json:"total"`
	Source      Source    `json:"source"`
}
