package models

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// EventType is the closed set of values for an event's type tag
type EventType string

const (
	EventTypeSingles EventType = "Singles"
	EventTypeTeams   EventType = "Teams"
)

// Valid reports whether the tag is one this library knows how to handle
func (t EventType) Valid() bool {
	switch t {
	case EventTypeSingles, EventTypeTeams:
		return true
	}
	return false
}

// BracketStyle is the closed set of values for an event's bracket tag
type BracketStyle string

const (
	BracketRoundRobin        BracketStyle = "Round robin"
	BracketSwiss             BracketStyle = "Swiss"
	BracketSingleElimination BracketStyle = "Single elimination"
	BracketDoubleElimination BracketStyle = "Double elimination"
)

// Valid reports whether the tag is one this library knows how to handle
func (b BracketStyle) Valid() bool {
	switch b {
	case BracketRoundRobin, BracketSwiss, BracketSingleElimination, BracketDoubleElimination:
		return true
	}
	return false
}

// GameRef is the game fragment embedded in events and results
type GameRef struct {
	ID    int64  `json:"ID"`
	Name  string `json:"Name"`
	Short string `json:"Short"`
}

// Same compares game references, preferring the short name since
// fragments constructed from just a short name carry no ID.
func (g GameRef) Same(other GameRef) bool {
	if g.Short != "" && other.Short != "" {
		return g.Short == other.Short
	}
	return g.ID != 0 && g.ID == other.ID
}

// Event is one bracket or stage at a tournament: a phase of the main
// progression (pools, top 48, top 8), or a side/redemption/doubles
// bracket. Only obtainable from a tournament's event list.
type Event struct {
	ID           int64        `json:"ID"`
	Name         string       `json:"Name"`
	EventType    EventType    `json:"EventType"`
	BracketStyle BracketStyle `json:"BracketStyle"`
	Game         GameRef      `json:"Game"`
	APILink      string       `json:"APILink"`
	SourceURL    *string      `json:"SourceUrl"`

	// Extra holds any response fields without a typed accessor
	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps everything else in Extra
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	if err := json.Unmarshal(data, (*plain)(e)); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, known := range []string{"ID", "Name", "EventType", "BracketStyle", "Game", "APILink", "SourceUrl"} {
		delete(all, known)
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}

// Based on the name because nothing else in the data indicates it
var redemptionBracketName = regexp.MustCompile(`(?i)\b(?:amateur|ammies|redemption|redemmies|ammys|no cigar)\b`)
var sideBracketName = regexp.MustCompile(`(?i)\b(?:mega smash|squad strike)\b`)

// IsRedemptionBracket detects amateur/redemption brackets by name
func (e *Event) IsRedemptionBracket() bool {
	return redemptionBracketName.MatchString(e.Name)
}

// IsSideBracket detects brackets that are presumably not the main event
func (e *Event) IsSideBracket() bool {
	return sideBracketName.MatchString(e.Name)
}

// partOfMainProgression reports whether the event participates in phase
// inference at all; doubles, redemption and side brackets are isolated.
func (e *Event) partOfMainProgression() bool {
	return e.EventType == EventTypeSingles && !e.IsRedemptionBracket() && !e.IsSideBracket()
}

// validateTags rejects events carrying tags outside the closed enums, so
// phase-graph construction fails loudly instead of silently misclassifying
func (e *Event) validateTags() error {
	if !e.EventType.Valid() {
		return fmt.Errorf("event %d has unknown event type %q", e.ID, e.EventType)
	}
	if !e.BracketStyle.Valid() {
		return fmt.Errorf("event %d has unknown bracket style %q", e.ID, e.BracketStyle)
	}
	return nil
}

func (e *Event) String() string {
	return e.Name
}
