package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jstittsworth/ausmash-go/resource"
)

// PlayerRef is the player fragment embedded in results and matches;
// nil wherever the player is not in the database.
type PlayerRef struct {
	ID          int64  `json:"ID"`
	Name        string `json:"Name"`
	RegionShort string `json:"RegionShort"`
}

// TournamentRef is the tournament fragment embedded in results and matches
type TournamentRef struct {
	ID      int64  `json:"ID"`
	Name    string `json:"Name"`
	APILink string `json:"APILink"`
}

// EventRef is the event fragment embedded in results and matches
type EventRef struct {
	ID   int64  `json:"ID"`
	Name string `json:"Name"`
}

// CharacterRef is the character fragment attached to results and matches
type CharacterRef struct {
	ID        int64  `json:"ID"`
	Name      string `json:"Name"`
	IconURL   string `json:"IconUrl"`
	GameShort string `json:"GameShort"`
}

// Result is a player's placing at an event, returned from
// events/{id}/results or players/{id}/results.
type Result struct {
	PlayerName string         `json:"PlayerName"`
	Placing    int            `json:"Result"`
	Player     *PlayerRef     `json:"Player"`
	Tourney    TournamentRef  `json:"Tourney"`
	Event      EventRef       `json:"Event"`
	Pool       *int           `json:"Pool"`
	Characters []CharacterRef `json:"Characters"`

	// Entrants is injected by ResultsForEvent so RoundsCleared needs no
	// extra call; zero when the listing did not carry a count.
	Entrants int `json:"Entrants"`
}

// ResultsForEvent returns every result for an event, ordered from
// highest placing to lowest. The entrant count is the length of the
// listing itself, so it is filled in on each result.
func ResultsForEvent(ctx context.Context, api resource.Caller, eventID int64) ([]*Result, error) {
	body, err := api.Call(ctx, fmt.Sprintf("events/%d/results", eventID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results for event %d: %w", eventID, err)
	}
	var results []*Result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results for event %d: %w", eventID, err)
	}
	for _, r := range results {
		r.Entrants = len(results)
	}
	return results, nil
}

// ResultsForPlayer returns results for every event the player entered,
// newest to oldest, optionally within a date window (zero time means
// unbounded on that side).
func ResultsForPlayer(ctx context.Context, api resource.Caller, playerID int64, startDate, endDate time.Time) ([]*Result, error) {
	params := map[string]any{}
	if !startDate.IsZero() {
		params["startDate"] = startDate
	}
	if !endDate.IsZero() {
		params["endDate"] = endDate
	}
	body, err := api.Call(ctx, fmt.Sprintf("players/%d/results", playerID), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results for player %d: %w", playerID, err)
	}
	var results []*Result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results for player %d: %w", playerID, err)
	}
	return results, nil
}

// ResultsFeaturingCharacter returns results recorded as using this
// character, newest to oldest.
func ResultsFeaturingCharacter(ctx context.Context, api resource.Caller, characterID int64) ([]*Result, error) {
	body, err := api.Call(ctx, fmt.Sprintf("characters/%d/results", characterID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results for character %d: %w", characterID, err)
	}
	var results []*Result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results for character %d: %w", characterID, err)
	}
	return results, nil
}

// TotalEntrants is the number of entrants in the event this result came
// from. Falls back to counting the event's results when the listing this
// result came from did not inject a count.
func (r *Result) TotalEntrants(ctx context.Context, api resource.Caller) (int, error) {
	if r.Entrants > 0 {
		return r.Entrants, nil
	}
	results, err := ResultsForEvent(ctx, api, r.Event.ID)
	if err != nil {
		return 0, err
	}
	r.Entrants = len(results)
	return r.Entrants, nil
}

// RoundsCleared is how many elimination rounds this result cleared
// relative to the worst possible placing for the event size.
func (r *Result) RoundsCleared(ctx context.Context, api resource.Caller) (int, error) {
	entrants, err := r.TotalEntrants(ctx, api)
	if err != nil {
		return 0, err
	}
	return RoundsCleared(r.Placing, entrants), nil
}

// Better reports whether this result placed higher than the other.
// 1st place beats 2nd place.
func (r *Result) Better(other *Result) bool {
	return r.Placing < other.Placing
}

func (r *Result) String() string {
	return fmt.Sprintf("#%d - %s", r.Placing, r.PlayerName)
}
