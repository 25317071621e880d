package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jstittsworth/ausmash-go/resource"
)

// Match is a full competitive set; a grand-finals bracket reset in
// double elimination is two matches.
type Match struct {
	ID          int64          `json:"ID"`
	RoundName   string         `json:"MatchName"`
	WinnerName  string         `json:"WinnerName"`
	LoserName   string         `json:"LoserName"`
	Winner      *PlayerRef     `json:"Winner"`
	Loser       *PlayerRef     `json:"Loser"`
	Tourney     TournamentRef  `json:"Tourney"`
	Event       EventRef       `json:"Event"`
	Pool        *int           `json:"Pool"`
	GameWins    *int           `json:"ScoreWins"`
	GameLosses  *int           `json:"ScoreLosses"`
	EloMovement *int           `json:"EloMovement"`
	WinnerChars []CharacterRef `json:"WinnerCharacters"`
	LoserChars  []CharacterRef `json:"LoserCharacters"`
}

// MatchesAtEvent returns every match in an event, ordered from last
// rounds to starting rounds. When grand finals were bracket reset the
// listing carries two GF rounds; the later one is renamed GF2 so round
// identifiers stay unique.
func MatchesAtEvent(ctx context.Context, api resource.Caller, eventID int64) ([]*Match, error) {
	body, err := api.Call(ctx, fmt.Sprintf("events/%d/matches", eventID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches for event %d: %w", eventID, err)
	}
	var matches []*Match
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches for event %d: %w", eventID, err)
	}
	if len(matches) > 1 && matches[0].RoundName == "GF" && matches[1].RoundName == "GF" {
		matches[0].RoundName = "GF2"
	}
	return matches, nil
}

// MatchesForPlayer returns every singles match a player was in, newest
// to oldest, optionally within a date window.
func MatchesForPlayer(ctx context.Context, api resource.Caller, playerID int64, startDate, endDate time.Time) ([]*Match, error) {
	params := map[string]any{}
	if !startDate.IsZero() {
		params["startDate"] = startDate
	}
	if !endDate.IsZero() {
		params["endDate"] = endDate
	}
	body, err := api.Call(ctx, fmt.Sprintf("players/%d/matches", playerID), params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches for player %d: %w", playerID, err)
	}
	var matches []*Match
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches for player %d: %w", playerID, err)
	}
	return matches, nil
}

// RoundNumber parses the numeric part of the round name (W1, L3), or
// false where a number does not apply, as in round robin.
func (m *Match) RoundNumber(style BracketStyle) (int, bool) {
	if style == BracketRoundRobin || len(m.RoundName) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m.RoundName[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// RoundBracketSide names the side of bracket this match was in; only
// applicable for double elimination.
func (m *Match) RoundBracketSide(style BracketStyle) (string, bool) {
	if style != BracketDoubleElimination || m.RoundName == "" {
		return "", false
	}
	switch m.RoundName[0] {
	case 'W':
		return "Winners", true
	case 'L':
		return "Losers", true
	case 'G':
		return "Grands", true
	}
	return "", false
}

// RoundFullName is a readable round name: Grand Finals, Winners
// Semifinals, Swiss Pool 2 Round 3. roundsInSide is the round count on
// this match's side of the bracket, as counted by RoundsInEventSide;
// it only matters outside grand finals.
func (m *Match) RoundFullName(style BracketStyle, roundsInSide int) string {
	switch style {
	case BracketRoundRobin:
		return fmt.Sprintf("RR Pool %s", poolLabel(m.Pool))
	case BracketSwiss:
		n, _ := m.RoundNumber(style)
		return fmt.Sprintf("Swiss Pool %s Round %d", poolLabel(m.Pool), n)
	}

	switch m.RoundName {
	case "GF":
		return "Grand Finals"
	case "GF2":
		return "Grand Finals Bracket Reset"
	}

	n, ok := m.RoundNumber(style)
	if !ok {
		return m.RoundName
	}
	var name string
	switch {
	case n == roundsInSide:
		name = "Finals"
	case n == roundsInSide-1:
		name = "Semifinals"
	case roundsInSide > 4 && n == roundsInSide-2:
		name = "Quarterfinals"
	default:
		name = fmt.Sprintf("Round %d", n)
	}
	if side, ok := m.RoundBracketSide(style); ok {
		return side + " " + name
	}
	return name
}

// RoundsInEventSide counts how many rounds an event's bracket side has,
// for use with RoundFullName. Side is a RoundBracketSide value, or
// empty outside double elimination.
func RoundsInEventSide(ctx context.Context, api resource.Caller, event *Event, side string) (int, error) {
	matches, err := MatchesAtEvent(ctx, api, event.ID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range matches {
		matchSide, _ := m.RoundBracketSide(event.BracketStyle)
		if matchSide == side {
			count++
		}
	}
	return count, nil
}

// GameCount is the total games in the set, or false if the game score
// was not recorded.
func (m *Match) GameCount() (int, bool) {
	if m.GameWins == nil || m.GameLosses == nil {
		return 0, false
	}
	return *m.GameWins + *m.GameLosses, true
}

// UpsetFactor computes how much of an upset this win was from seeds
// keyed by entrant name, as returned by the start.gg client. Negative
// when the favourite won; false when either player has no seed.
func (m *Match) UpsetFactor(seeds map[string]int) (int, bool) {
	winnerSeed, ok := seeds[m.WinnerName]
	if !ok {
		return 0, false
	}
	loserSeed, ok := seeds[m.LoserName]
	if !ok {
		return 0, false
	}
	return UpsetFactor(winnerSeed, loserSeed), true
}

func (m *Match) String() string {
	return fmt.Sprintf("%s %s - %s vs %s", m.Event.Name, m.RoundName, m.WinnerName, m.LoserName)
}

func poolLabel(pool *int) string {
	if pool == nil {
		return "?"
	}
	return strconv.Itoa(*pool)
}
