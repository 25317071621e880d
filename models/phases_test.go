package models

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventJSON(id int, name, eventType, bracketStyle, gameShort string) map[string]any {
	return map[string]any{
		"ID":           id,
		"Name":         name,
		"EventType":    eventType,
		"BracketStyle": bracketStyle,
		"Game":         map[string]any{"ID": 2, "Short": gameShort},
	}
}

// phaseTournament builds a tournament shaped like a typical major: two
// singles progressions for different games, a doubles bracket and a
// redemption bracket, with entrant names flowing through the phases.
func phaseTournament(t *testing.T) (*Tournament, *fakeCaller, map[string]*Event) {
	t.Helper()

	events := []map[string]any{
		eventJSON(1, "Super Smash Bros. Ultimate Singles Pools", "Singles", "Round robin", "SSBU"),
		eventJSON(2, "Super Smash Bros. Ultimate Singles Top 48", "Singles", "Double elimination", "SSBU"),
		eventJSON(3, "Super Smash Bros. Ultimate Singles Top 8", "Singles", "Double elimination", "SSBU"),
		eventJSON(4, "Super Smash Bros. Melee Singles Pools", "Singles", "Round robin", "SSBM"),
		eventJSON(5, "Super Smash Bros. Melee Singles Top 24", "Singles", "Double elimination", "SSBM"),
		eventJSON(6, "Super Smash Bros. Ultimate Doubles Bracket", "Teams", "Double elimination", "SSBU"),
		eventJSON(7, "Smash Ultimate Singles Redemption Bracket", "Singles", "Double elimination", "SSBU"),
	}
	for i := range events {
		if events[i]["Game"].(map[string]any)["Short"] == "SSBM" {
			events[i]["Game"] = map[string]any{"ID": 1, "Short": "SSBM"}
		}
	}

	ultNames := playerNames("ult", 90)
	meleeNames := playerNames("melee", 40)

	api := newFakeCaller(map[string]string{
		"events/1/results": resultsJSON(ultNames...),
		"events/2/results": resultsJSON(ultNames[:48]...),
		"events/3/results": resultsJSON(ultNames[:8]...),
		"events/4/results": resultsJSON(meleeNames...),
		"events/5/results": resultsJSON(meleeNames[:24]...),
		"events/6/results": resultsJSON("teamA", "teamB"),
		"events/7/results": resultsJSON(ultNames[48:64]...),
	})

	rawEvents, err := json.Marshal(events)
	require.NoError(t, err)
	tournament := TournamentFromFields(api, map[string]json.RawMessage{
		"ID":     json.RawMessage(`99`),
		"Name":   json.RawMessage(`"The Big Cheese #4"`),
		"Events": rawEvents,
	})

	all, err := tournament.Events(context.Background())
	require.NoError(t, err)
	byName := make(map[string]*Event, len(all))
	for _, e := range all {
		byName[e.Name] = e
	}
	return tournament, api, byName
}

func TestPreviousPhaseWithMultiplePhases(t *testing.T) {
	tournament, _, events := phaseTournament(t)
	ctx := context.Background()

	pools := events["Super Smash Bros. Ultimate Singles Pools"]
	top48 := events["Super Smash Bros. Ultimate Singles Top 48"]
	top8 := events["Super Smash Bros. Ultimate Singles Top 8"]

	prev, err := tournament.PreviousPhase(ctx, pools)
	require.NoError(t, err)
	assert.Nil(t, prev, "pools should not have a previous phase")

	prev, err = tournament.PreviousPhase(ctx, top48)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, pools.ID, prev.ID, "previous phase of top 48 should be pools")

	prev, err = tournament.PreviousPhase(ctx, top8)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, top48.ID, prev.ID, "previous phase of top 8 should be top 48")
}

func TestPreviousPhaseKeepsGamesSeparate(t *testing.T) {
	tournament, _, events := phaseTournament(t)
	ctx := context.Background()

	meleePools := events["Super Smash Bros. Melee Singles Pools"]
	meleeTop24 := events["Super Smash Bros. Melee Singles Top 24"]

	prev, err := tournament.PreviousPhase(ctx, meleePools)
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = tournament.PreviousPhase(ctx, meleeTop24)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, meleePools.ID, prev.ID)
}

func TestNextPhases(t *testing.T) {
	tournament, _, events := phaseTournament(t)
	ctx := context.Background()

	pools := events["Super Smash Bros. Ultimate Singles Pools"]
	top48 := events["Super Smash Bros. Ultimate Singles Top 48"]
	top8 := events["Super Smash Bros. Ultimate Singles Top 8"]

	next, err := tournament.NextPhase(ctx, pools)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, top48.ID, next.ID, "next phase of pools should be top 48")

	next, err = tournament.NextPhase(ctx, top48)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, top8.ID, next.ID, "next phase of top 48 should be top 8")

	next, err = tournament.NextPhase(ctx, top8)
	require.NoError(t, err)
	assert.Nil(t, next, "top 8 should not have a next phase")
}

func TestDoublesAndRedemptionAreIsolated(t *testing.T) {
	tournament, _, events := phaseTournament(t)
	ctx := context.Background()

	for _, name := range []string{
		"Super Smash Bros. Ultimate Doubles Bracket",
		"Smash Ultimate Singles Redemption Bracket",
	} {
		event := events[name]

		prev, err := tournament.PreviousPhase(ctx, event)
		require.NoError(t, err)
		assert.Nil(t, prev, "%s should have no previous phase", name)

		next, err := tournament.NextPhase(ctx, event)
		require.NoError(t, err)
		assert.Nil(t, next, "%s should have no next phase", name)

		start, err := tournament.StartPhase(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, event.ID, start.ID, "%s start phase should be itself", name)
	}
}

func TestStartAndFinalPhaseReachFixedPoints(t *testing.T) {
	tournament, _, events := phaseTournament(t)
	ctx := context.Background()

	pools := events["Super Smash Bros. Ultimate Singles Pools"]
	top48 := events["Super Smash Bros. Ultimate Singles Top 48"]
	top8 := events["Super Smash Bros. Ultimate Singles Top 8"]

	for _, event := range []*Event{pools, top48, top8} {
		start, err := tournament.StartPhase(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, pools.ID, start.ID, "%s start phase should be pools", event.Name)

		final, err := tournament.FinalPhase(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, top8.ID, final.ID, "%s final phase should be top 8", event.Name)
	}
}

func TestPhaseLookupsAreMemoized(t *testing.T) {
	tournament, api, events := phaseTournament(t)
	ctx := context.Background()

	top8 := events["Super Smash Bros. Ultimate Singles Top 8"]
	for i := 0; i < 3; i++ {
		_, err := tournament.StartPhase(ctx, top8)
		require.NoError(t, err)
		_, err = tournament.FinalPhase(ctx, top8)
		require.NoError(t, err)
	}

	// Every event's result listing is fetched at most once per
	// Tournament value, however many neighbour queries run.
	for _, path := range []string{"events/1/results", "events/2/results", "events/3/results"} {
		assert.LessOrEqual(t, api.callCount(path), 1, path)
	}
}

func TestZeroResultEventHasNoNeighbours(t *testing.T) {
	events := []map[string]any{
		eventJSON(1, "Ultimate Singles Pools", "Singles", "Round robin", "SSBU"),
		eventJSON(2, "Ultimate Singles Top 8", "Singles", "Double elimination", "SSBU"),
	}
	api := newFakeCaller(map[string]string{
		"events/1/results": resultsJSON(),
		"events/2/results": resultsJSON("a", "b"),
	})
	rawEvents, err := json.Marshal(events)
	require.NoError(t, err)
	tournament := TournamentFromFields(api, map[string]json.RawMessage{
		"ID":     json.RawMessage(`1`),
		"Events": rawEvents,
	})

	ctx := context.Background()
	all, err := tournament.Events(ctx)
	require.NoError(t, err)

	next, err := tournament.NextPhase(ctx, all[0])
	require.NoError(t, err)
	assert.Nil(t, next)

	prev, err := tournament.PreviousPhase(ctx, all[1])
	require.NoError(t, err)
	assert.Nil(t, prev, "a zero-result candidate cannot qualify as a predecessor")
}

func TestEventsRejectUnknownTags(t *testing.T) {
	events := []map[string]any{
		eventJSON(1, "Crew Battle", "Crews", "Double elimination", "SSBU"),
	}
	rawEvents, err := json.Marshal(events)
	require.NoError(t, err)
	tournament := TournamentFromFields(newFakeCaller(nil), map[string]json.RawMessage{
		"ID":     json.RawMessage(`1`),
		"Events": rawEvents,
	})

	_, err = tournament.Events(context.Background())
	assert.ErrorContains(t, err, "unknown event type")
}
