package models

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentByIDResolvesLazily(t *testing.T) {
	api := newFakeCaller(map[string]string{
		"tourneys/123": `{
			"ID": 123,
			"Name": "The Big Cheese #4",
			"TourneyDate": "2023-03-18T00:00:00",
			"IsMajor": true,
			"Events": []
		}`,
	})
	ctx := context.Background()

	tournament := TournamentByID(api, 123)
	assert.Equal(t, 0, api.callCount("tourneys/123"), "construction must not fetch")

	name, err := tournament.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "The Big Cheese #4", name)

	date, err := tournament.Date(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 18, 0, 0, 0, 0, time.UTC), date)

	isMajor, err := tournament.IsMajor(ctx)
	require.NoError(t, err)
	assert.True(t, isMajor)

	assert.Equal(t, 1, api.callCount("tourneys/123"), "one fetch serves every field")
}

func TestSearchTournamentsSendsQuery(t *testing.T) {
	api := newFakeCaller(map[string]string{
		"tourneys/search": `[{"ID": 1, "Name": "Big Cheese"}]`,
	})

	tournaments, err := SearchTournaments(context.Background(), api, "cheese")
	require.NoError(t, err)
	require.Len(t, tournaments, 1)
	assert.Equal(t, map[string]any{"q": "cheese"}, api.lastParams["tourneys/search"])
}

func TestTournamentRegionFallsBackToShortName(t *testing.T) {
	api := newFakeCaller(map[string]string{"regions": regionsListing})

	tournament := TournamentFromFields(api, map[string]json.RawMessage{
		"ID":          json.RawMessage(`5`),
		"RegionShort": json.RawMessage(`"QLD"`),
	})

	region, err := tournament.Region(context.Background())
	require.NoError(t, err)

	name, err := region.Name(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Queensland", name)
}

func TestStartGGSlug(t *testing.T) {
	source := "https://www.start.gg/tournament/the-big-cheese-4"
	events := []map[string]any{
		{
			"ID": 1, "Name": "Singles", "EventType": "Singles",
			"BracketStyle": "Double elimination",
			"Game":         map[string]any{"ID": 2, "Short": "SSBU"},
			"SourceUrl":    source,
		},
	}
	rawEvents, err := json.Marshal(events)
	require.NoError(t, err)

	tournament := TournamentFromFields(newFakeCaller(nil), map[string]json.RawMessage{
		"ID":     json.RawMessage(`1`),
		"Events": rawEvents,
	})

	slug, ok, err := tournament.StartGGSlug(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "the-big-cheese-4", slug)
}

func TestStartGGSlugAbsent(t *testing.T) {
	tournament := TournamentFromFields(newFakeCaller(nil), map[string]json.RawMessage{
		"ID":     json.RawMessage(`1`),
		"Events": json.RawMessage(`[]`),
	})

	_, ok, err := tournament.StartGGSlug(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesDateFilter(t *testing.T) {
	tournament := TournamentFromFields(newFakeCaller(nil), map[string]json.RawMessage{
		"ID":          json.RawMessage(`1`),
		"TourneyDate": json.RawMessage(`"2023-06-15T00:00:00"`),
	})
	ctx := context.Background()

	within, err := tournament.MatchesDateFilter(ctx,
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, within)

	before, err := tournament.MatchesDateFilter(ctx,
		time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.False(t, before)

	unbounded, err := tournament.MatchesDateFilter(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, unbounded)
}
