package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller serves canned responses and counts fetches
type fakeCaller struct {
	responses map[string]string
	calls     int32
}

func (f *fakeCaller) Call(_ context.Context, path string, _ map[string]any) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	body, ok := f.responses[path]
	if !ok {
		return nil, fmt.Errorf("no response for %s", path)
	}
	return []byte(body), nil
}

func TestGetPresentFieldNeedsNoFetch(t *testing.T) {
	api := &fakeCaller{}
	r, err := FromJSON(api, "Player", "players", []byte(`{"ID":1,"Name":"mang0"}`))
	require.NoError(t, err)

	name, err := r.String(context.Background(), "Name")
	require.NoError(t, err)
	assert.Equal(t, "mang0", name)
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.calls))
}

func TestMissingFieldResolvesOnceByID(t *testing.T) {
	api := &fakeCaller{responses: map[string]string{
		"players/42": `{"ID":42,"Name":"Leffen","RegionShort":"SWE","Twitter":"@TSM_Leffen"}`,
	}}
	r := FromID(api, "Player", "players", 42)

	ctx := context.Background()

	name, err := r.String(ctx, "Name")
	require.NoError(t, err)
	assert.Equal(t, "Leffen", name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls), "first miss fetches")

	// Every further missing field is served from the memoized result
	region, err := r.String(ctx, "RegionShort")
	require.NoError(t, err)
	assert.Equal(t, "SWE", region)

	twitter, err := r.String(ctx, "Twitter")
	require.NoError(t, err)
	assert.Equal(t, "@TSM_Leffen", twitter)

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls), "resolution happens at most once")
}

func TestResolvesThroughAPILink(t *testing.T) {
	api := &fakeCaller{responses: map[string]string{
		"https://api.example.com/tourneys/9": `{"ID":9,"Name":"Full Name","IsMajor":true}`,
	}}
	r, err := FromJSON(api, "Tournament", "tourneys",
		[]byte(`{"ID":9,"APILink":"https://api.example.com/tourneys/9"}`))
	require.NoError(t, err)

	isMajor, err := r.Bool(context.Background(), "IsMajor")
	require.NoError(t, err)
	assert.True(t, isMajor)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls))
}

func TestCompleteSupersetKeepsFragmentFields(t *testing.T) {
	api := &fakeCaller{responses: map[string]string{
		"events/3": `{"ID":3,"Name":"Top 8"}`,
	}}
	// Entrants was injected by the listing that produced this fragment
	r, err := FromJSON(api, "Event", "events", []byte(`{"ID":3,"Entrants":48}`))
	require.NoError(t, err)

	ctx := context.Background()
	name, err := r.String(ctx, "Name")
	require.NoError(t, err)
	assert.Equal(t, "Top 8", name)

	entrants, err := r.Int(ctx, "Entrants")
	require.NoError(t, err)
	assert.Equal(t, 48, entrants)
}

func TestMissingFieldOnCompleteResourceFailsWithoutFetch(t *testing.T) {
	api := &fakeCaller{}
	r, err := FromJSON(api, "Region", "regions", []byte(`{"ID":5,"Short":"QLD"}`))
	require.NoError(t, err)
	r.MarkComplete()

	_, err = r.Get(context.Background(), "Population")

	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Region", notFound.Resource)
	assert.Equal(t, "Population", notFound.Field)
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.calls))
}

func TestUnresolvableWithoutLinkOrID(t *testing.T) {
	api := &fakeCaller{}
	r, err := FromJSON(api, "Character", "characters", []byte(`{"Name":"Fox"}`))
	require.NoError(t, err)

	_, err = r.Get(context.Background(), "IconUrl")

	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "IconUrl", notFound.Field)
	assert.NotNil(t, notFound.Err)
}

func TestFieldAbsentEvenWhenComplete(t *testing.T) {
	api := &fakeCaller{responses: map[string]string{
		"players/7": `{"ID":7,"Name":"Hungrybox"}`,
	}}
	r := FromID(api, "Player", "players", 7)

	_, err := r.Get(context.Background(), "FavouriteFood")

	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Nil(t, notFound.Err, "field genuinely absent, not a resolution failure")
}

func TestLookupResolvesSymbolicShortName(t *testing.T) {
	listing := `[{"ID":1,"Short":"SSBM","Name":"Super Smash Bros. Melee"},` +
		`{"ID":2,"Short":"SSBU","Name":"Super Smash Bros. Ultimate"}]`
	api := &fakeCaller{responses: map[string]string{"pocket/games": listing}}

	r := FromFields(api, "Game", "games", map[string]json.RawMessage{
		"Short": json.RawMessage(`"SSBU"`),
	}).WithLookup(func(ctx context.Context) (map[string]json.RawMessage, error) {
		body, err := api.Call(ctx, "pocket/games", nil)
		if err != nil {
			return nil, err
		}
		var all []map[string]json.RawMessage
		if err := json.Unmarshal(body, &all); err != nil {
			return nil, err
		}
		for _, fields := range all {
			var short string
			if json.Unmarshal(fields["Short"], &short) == nil && short == "SSBU" {
				return fields, nil
			}
		}
		return nil, errors.New("game SSBU not in listing")
	})

	name, err := r.String(context.Background(), "Name")
	require.NoError(t, err)
	assert.Equal(t, "Super Smash Bros. Ultimate", name)
}

func TestConcurrentResolutionFetchesOnce(t *testing.T) {
	api := &fakeCaller{responses: map[string]string{
		"players/11": `{"ID":11,"Name":"Zain","RegionShort":"USA"}`,
	}}
	r := FromID(api, "Player", "players", 11)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := r.String(context.Background(), "Name")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls))
}
