package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jstittsworth/ausmash-go/resource"
)

// Player is an individual who plays or has ever played at a competitive
// event. Not everyone at an event is in the database, but tagged players
// get Elo and result history.
type Player struct {
	res *resource.Resource
}

const playersBasePath = "players"

// PlayerByID constructs a player that resolves itself on first access
// to any field.
func PlayerByID(api resource.Caller, id int64) *Player {
	return &Player{res: resource.FromID(api, "Player", playersBasePath, id)}
}

// PlayerFromFields wraps an embedded player fragment
func PlayerFromFields(api resource.Caller, fields map[string]json.RawMessage) *Player {
	return &Player{res: resource.FromFields(api, "Player", playersBasePath, fields)}
}

func wrapPlayers(api resource.Caller, body []byte) ([]*Player, error) {
	var fragments []map[string]json.RawMessage
	if err := json.Unmarshal(body, &fragments); err != nil {
		return nil, fmt.Errorf("failed to decode player listing: %w", err)
	}
	players := make([]*Player, 0, len(fragments))
	for _, fields := range fragments {
		players = append(players, PlayerFromFields(api, fields))
	}
	return players, nil
}

// AllPlayers returns every player in the database
func AllPlayers(ctx context.Context, api resource.Caller) ([]*Player, error) {
	body, err := api.Call(ctx, playersBasePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return wrapPlayers(api, body)
}

// PlayersByRegion returns every player currently in a region
func PlayersByRegion(ctx context.Context, api resource.Caller, regionShort string) ([]*Player, error) {
	body, err := api.Call(ctx, "players/byregion/"+regionShort, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for %s: %w", regionShort, err)
	}
	return wrapPlayers(api, body)
}

// FindPlayer gets the player from a region with this name; a missing
// player surfaces as the client's not-found error.
func FindPlayer(ctx context.Context, api resource.Caller, name, regionShort string) (*Player, error) {
	body, err := api.Call(ctx, fmt.Sprintf("players/find/%s/%s", name, regionShort), nil)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode player %s: %w", name, err)
	}
	p := PlayerFromFields(api, fields)
	p.res.MarkComplete()
	return p, nil
}

// SearchPlayers returns players whose name contains the query
func SearchPlayers(ctx context.Context, api resource.Caller, query string) ([]*Player, error) {
	body, err := api.Call(ctx, "players/search", map[string]any{"q": query})
	if err != nil {
		return nil, fmt.Errorf("player search failed: %w", err)
	}
	return wrapPlayers(api, body)
}

// ID returns the numeric identifier, if known yet
func (p *Player) ID() (int64, bool) {
	return p.res.ID()
}

// Name is the player's tag
func (p *Player) Name(ctx context.Context) (string, error) {
	return p.res.String(ctx, "Name")
}

// Region the player currently resides in. Listings carry RegionShort;
// the full representation embeds a Region fragment.
func (p *Player) Region(ctx context.Context) (*Region, error) {
	if p.res.Has("Region") {
		raw, err := p.res.Get(ctx, "Region")
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode player region: %w", err)
		}
		return RegionFromFields(p.res.Caller(), fields), nil
	}
	short, err := p.res.String(ctx, "RegionShort")
	if err != nil {
		return nil, err
	}
	return RegionByShort(p.res.Caller(), short), nil
}

// Results returns this player's results, newest to oldest, optionally
// bounded by dates.
func (p *Player) Results(ctx context.Context, startDate, endDate time.Time) ([]*Result, error) {
	id, ok := p.ID()
	if !ok {
		return nil, fmt.Errorf("player has no ID to look up results with")
	}
	return ResultsForPlayer(ctx, p.res.Caller(), id, startDate, endDate)
}

// Matches returns this player's singles matches, newest to oldest,
// optionally bounded by dates.
func (p *Player) Matches(ctx context.Context, startDate, endDate time.Time) ([]*Match, error) {
	id, ok := p.ID()
	if !ok {
		return nil, fmt.Errorf("player has no ID to look up matches with")
	}
	return MatchesForPlayer(ctx, p.res.Caller(), id, startDate, endDate)
}

// Resource exposes the raw field map for anything without an accessor
func (p *Player) Resource() *resource.Resource {
	return p.res
}
