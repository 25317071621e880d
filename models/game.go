package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jstittsworth/ausmash-go/resource"
)

// Game is a video game that people play competitively and that the
// service records data for.
type Game struct {
	res *resource.Resource
}

const gamesBasePath = "games"

// The pocket listing already carries ImageUrl, sparing a per-game fetch
const gamesListingPath = "pocket/games"

// AllGames returns every known game, ordered from newest to oldest
func AllGames(ctx context.Context, api resource.Caller) ([]*Game, error) {
	body, err := api.Call(ctx, gamesListingPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	var fragments []map[string]json.RawMessage
	if err := json.Unmarshal(body, &fragments); err != nil {
		return nil, fmt.Errorf("failed to decode game listing: %w", err)
	}
	games := make([]*Game, 0, len(fragments))
	for _, fields := range fragments {
		games = append(games, &Game{res: resource.FromFields(api, "Game", gamesBasePath, fields).MarkComplete()})
	}
	return games, nil
}

// GameByShort constructs a game from just its short name. Any field
// beyond the short name resolves by scanning the full game listing,
// since the service has no lookup-by-short endpoint.
func GameByShort(api resource.Caller, short string) *Game {
	res := resource.FromFields(api, "Game", gamesBasePath, map[string]json.RawMessage{
		"Short": mustJSON(short),
	})
	res.WithLookup(listingLookup(api, gamesListingPath, "Short", short))
	return &Game{res: res}
}

// GameFromFields wraps an embedded game fragment
func GameFromFields(api resource.Caller, fields map[string]json.RawMessage) *Game {
	return &Game{res: resource.FromFields(api, "Game", gamesBasePath, fields)}
}

// GamesByShort returns the full listing keyed by short name
func GamesByShort(ctx context.Context, api resource.Caller) (map[string]*Game, error) {
	games, err := AllGames(ctx, api)
	if err != nil {
		return nil, err
	}
	byShort := make(map[string]*Game, len(games))
	for _, g := range games {
		short, err := g.ShortName(ctx)
		if err != nil {
			return nil, err
		}
		byShort[short] = g
	}
	return byShort, nil
}

// ShortName is the abbreviated name, often the acronym
func (g *Game) ShortName(ctx context.Context) (string, error) {
	return g.res.String(ctx, "Short")
}

// FullName includes the "Super Smash Bros." title
func (g *Game) FullName(ctx context.Context) (string, error) {
	return g.res.String(ctx, "Name")
}

// Name is the informal name, excluding the "Super Smash Bros." title
func (g *Game) Name(ctx context.Context) (string, error) {
	full, err := g.FullName(ctx)
	if err != nil {
		return "", err
	}
	switch full {
	case "Super Smash Bros.":
		return "64", nil
	case "Super Smash Bros. for Wii U":
		return "Smash 4", nil
	case "Super Smash Bros. for Nintendo 3DS":
		return "3DS", nil
	}
	return strings.TrimPrefix(full, "Super Smash Bros. "), nil
}

// LogoURL is the small logo image used on the website
func (g *Game) LogoURL(ctx context.Context) (string, error) {
	return g.res.String(ctx, "ImageUrl")
}

// SortOrder ascends from 0 for the newest game
func (g *Game) SortOrder(ctx context.Context) (int, error) {
	return g.res.Int(ctx, "SortOrder")
}

// Resource exposes the raw field map for anything without an accessor
func (g *Game) Resource() *resource.Resource {
	return g.res
}

// listingLookup resolves a resource identified only by a symbolic field
// value, by scanning the full listing of its type for a matching entry.
func listingLookup(api resource.Caller, listingPath, field, want string) resource.LookupFunc {
	return func(ctx context.Context) (map[string]json.RawMessage, error) {
		body, err := api.Call(ctx, listingPath, nil)
		if err != nil {
			return nil, err
		}
		var fragments []map[string]json.RawMessage
		if err := json.Unmarshal(body, &fragments); err != nil {
			return nil, fmt.Errorf("failed to decode %s listing: %w", listingPath, err)
		}
		for _, fields := range fragments {
			var got string
			if raw, ok := fields[field]; ok && json.Unmarshal(raw, &got) == nil && got == want {
				return fields, nil
			}
		}
		return nil, fmt.Errorf("no entry in %s with %s = %q", listingPath, field, want)
	}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
