package startgg

import (
	"context"
	"encoding/json"
	"fmt"
)

const eventEntrantsQuery = `query GetEventEntrants($slug: String, $page: Int) {
  event(slug: $slug) {
    entrants(query: {page: $page, perPage: 100}) {
      pageInfo {
        page
        perPage
        totalPages
      }
      nodes {
        name
        skill
        seeds {
          seedNum
          progressionSource { id }
          phaseGroup {
            displayIdentifier
            wave { identifier }
          }
        }
        participants {
          gamerTag
          prefix
          player { id }
        }
      }
    }
  }
}`

const playerPronounsQuery = `query GetPlayerPronouns($id: ID) {
  player(id: $id) {
    user {
      name
      genderPronoun
    }
  }
}`

// PhaseGroup is the pool an entrant was seeded into
type PhaseGroup struct {
	DisplayIdentifier string `json:"displayIdentifier"`
	Wave              *struct {
		Identifier string `json:"identifier"`
	} `json:"wave"`
}

// EntrantSeed is one seed assignment for an entrant; later phases carry
// a progression source pointing at where the entrant came from.
type EntrantSeed struct {
	SeedNum           int `json:"seedNum"`
	ProgressionSource *struct {
		ID int64 `json:"id"`
	} `json:"progressionSource"`
	PhaseGroup PhaseGroup `json:"phaseGroup"`
}

// Participant is one player of an entrant (two for doubles teams)
type Participant struct {
	GamerTag string  `json:"gamerTag"`
	Prefix   *string `json:"prefix"`
	Player   struct {
		ID int64 `json:"id"`
	} `json:"player"`
}

// Entrant is one entrant of a start.gg event: a player, or a team
type Entrant struct {
	Name         string        `json:"name"`
	Skill        *int          `json:"skill"`
	Seeds        []EntrantSeed `json:"seeds"`
	Participants []Participant `json:"participants"`
}

// EventEntrants returns every entrant of an event, walking the
// paginated listing to the end.
func (c *Client) EventEntrants(ctx context.Context, tournamentSlug, eventSlug string) ([]Entrant, error) {
	slug := fmt.Sprintf("tournament/%s/event/%s", tournamentSlug, eventSlug)

	var entrants []Entrant
	for page := 1; ; page++ {
		data, err := c.Query(ctx, eventEntrantsQuery, map[string]any{"slug": slug, "page": page})
		if err != nil {
			return nil, err
		}

		var response struct {
			Event *struct {
				Entrants struct {
					PageInfo struct {
						TotalPages int `json:"totalPages"`
					} `json:"pageInfo"`
					Nodes []Entrant `json:"nodes"`
				} `json:"entrants"`
			} `json:"event"`
		}
		if err := json.Unmarshal(data, &response); err != nil {
			return nil, fmt.Errorf("failed to decode entrants for %s: %w", slug, err)
		}
		if response.Event == nil {
			return nil, fmt.Errorf("no start.gg event at %s", slug)
		}

		entrants = append(entrants, response.Event.Entrants.Nodes...)
		if page >= response.Event.Entrants.PageInfo.TotalPages {
			break
		}
	}
	return entrants, nil
}

// EventSeeds returns an event's seed numbers keyed by entrant name, as
// needed for upset factor. Entrants seeded in multiple phases keep
// their first (starting phase) seed.
func (c *Client) EventSeeds(ctx context.Context, tournamentSlug, eventSlug string) (map[string]int, error) {
	entrants, err := c.EventEntrants(ctx, tournamentSlug, eventSlug)
	if err != nil {
		return nil, err
	}
	seeds := make(map[string]int, len(entrants))
	for _, entrant := range entrants {
		for _, seed := range entrant.Seeds {
			if seed.ProgressionSource == nil {
				seeds[entrant.Name] = seed.SeedNum
				break
			}
		}
	}
	return seeds, nil
}

// PlayerPronouns returns the pronouns a player set on their profile, or
// false if they have no linked user or never set any.
func (c *Client) PlayerPronouns(ctx context.Context, playerID int64) (string, bool, error) {
	data, err := c.Query(ctx, playerPronounsQuery, map[string]any{"id": playerID})
	if err != nil {
		return "", false, err
	}

	var response struct {
		Player *struct {
			User *struct {
				GenderPronoun *string `json:"genderPronoun"`
			} `json:"user"`
		} `json:"player"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return "", false, fmt.Errorf("failed to decode pronouns for player %d: %w", playerID, err)
	}
	if response.Player == nil || response.Player.User == nil || response.Player.User.GenderPronoun == nil {
		return "", false, nil
	}
	return *response.Player.User.GenderPronoun, true, nil
}
