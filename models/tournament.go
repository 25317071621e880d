package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jstittsworth/ausmash-go/resource"
)

// Tournament is a competitive tournament, which should have one or more
// events (or none if it has not happened yet). Phase inference state is
// owned by the value, so neighbour lookups are memoized for its lifetime.
type Tournament struct {
	res *resource.Resource

	mu          sync.Mutex
	events      []*Event
	phaseMemo   map[phaseKey]*Event
	resultNames map[int64]map[string]struct{}
}

const tournamentsBasePath = "tourneys"

func newTournament(res *resource.Resource) *Tournament {
	return &Tournament{
		res:         res,
		phaseMemo:   make(map[phaseKey]*Event),
		resultNames: make(map[int64]map[string]struct{}),
	}
}

// TournamentByID constructs a tournament that resolves itself on first
// access to any field.
func TournamentByID(api resource.Caller, id int64) *Tournament {
	return newTournament(resource.FromID(api, "Tournament", tournamentsBasePath, id))
}

// TournamentFromFields wraps an embedded tournament fragment
func TournamentFromFields(api resource.Caller, fields map[string]json.RawMessage) *Tournament {
	return newTournament(resource.FromFields(api, "Tournament", tournamentsBasePath, fields))
}

func wrapTournaments(api resource.Caller, body []byte) ([]*Tournament, error) {
	var fragments []map[string]json.RawMessage
	if err := json.Unmarshal(body, &fragments); err != nil {
		return nil, fmt.Errorf("failed to decode tournament listing: %w", err)
	}
	tournaments := make([]*Tournament, 0, len(fragments))
	for _, fields := range fragments {
		tournaments = append(tournaments, TournamentFromFields(api, fields))
	}
	return tournaments, nil
}

// AllTournaments returns every uploaded tournament, newest to oldest
func AllTournaments(ctx context.Context, api resource.Caller) ([]*Tournament, error) {
	body, err := api.Call(ctx, tournamentsBasePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return wrapTournaments(api, body)
}

// TournamentsByRegion returns every tournament in a region, newest to oldest
func TournamentsByRegion(ctx context.Context, api resource.Caller, regionShort string) ([]*Tournament, error) {
	body, err := api.Call(ctx, "tourneys/byregion/"+regionShort, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for %s: %w", regionShort, err)
	}
	return wrapTournaments(api, body)
}

// TournamentsWithResults returns every tournament that has events, newest to oldest
func TournamentsWithResults(ctx context.Context, api resource.Caller) ([]*Tournament, error) {
	body, err := api.Call(ctx, "tourneys/withresults", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments with results: %w", err)
	}
	return wrapTournaments(api, body)
}

// SearchTournaments returns tournaments whose name contains the query
func SearchTournaments(ctx context.Context, api resource.Caller, query string) ([]*Tournament, error) {
	body, err := api.Call(ctx, "tourneys/search", map[string]any{"q": query})
	if err != nil {
		return nil, fmt.Errorf("tournament search failed: %w", err)
	}
	return wrapTournaments(api, body)
}

// UpcomingTournaments returns tournaments occurring in the future
func UpcomingTournaments(ctx context.Context, api resource.Caller) ([]*Tournament, error) {
	body, err := api.Call(ctx, "tourneys/upcoming", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tournaments: %w", err)
	}
	return wrapTournaments(api, body)
}

// ID returns the numeric identifier, if known yet
func (t *Tournament) ID() (int64, bool) {
	return t.res.ID()
}

// Name of this tournament
func (t *Tournament) Name(ctx context.Context) (string, error) {
	return t.res.String(ctx, "Name")
}

// Date the tournament was held; the first day for multi-day tournaments
func (t *Tournament) Date(ctx context.Context) (time.Time, error) {
	return t.res.Date(ctx, "TourneyDate")
}

// IsMajor reflects the "is major" checkbox, nothing more
func (t *Tournament) IsMajor(ctx context.Context) (bool, error) {
	return t.res.Bool(ctx, "IsMajor")
}

// Region of the tournament. Listings carry only RegionShort; the full
// representation carries an embedded Region fragment with an ID.
func (t *Tournament) Region(ctx context.Context) (*Region, error) {
	if t.res.Has("Region") {
		raw, err := t.res.Get(ctx, "Region")
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode tournament region: %w", err)
		}
		return RegionFromFields(t.res.Caller(), fields), nil
	}
	short, err := t.res.String(ctx, "RegionShort")
	if err != nil {
		return nil, err
	}
	return RegionByShort(t.res.Caller(), short), nil
}

// Series this tournament is an instance of
func (t *Tournament) Series(ctx context.Context) (*TournamentSeries, error) {
	raw, err := t.res.Get(ctx, "Series")
	if err != nil {
		return nil, err
	}
	var series TournamentSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("failed to decode tournament series: %w", err)
	}
	return &series, nil
}

// Events returns all events uploaded for this tournament, in declared
// order (earliest to latest, as in the admin page). Decoded once per
// Tournament value; tags outside the known enums fail here rather than
// during phase inference.
func (t *Tournament) Events(ctx context.Context) ([]*Event, error) {
	t.mu.Lock()
	if t.events != nil {
		defer t.mu.Unlock()
		return t.events, nil
	}
	t.mu.Unlock()

	raw, err := t.res.Get(ctx, "Events")
	if err != nil {
		return nil, err
	}
	var events []*Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("failed to decode tournament events: %w", err)
	}
	for _, e := range events {
		if err := e.validateTags(); err != nil {
			return nil, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.events == nil {
		t.events = events
	}
	return t.events, nil
}

// MatchesDateFilter reports whether the tournament falls between the
// start and end dates, both inclusive; a zero time means unbounded.
func (t *Tournament) MatchesDateFilter(ctx context.Context, startDate, endDate time.Time) (bool, error) {
	date, err := t.Date(ctx)
	if err != nil {
		return false, err
	}
	if !startDate.IsZero() && date.Before(startDate) {
		return false, nil
	}
	if !endDate.IsZero() && date.After(endDate) {
		return false, nil
	}
	return true, nil
}

// StartGGSlug digs the start.gg tournament slug out of the events'
// source URLs, or returns false if nothing was imported from start.gg.
func (t *Tournament) StartGGSlug(ctx context.Context) (string, bool, error) {
	events, err := t.Events(ctx)
	if err != nil {
		return "", false, err
	}
	for _, event := range events {
		if event.SourceURL == nil {
			continue
		}
		url := *event.SourceURL
		if strings.Contains(url, "start.gg/tournament/") {
			return url[strings.LastIndex(url, "/")+1:], true, nil
		}
	}
	return "", false, nil
}

// Resource exposes the raw field map for anything without an accessor
func (t *Tournament) Resource() *resource.Resource {
	return t.res
}

// TournamentSeries groups recurring tournaments; returned from /series
// or embedded in a full tournament. All fields are already present
// wherever it appears, so it is a plain struct rather than a resource.
type TournamentSeries struct {
	ID          int64  `json:"ID"`
	Name        string `json:"Name"`
	RegionShort string `json:"RegionShort"`
	City        string `json:"City"`
}

// Shortened series names for display; not pulled from the API
var seriesNameAbbreviations = map[string]string{
	"Ultimate Pop-Off Village":    "UPOV",
	"Dancing Blade":               "DB",
	"Okay This Is Epping":         "Epping",
	"Friday Night Smash":          "FNS",
	"Guf n' Watch @ GUF Bendigo":  "GUF",
	"Super Barista Bros":          "SBB",
	"CouchWarriors RanBat":        "CW RanBat",
}

// AllSeries returns every tournament series
func AllSeries(ctx context.Context, api resource.Caller) ([]*TournamentSeries, error) {
	body, err := api.Call(ctx, "series", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	var series []*TournamentSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("failed to decode series listing: %w", err)
	}
	return series, nil
}

// AbbrevName returns a shorter form of the series name if one is known,
// otherwise the full name with common prefixes and suffixes stripped.
func (s *TournamentSeries) AbbrevName() string {
	if abbrev, ok := seriesNameAbbreviations[s.Name]; ok {
		return abbrev
	}
	name := strings.TrimPrefix(s.Name, "The ")
	name = strings.TrimSuffix(name, " Smash")
	if i := strings.LastIndex(name, " @ "); i >= 0 {
		name = name[:i]
	}
	return name
}

func (s *TournamentSeries) String() string {
	return s.Name
}

// Tournaments returns every tournament in this series
func (s *TournamentSeries) Tournaments(ctx context.Context, api resource.Caller) ([]*Tournament, error) {
	body, err := api.Call(ctx, fmt.Sprintf("tourneys/byseries/%d", s.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for series %d: %w", s.ID, err)
	}
	return wrapTournaments(api, body)
}
