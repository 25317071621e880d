package models

import (
	"context"
	"fmt"
)

// Phase inference: the service stores a tournament's brackets as a flat
// event list with no explicit links between a pools stage and the top
// bracket it feeds, so the progression is reconstructed from entrant
// overlap. With R(x) the set of player names holding a recorded result
// in event x, an earlier event p precedes e when everyone in R(e) also
// appears in R(p): nobody can reach a later phase without a result in
// the earlier one, while entrants of p may drown and be absent from e.

type phaseDirection int

const (
	phasePrevious phaseDirection = iota
	phaseNext
)

type phaseKey struct {
	eventID int64
	dir     phaseDirection
}

// PreviousPhase returns the phase this event's entrants progressed from,
// or nil if it is the starting phase or an isolated bracket. Memoized
// for the lifetime of the Tournament value.
func (t *Tournament) PreviousPhase(ctx context.Context, e *Event) (*Event, error) {
	return t.neighbourPhase(ctx, e, phasePrevious)
}

// NextPhase returns the phase this event's surviving entrants progressed
// to, or nil if it is the final phase or an isolated bracket.
func (t *Tournament) NextPhase(ctx context.Context, e *Event) (*Event, error) {
	return t.neighbourPhase(ctx, e, phaseNext)
}

// StartPhase walks the predecessor chain to its fixed point: the phase
// where this event's progression began, which is the event itself when
// it has no predecessor.
func (t *Tournament) StartPhase(ctx context.Context, e *Event) (*Event, error) {
	return t.walkPhases(ctx, e, phasePrevious)
}

// FinalPhase walks the successor chain to its fixed point
func (t *Tournament) FinalPhase(ctx context.Context, e *Event) (*Event, error) {
	return t.walkPhases(ctx, e, phaseNext)
}

func (t *Tournament) walkPhases(ctx context.Context, e *Event, dir phaseDirection) (*Event, error) {
	events, err := t.Events(ctx)
	if err != nil {
		return nil, err
	}

	current := e
	// The chain visits each event at most once; more steps than events
	// means the subset relation produced a cycle somehow.
	for i := 0; i <= len(events); i++ {
		next, err := t.neighbourPhase(ctx, current, dir)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return current, nil
		}
		current = next
	}
	return nil, fmt.Errorf("phase chain for event %d did not terminate", e.ID)
}

func (t *Tournament) neighbourPhase(ctx context.Context, e *Event, dir phaseDirection) (*Event, error) {
	if !e.partOfMainProgression() {
		return nil, nil
	}

	key := phaseKey{eventID: e.ID, dir: dir}
	t.mu.Lock()
	if memoized, ok := t.phaseMemo[key]; ok {
		t.mu.Unlock()
		return memoized, nil
	}
	t.mu.Unlock()

	neighbour, err := t.findNeighbourPhase(ctx, e, dir)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.phaseMemo[key] = neighbour
	t.mu.Unlock()
	return neighbour, nil
}

func (t *Tournament) findNeighbourPhase(ctx context.Context, e *Event, dir phaseDirection) (*Event, error) {
	events, err := t.Events(ctx)
	if err != nil {
		return nil, err
	}

	position := -1
	for i, candidate := range events {
		if candidate.ID == e.ID {
			position = i
			break
		}
	}
	if position < 0 {
		return nil, fmt.Errorf("event %d is not part of this tournament", e.ID)
	}

	names, err := t.resultNamesForEvent(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	// Scan outward from the event so the first qualifying candidate is
	// the closest one in declared order.
	step := -1
	if dir == phaseNext {
		step = 1
	}
	for i := position + step; i >= 0 && i < len(events); i += step {
		candidate := events[i]
		if !candidate.partOfMainProgression() {
			continue
		}
		if candidate.EventType != e.EventType || !candidate.Game.Same(e.Game) {
			continue
		}

		candidateNames, err := t.resultNamesForEvent(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if len(candidateNames) == 0 {
			continue
		}

		var qualifies bool
		if dir == phasePrevious {
			// Everyone with a result here came through the predecessor
			qualifies = isSubset(names, candidateNames)
		} else {
			// Everyone who reached the successor has a result here
			qualifies = isSubset(candidateNames, names)
		}
		if qualifies {
			return candidate, nil
		}
	}
	return nil, nil
}

// resultNamesForEvent fetches and memoizes the set of player names with
// a recorded result in the given event.
func (t *Tournament) resultNamesForEvent(ctx context.Context, eventID int64) (map[string]struct{}, error) {
	t.mu.Lock()
	if names, ok := t.resultNames[eventID]; ok {
		t.mu.Unlock()
		return names, nil
	}
	t.mu.Unlock()

	results, err := ResultsForEvent(ctx, t.res.Caller(), eventID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(results))
	for _, r := range results {
		names[r.PlayerName] = struct{}{}
	}

	t.mu.Lock()
	t.resultNames[eventID] = names
	t.mu.Unlock()
	return names, nil
}

func isSubset(inner, outer map[string]struct{}) bool {
	if len(inner) > len(outer) {
		return false
	}
	for name := range inner {
		if _, ok := outer[name]; !ok {
			return false
		}
	}
	return true
}
