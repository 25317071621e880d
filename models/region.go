package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jstittsworth/ausmash-go/resource"
)

// Region is where tournaments happen or players reside: a state or
// territory of Australia, or a country outside it.
type Region struct {
	res *resource.Resource
}

const regionsBasePath = "regions"

// AllRegions returns every region known to the service
func AllRegions(ctx context.Context, api resource.Caller) ([]*Region, error) {
	body, err := api.Call(ctx, regionsBasePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	var fragments []map[string]json.RawMessage
	if err := json.Unmarshal(body, &fragments); err != nil {
		return nil, fmt.Errorf("failed to decode region listing: %w", err)
	}
	regions := make([]*Region, 0, len(fragments))
	for _, fields := range fragments {
		regions = append(regions, &Region{res: resource.FromFields(api, "Region", regionsBasePath, fields).MarkComplete()})
	}
	return regions, nil
}

// RegionByShort constructs a region from just its short name (QLD, NZ).
// Fields beyond the short name resolve by scanning the region listing.
func RegionByShort(api resource.Caller, short string) *Region {
	res := resource.FromFields(api, "Region", regionsBasePath, map[string]json.RawMessage{
		"Short": mustJSON(short),
	})
	res.WithLookup(listingLookup(api, regionsBasePath, "Short", short))
	return &Region{res: res}
}

// RegionFromFields wraps an embedded region fragment
func RegionFromFields(api resource.Caller, fields map[string]json.RawMessage) *Region {
	return &Region{res: resource.FromFields(api, "Region", regionsBasePath, fields)}
}

// ShortName is the 2-3 letter uppercase acronym as per everyday usage
func (r *Region) ShortName(ctx context.Context) (string, error) {
	return r.res.String(ctx, "Short")
}

// Name is the full name of the region
func (r *Region) Name(ctx context.Context) (string, error) {
	return r.res.String(ctx, "Name")
}

// ColourString is the hexadecimal colour code associated with the region
func (r *Region) ColourString(ctx context.Context) (string, error) {
	return r.res.String(ctx, "Colour")
}

// Cities are those known to have a competitive scene in this region
func (r *Region) Cities(ctx context.Context) ([]string, error) {
	raw, err := r.res.Get(ctx, "Cities")
	if err != nil {
		return nil, err
	}
	var cities []string
	if err := json.Unmarshal(raw, &cities); err != nil {
		return nil, fmt.Errorf("failed to decode region cities: %w", err)
	}
	return cities, nil
}

// IsInternational reports whether the region is outside Australia/NZ.
// Not on the API itself: tournament series need cities, so a region
// without cities is one tournaments cannot be uploaded for.
func (r *Region) IsInternational(ctx context.Context) (bool, error) {
	cities, err := r.Cities(ctx)
	if err != nil {
		return false, err
	}
	return len(cities) == 0, nil
}

// Resource exposes the raw field map for anything without an accessor
func (r *Region) Resource() *resource.Resource {
	return r.res
}
