package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pathao"
	"github.com/tournevent/courier/pkg/courier/redx"
	"github.com/tournevent/courier/pkg/courier/steadfast"
)

// PathaoSource is the Pathao location API.
type PathaoSource interface {
	Stores(ctx context.Context) ([]pathao.Store, error)
	Cities(ctx context.Context) ([]pathao.City, error)
	Zones(ctx context.Context, cityID int) ([]pathao.Zone, error)
	Areas(ctx context.Context, zoneID int) ([]pathao.Area, error)
}

// RedXSource is the RedX location API.
type RedXSource interface {
	Areas(ctx context.Context, f redx.AreaFilter) ([]redx.Area, error)
	PickupStores(ctx context.Context) ([]redx.PickupStore, error)
}

// SteadfastSource is the Steadfast location API.
type SteadfastSource interface {
	PoliceStations(ctx context.Context) ([]steadfast.PoliceStation, error)
}

// Sources are the provider clients backing a Lookup. Any may be nil.
type Sources struct {
	Pathao    PathaoSource
	RedX      RedXSource
	Steadfast SteadfastSource
}

// Lookup serves cached provider location data.
type Lookup struct {
	src   Sources
	cache *Cache
}

// NewLookup creates a Lookup.
func NewLookup(src Sources, cache *Cache) *Lookup {
	return &Lookup{src: src, cache: cache}
}

func notConfigured(provider string) error {
	return fmt.Errorf("%w: %s", courier.ErrCarrierNotFound, provider)
}

// PathaoStores lists the merchant's Pathao stores.
func (l *Lookup) PathaoStores(ctx context.Context) ([]pathao.Store, error) {
	if l.src.Pathao == nil {
		return nil, notConfigured("pathao")
	}
	return Cached(ctx, l.cache, "pathao", "store", "stores", l.src.Pathao.Stores)
}

// PathaoCities lists Pathao cities.
func (l *Lookup) PathaoCities(ctx context.Context) ([]pathao.City, error) {
	if l.src.Pathao == nil {
		return nil, notConfigured("pathao")
	}
	return Cached(ctx, l.cache, "pathao", "city", "cities", l.src.Pathao.Cities)
}

// PathaoZones lists the zones of a city. No city yields no zones.
func (l *Lookup) PathaoZones(ctx context.Context, cityID int) ([]pathao.Zone, error) {
	if l.src.Pathao == nil {
		return nil, notConfigured("pathao")
	}
	if cityID <= 0 {
		return nil, nil
	}
	return Cached(ctx, l.cache, "pathao", "zone", "zones:"+strconv.Itoa(cityID), func(ctx context.Context) ([]pathao.Zone, error) {
		return l.src.Pathao.Zones(ctx, cityID)
	})
}

// PathaoAreas lists the areas of a zone. No zone yields no areas.
func (l *Lookup) PathaoAreas(ctx context.Context, zoneID int) ([]pathao.Area, error) {
	if l.src.Pathao == nil {
		return nil, notConfigured("pathao")
	}
	if zoneID <= 0 {
		return nil, nil
	}
	return Cached(ctx, l.cache, "pathao", "area", "areas:"+strconv.Itoa(zoneID), func(ctx context.Context) ([]pathao.Area, error) {
		return l.src.Pathao.Areas(ctx, zoneID)
	})
}

// PathaoCascade returns a city, zone and area cascade over the cached lookups.
func (l *Lookup) PathaoCascade() *Cascade {
	return NewCascade(
		LevelSpec{Name: "city", Fetch: func(ctx context.Context, _ int) ([]Option, error) {
			cities, err := l.PathaoCities(ctx)
			return toOptions(cities, func(c pathao.City) Option { return Option{ID: c.CityID, Name: c.CityName} }), err
		}},
		LevelSpec{Name: "zone", Fetch: func(ctx context.Context, cityID int) ([]Option, error) {
			zones, err := l.PathaoZones(ctx, cityID)
			return toOptions(zones, func(z pathao.Zone) Option { return Option{ID: z.ZoneID, Name: z.ZoneName} }), err
		}},
		LevelSpec{Name: "area", Fetch: func(ctx context.Context, zoneID int) ([]Option, error) {
			areas, err := l.PathaoAreas(ctx, zoneID)
			return toOptions(areas, func(a pathao.Area) Option { return Option{ID: a.AreaID, Name: a.AreaName} }), err
		}},
	)
}

// PathaoLocations walks the Pathao cascade down to cityID and zoneID and
// returns every level. A zero id stops the walk at that level. A provider
// failure leaves the failing level in the error state; an id that is not
// among its level's options is an error.
func (l *Lookup) PathaoLocations(ctx context.Context, cityID, zoneID int) ([]Level, error) {
	if l.src.Pathao == nil {
		return nil, notConfigured("pathao")
	}
	c := l.PathaoCascade()
	if err := c.Load(ctx); err != nil {
		return c.Levels(), nil
	}
	for i, id := range []int{cityID, zoneID} {
		if id <= 0 {
			break
		}
		if err := c.Select(ctx, i, id); err != nil {
			if errors.Is(err, ErrUnknownOption) {
				return nil, err
			}
			break
		}
	}
	return c.Levels(), nil
}

// RedXAreas lists RedX areas for a filter. A post code or district filter
// without a value yields nothing.
func (l *Lookup) RedXAreas(ctx context.Context, f redx.AreaFilter) ([]redx.Area, error) {
	if l.src.RedX == nil {
		return nil, notConfigured("redx")
	}
	f.Value = strings.TrimSpace(f.Value)
	if f.Mode != redx.AreaModeAll && f.Value == "" {
		return nil, nil
	}
	key := "areas:" + string(f.Mode) + ":" + strings.ToLower(f.Value)
	return Cached(ctx, l.cache, "redx", "area", key, func(ctx context.Context) ([]redx.Area, error) {
		return l.src.RedX.Areas(ctx, f)
	})
}

// RedXPickupStores lists the merchant's RedX pickup stores.
func (l *Lookup) RedXPickupStores(ctx context.Context) ([]redx.PickupStore, error) {
	if l.src.RedX == nil {
		return nil, notConfigured("redx")
	}
	return Cached(ctx, l.cache, "redx", "store", "stores", l.src.RedX.PickupStores)
}

// SteadfastPoliceStations lists Steadfast police stations.
func (l *Lookup) SteadfastPoliceStations(ctx context.Context) ([]steadfast.PoliceStation, error) {
	if l.src.Steadfast == nil {
		return nil, notConfigured("steadfast")
	}
	return Cached(ctx, l.cache, "steadfast", "police_station", "police_stations", l.src.Steadfast.PoliceStations)
}

func toOptions[T any](items []T, fn func(T) Option) []Option {
	if items == nil {
		return nil
	}
	out := make([]Option, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
