package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verdantleaf/quote_api/internal/models"
)

// Snapshot is an immutable view of the full pricing catalog: products, tiers,
// and the shipping zone table. A snapshot is built once from repository rows,
// validated, and never mutated afterwards, so quote computations can share it
// without synchronization. Administrative edits build a replacement snapshot.
type Snapshot struct {
	products    map[string]models.Product
	productList []models.Product
	tiers       []models.Tier
	zones       map[string]models.ShippingZone
	zoneList    []models.ShippingZone
	regions     map[string]string
	defaultZone string
	loadedAt    time.Time
}

// NewSnapshot validates and indexes catalog rows into an immutable snapshot.
// Non-conforming rows are rejected here so the pricing engine never has to
// branch on shape: prices and case counts must be positive, tiers are sorted
// with a guaranteed zero floor tier, bands are sorted ascending, and exactly
// one default zone is designated (the highest-cost zone when none is flagged).
func NewSnapshot(products []models.Product, tiers []models.Tier, zones []models.ShippingZone, regions []models.ZoneRegion) (*Snapshot, error) {
	s := &Snapshot{
		products: make(map[string]models.Product, len(products)),
		zones:    make(map[string]models.ShippingZone, len(zones)),
		regions:  make(map[string]string, len(regions)),
		loadedAt: time.Now(),
	}

	for _, p := range products {
		if p.Key == "" {
			return nil, fmt.Errorf("product %q: empty key", p.Name)
		}
		if !p.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("product %q: unit price must be positive", p.Key)
		}
		if p.UnitsPerCase <= 0 {
			return nil, fmt.Errorf("product %q: units per case must be positive", p.Key)
		}
		if p.UnitsPerDisplayBox < 0 || p.UnitsPerDisplayBox > p.UnitsPerCase {
			return nil, fmt.Errorf("product %q: units per display box out of range", p.Key)
		}
		if _, dup := s.products[p.Key]; dup {
			return nil, fmt.Errorf("product %q: duplicate key", p.Key)
		}
		s.products[p.Key] = p
		s.productList = append(s.productList, p)
	}
	sort.Slice(s.productList, func(i, j int) bool { return s.productList[i].Key < s.productList[j].Key })

	// Tiers: ascending by threshold, rates in [0, 1).
	s.tiers = make([]models.Tier, len(tiers))
	copy(s.tiers, tiers)
	sort.Slice(s.tiers, func(i, j int) bool { return s.tiers[i].Threshold < s.tiers[j].Threshold })
	one := decimal.NewFromInt(1)
	for _, t := range s.tiers {
		if t.Threshold < 0 {
			return nil, fmt.Errorf("tier %q: negative threshold", t.Label)
		}
		if t.DiscountRate.IsNegative() || !t.DiscountRate.LessThan(one) {
			return nil, fmt.Errorf("tier %q: discount rate must be in [0,1)", t.Label)
		}
	}
	// Guarantee the floor tier so a tier always applies.
	if len(s.tiers) == 0 || s.tiers[0].Threshold != 0 {
		s.tiers = append([]models.Tier{{Threshold: 0, DiscountRate: decimal.Zero, Label: "base"}}, s.tiers...)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no shipping zones configured")
	}
	for _, z := range zones {
		if z.Key == "" {
			return nil, fmt.Errorf("zone %q: empty key", z.Name)
		}
		switch z.Mode {
		case models.ZoneModePercentage:
			if z.RatePercent.IsNegative() {
				return nil, fmt.Errorf("zone %q: negative rate percent", z.Key)
			}
		case models.ZoneModeBanded:
			if z.PerMasterCaseRate.IsNegative() {
				return nil, fmt.Errorf("zone %q: negative per-case rate", z.Key)
			}
			sort.Slice(z.Bands, func(i, j int) bool { return z.Bands[i].MaxBoxes < z.Bands[j].MaxBoxes })
			for i, b := range z.Bands {
				if b.MaxBoxes <= 0 || b.Rate.IsNegative() {
					return nil, fmt.Errorf("zone %q: invalid band", z.Key)
				}
				if i > 0 && b.MaxBoxes == z.Bands[i-1].MaxBoxes {
					return nil, fmt.Errorf("zone %q: overlapping bands at %d boxes", z.Key, b.MaxBoxes)
				}
			}
		default:
			return nil, fmt.Errorf("zone %q: unknown mode %q", z.Key, z.Mode)
		}
		if _, dup := s.zones[z.Key]; dup {
			return nil, fmt.Errorf("zone %q: duplicate key", z.Key)
		}
		s.zones[z.Key] = z
		s.zoneList = append(s.zoneList, z)
		if z.IsDefault {
			if s.defaultZone != "" {
				return nil, fmt.Errorf("multiple default zones: %q and %q", s.defaultZone, z.Key)
			}
			s.defaultZone = z.Key
		}
	}
	sort.Slice(s.zoneList, func(i, j int) bool { return s.zoneList[i].Key < s.zoneList[j].Key })
	if s.defaultZone == "" {
		s.defaultZone = highestCostZone(s.zoneList)
	}

	for _, r := range regions {
		code := strings.ToUpper(strings.TrimSpace(r.RegionCode))
		if code == "" {
			continue
		}
		zone := r.ZoneKey
		if _, ok := s.zones[zone]; !ok {
			return nil, fmt.Errorf("region %q: unknown zone %q", code, zone)
		}
		if existing, dup := s.regions[code]; dup && existing != zone {
			return nil, fmt.Errorf("region %q: mapped to both %q and %q", code, existing, zone)
		}
		s.regions[code] = zone
	}

	return s, nil
}

// highestCostZone picks the fail-safe default: the banded zone with the
// largest per-case rate, or failing that the largest percentage zone.
func highestCostZone(zones []models.ShippingZone) string {
	best := zones[0]
	for _, z := range zones[1:] {
		if zoneCostRank(z).GreaterThan(zoneCostRank(best)) {
			best = z
		}
	}
	return best.Key
}

func zoneCostRank(z models.ShippingZone) decimal.Decimal {
	if z.Mode == models.ZoneModeBanded {
		return z.PerMasterCaseRate
	}
	return z.RatePercent
}

// Product looks up a product by key.
func (s *Snapshot) Product(key string) (models.Product, bool) {
	p, ok := s.products[key]
	return p, ok
}

// Products returns all products ordered by key.
func (s *Snapshot) Products() []models.Product {
	return s.productList
}

// Tiers returns the tier ladder ascending by threshold. The first tier always
// has threshold 0.
func (s *Snapshot) Tiers() []models.Tier {
	return s.tiers
}

// Zones returns all shipping zones ordered by key.
func (s *Snapshot) Zones() []models.ShippingZone {
	return s.zoneList
}

// Zone looks up a shipping zone by key.
func (s *Snapshot) Zone(key string) (models.ShippingZone, bool) {
	z, ok := s.zones[key]
	return z, ok
}

// DefaultZone returns the designated fail-safe zone.
func (s *Snapshot) DefaultZone() models.ShippingZone {
	return s.zones[s.defaultZone]
}

// ResolveZone maps a region code to its shipping zone. Unrecognized regions
// resolve to the default zone and return ok=false so the caller can surface
// the fallback instead of silently mispricing shipping.
func (s *Snapshot) ResolveZone(regionCode string) (models.ShippingZone, bool) {
	code := strings.ToUpper(strings.TrimSpace(regionCode))
	if key, ok := s.regions[code]; ok {
		return s.zones[key], true
	}
	return s.DefaultZone(), false
}

// LoadedAt reports when this snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Document is the serializable form of a snapshot, published to the catalog
// repository after admin edits.
type Document struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Products    []models.Product       `json:"products"`
	Tiers       []models.Tier          `json:"tiers"`
	Zones       []models.ShippingZone  `json:"zones"`
	Regions     map[string]string      `json:"regions"`
}

// Document exports the snapshot for publishing.
func (s *Snapshot) Document() Document {
	regions := make(map[string]string, len(s.regions))
	for code, zone := range s.regions {
		regions[code] = zone
	}
	return Document{
		GeneratedAt: s.loadedAt,
		Products:    s.productList,
		Tiers:       s.tiers,
		Zones:       s.zoneList,
		Regions:     regions,
	}
}
