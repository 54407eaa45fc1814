package housing

import "strings"

// PurchaseSystemLottery is the PaissaDB tag for plots sold through the
// lottery system. Only lottery plots are ever displayed or tracked.
const PurchaseSystemLottery = 7

// District identifies a residential district. Values are the PaissaDB
// district ids so API responses map directly.
type District int

const (
	Mist         District = 339
	LavenderBeds District = 340
	Goblet       District = 341
	Shirogane    District = 641
	Empyreum     District = 979
)

// Districts lists all known districts in display order.
var Districts = []District{Mist, LavenderBeds, Goblet, Shirogane, Empyreum}

var districtNames = map[District]string{
	Mist:         "Mist",
	LavenderBeds: "The Lavender Beds",
	Goblet:       "The Goblet",
	Shirogane:    "Shirogane",
	Empyreum:     "Empyreum",
}

// Name returns the canonical district name.
func (d District) Name() string {
	if name, ok := districtNames[d]; ok {
		return name
	}
	return "Unknown"
}

// DistrictByID maps a PaissaDB district id to a District.
func DistrictByID(id int) (District, bool) {
	d := District(id)
	_, ok := districtNames[d]
	return d, ok
}

// Matches reports whether the filter string matches the district.
// Matching is a case-insensitive substring check against the canonical
// name, so "lavender" matches "The Lavender Beds". An empty filter
// matches everything.
func (d District) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name()), strings.ToLower(filter))
}

// HouseSize is the plot size. Values are the PaissaDB size codes and
// define the sort order: Small < Medium < Large.
type HouseSize int

const (
	SizeSmall HouseSize = iota
	SizeMedium
	SizeLarge
)

var sizeNames = map[HouseSize]string{
	SizeSmall:  "Small",
	SizeMedium: "Medium",
	SizeLarge:  "Large",
}

// Name returns the display name of the size.
func (s HouseSize) Name() string {
	if name, ok := sizeNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseSize maps a user-supplied size string to a HouseSize.
func ParseSize(input string) (HouseSize, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "small":
		return SizeSmall, true
	case "medium":
		return SizeMedium, true
	case "large":
		return SizeLarge, true
	}
	return 0, false
}

// LottoPhase is the current phase of a plot's lottery cycle.
type LottoPhase int

const (
	PhaseAvailable   LottoPhase = 1
	PhaseResults     LottoPhase = 2
	PhaseUnavailable LottoPhase = 3
)

// Label returns the display label for the phase.
func (p LottoPhase) Label() string {
	switch p {
	case PhaseAvailable:
		return "Available"
	case PhaseResults:
		return "Results"
	case PhaseUnavailable:
		return "Unavailable"
	}
	return "Unknown"
}

// Listing is one purchasable plot as observed in a single fetch.
type Listing struct {
	World          string
	District       District
	Ward           int // 1-based
	Plot           int // 1-based
	Size           HouseSize
	Price          int64
	PurchaseSystem int
	LottoEntries   *int64
	LottoPhase     *LottoPhase
	PhaseUntil     *int64 // unix seconds, optional
}

// Key returns the stable identity of the listing, used for diffing
// across fetches.
func (l Listing) Key() PlotKey {
	return PlotKey{World: l.World, District: l.District, Ward: l.Ward, Plot: l.Plot}
}

// Status returns the listing's current lottery status triple.
func (l Listing) Status() PlotStatus {
	return PlotStatus{Phase: l.LottoPhase, Entries: l.LottoEntries, PhaseUntil: l.PhaseUntil}
}

// PlotKey identifies a plot across fetches: (world, district, ward, plot).
type PlotKey struct {
	World    string
	District District
	Ward     int
	Plot     int
}

// PlotStatus is the observed lottery state of a plot. Two statuses are
// equal when all three components match, treating absent values as
// distinct from any present value.
type PlotStatus struct {
	Phase      *LottoPhase
	Entries    *int64
	PhaseUntil *int64
}

// Equal reports whether two statuses are the same.
func (s PlotStatus) Equal(o PlotStatus) bool {
	if !eqPhase(s.Phase, o.Phase) {
		return false
	}
	if !eqInt64(s.Entries, o.Entries) {
		return false
	}
	return eqInt64(s.PhaseUntil, o.PhaseUntil)
}

func eqPhase(a, b *LottoPhase) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
