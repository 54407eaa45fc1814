package housing

import "sort"

// LotteryOnly keeps only plots sold through the lottery system. This
// filter is fixed: both the on-demand query path and the channel
// reconciliation path apply it before anything is displayed or diffed.
func LotteryOnly(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.PurchaseSystem == PurchaseSystemLottery {
			out = append(out, l)
		}
	}
	return out
}

// Filter applies the optional size and district filters. Size matching
// is exact; district matching is a case-insensitive substring check
// against the canonical district name.
func Filter(listings []Listing, size *HouseSize, district string) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if size != nil && l.Size != *size {
			continue
		}
		if !l.District.Matches(district) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// DistrictGroup is the set of listings for one district, sorted for
// display.
type DistrictGroup struct {
	District District
	Listings []Listing
}

// GroupByDistrict splits listings into per-district groups. Groups
// follow the fixed district order; listings within a group are sorted
// by size (Small < Medium < Large), then price ascending.
func GroupByDistrict(listings []Listing) []DistrictGroup {
	byDistrict := make(map[District][]Listing)
	for _, l := range listings {
		byDistrict[l.District] = append(byDistrict[l.District], l)
	}

	groups := make([]DistrictGroup, 0, len(byDistrict))
	for _, d := range Districts {
		ls, ok := byDistrict[d]
		if !ok {
			continue
		}
		sort.SliceStable(ls, func(i, j int) bool {
			if ls[i].Size != ls[j].Size {
				return ls[i].Size < ls[j].Size
			}
			return ls[i].Price < ls[j].Price
		})
		groups = append(groups, DistrictGroup{District: d, Listings: ls})
	}
	return groups
}

// CountBySize tallies a district group by plot size.
func CountBySize(listings []Listing) map[HouseSize]int {
	counts := make(map[HouseSize]int)
	for _, l := range listings {
		counts[l.Size]++
	}
	return counts
}
