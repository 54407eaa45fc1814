package housing

import "testing"

func intPtr(v int64) *int64 { return &v }

func phasePtr(p LottoPhase) *LottoPhase { return &p }

func lottery(district District, ward, plot int, size HouseSize, price int64) Listing {
	return Listing{
		World:          "behemoth",
		District:       district,
		Ward:           ward,
		Plot:           plot,
		Size:           size,
		Price:          price,
		PurchaseSystem: PurchaseSystemLottery,
	}
}

func TestLotteryOnly(t *testing.T) {
	firstCome := lottery(Mist, 1, 1, SizeSmall, 500000)
	firstCome.PurchaseSystem = 1

	in := []Listing{
		lottery(Mist, 2, 3, SizeSmall, 500000),
		firstCome,
		lottery(Goblet, 4, 5, SizeLarge, 40000000),
	}

	out := LotteryOnly(in)
	if len(out) != 2 {
		t.Fatalf("LotteryOnly returned %d listings, want 2", len(out))
	}
	for _, l := range out {
		if l.PurchaseSystem != PurchaseSystemLottery {
			t.Errorf("non-lottery listing passed the filter: %+v", l)
		}
	}
}

func TestFilter_SizeExact(t *testing.T) {
	in := []Listing{
		lottery(Mist, 1, 1, SizeSmall, 500000),
		lottery(Mist, 1, 2, SizeMedium, 16000000),
		lottery(Mist, 1, 3, SizeLarge, 40000000),
	}

	size := SizeMedium
	out := Filter(in, &size, "")
	if len(out) != 1 {
		t.Fatalf("Filter returned %d listings, want 1", len(out))
	}
	if out[0].Size != SizeMedium {
		t.Errorf("Size = %v, want Medium", out[0].Size)
	}
}

func TestFilter_DistrictSubstring(t *testing.T) {
	in := []Listing{
		lottery(LavenderBeds, 1, 1, SizeSmall, 500000),
		lottery(Mist, 1, 2, SizeSmall, 500000),
		lottery(Shirogane, 1, 3, SizeSmall, 500000),
	}

	// Case-insensitive substring against the canonical name.
	out := Filter(in, nil, "LAVENDER")
	if len(out) != 1 {
		t.Fatalf("Filter returned %d listings, want 1", len(out))
	}
	if out[0].District != LavenderBeds {
		t.Errorf("District = %v, want The Lavender Beds", out[0].District)
	}

	// Empty filter matches everything.
	if got := len(Filter(in, nil, "")); got != 3 {
		t.Errorf("empty district filter kept %d listings, want 3", got)
	}
}

func TestGroupByDistrict_SortOrder(t *testing.T) {
	in := []Listing{
		lottery(Mist, 1, 1, SizeLarge, 40000000),
		lottery(Mist, 1, 2, SizeSmall, 800000),
		lottery(Mist, 1, 3, SizeSmall, 500000),
		lottery(Mist, 1, 4, SizeMedium, 16000000),
		lottery(Mist, 1, 5, SizeMedium, 10000000),
	}

	groups := GroupByDistrict(in)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	ls := groups[0].Listings
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		if a.Size > b.Size {
			t.Errorf("listing %d: size %v sorted after %v", i, a.Size, b.Size)
		}
		if a.Size == b.Size && a.Price > b.Price {
			t.Errorf("listing %d: price %d sorted after %d within size %v", i, a.Price, b.Price, a.Size)
		}
	}
}

func TestGroupByDistrict_GroupsFollowDistrictOrder(t *testing.T) {
	in := []Listing{
		lottery(Empyreum, 1, 1, SizeSmall, 500000),
		lottery(Mist, 1, 2, SizeSmall, 500000),
		lottery(Goblet, 1, 3, SizeSmall, 500000),
	}

	groups := GroupByDistrict(in)
	want := []District{Mist, Goblet, Empyreum}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, g := range groups {
		if g.District != want[i] {
			t.Errorf("group %d = %s, want %s", i, g.District.Name(), want[i].Name())
		}
	}
}

func TestCountBySize(t *testing.T) {
	in := []Listing{
		lottery(Mist, 1, 1, SizeSmall, 500000),
		lottery(Mist, 1, 2, SizeSmall, 600000),
		lottery(Mist, 1, 3, SizeLarge, 40000000),
	}

	counts := CountBySize(in)
	if counts[SizeSmall] != 2 || counts[SizeMedium] != 0 || counts[SizeLarge] != 1 {
		t.Errorf("CountBySize = %v, want 2 small, 0 medium, 1 large", counts)
	}
}
