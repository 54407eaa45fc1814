package bot

import (
	"testing"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
)

func TestSubscribeID_RoundTrip(t *testing.T) {
	l := housing.Listing{
		World:          "behemoth",
		District:       housing.LavenderBeds,
		Ward:           12,
		Plot:           30,
		Size:           housing.SizeMedium,
		Price:          16000000,
		PurchaseSystem: housing.PurchaseSystemLottery,
		LottoEntries:   intPtr(7),
		LottoPhase:     phasePtr(housing.PhaseResults),
		PhaseUntil:     intPtr(1700000000),
	}

	id := encodeSubscribeID(l)
	if len(id) > 100 {
		t.Fatalf("custom id is %d chars, Discord caps them at 100", len(id))
	}

	key, status, err := decodeSubscribeID(id)
	if err != nil {
		t.Fatalf("decodeSubscribeID: %v", err)
	}
	if key != l.Key() {
		t.Errorf("key = %+v, want %+v", key, l.Key())
	}
	if !status.Equal(l.Status()) {
		t.Errorf("status = %+v, want %+v", status, l.Status())
	}
}

func TestSubscribeID_AbsentOptionals(t *testing.T) {
	l := housing.Listing{
		World:          "behemoth",
		District:       housing.Mist,
		Ward:           5,
		Plot:           2,
		Size:           housing.SizeSmall,
		Price:          500000,
		PurchaseSystem: housing.PurchaseSystemLottery,
	}

	key, status, err := decodeSubscribeID(encodeSubscribeID(l))
	if err != nil {
		t.Fatalf("decodeSubscribeID: %v", err)
	}
	if key != l.Key() {
		t.Errorf("key = %+v, want %+v", key, l.Key())
	}
	if status.Phase != nil || status.Entries != nil || status.PhaseUntil != nil {
		t.Errorf("status = %+v, want all absent", status)
	}
}

func TestDecodeSubscribeID_Malformed(t *testing.T) {
	bad := []string{
		"",
		"housing-sub",
		"housing-sub|behemoth|339|5",
		"other|behemoth|339|5|2|-|-|-",
		"housing-sub|behemoth|123|5|2|-|-|-", // unknown district
		"housing-sub|behemoth|339|x|2|-|-|-",
	}
	for _, id := range bad {
		if _, _, err := decodeSubscribeID(id); err == nil {
			t.Errorf("decodeSubscribeID(%q) should fail", id)
		}
	}
}
