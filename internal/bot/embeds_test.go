package bot

import (
	"strings"
	"testing"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
)

func intPtr(v int64) *int64 { return &v }

func phasePtr(p housing.LottoPhase) *housing.LottoPhase { return &p }

func TestFormatGil(t *testing.T) {
	tests := []struct {
		price int64
		want  string
	}{
		{500000, "500,000 gil"},
		{2500000, "2.5M gil"},
		{999999, "999,999 gil"},
		{1000000, "1.0M gil"},
		{3187500, "3.2M gil"},
		{512, "512 gil"},
		{0, "0 gil"},
	}
	for _, tt := range tests {
		if got := formatGil(tt.price); got != tt.want {
			t.Errorf("formatGil(%d) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestListingField(t *testing.T) {
	// One small lottery plot in Mist: 0-based wire numbers 4/1 arrive
	// here already converted to ward 5, plot 2.
	l := housing.Listing{
		World:          "behemoth",
		District:       housing.Mist,
		Ward:           5,
		Plot:           2,
		Size:           housing.SizeSmall,
		Price:          500000,
		PurchaseSystem: housing.PurchaseSystemLottery,
		LottoEntries:   intPtr(12),
		LottoPhase:     phasePtr(housing.PhaseAvailable),
	}

	if got := fieldName(l); got != "Ward 5 • Plot 2" {
		t.Errorf("fieldName = %q, want %q", got, "Ward 5 • Plot 2")
	}

	value := fieldValue(l)
	for _, want := range []string{"Small", "500,000 gil", "Entries: 12", "Available"} {
		if !strings.Contains(value, want) {
			t.Errorf("fieldValue missing %q:\n%s", want, value)
		}
	}
	if strings.Contains(value, "Until:") {
		t.Errorf("fieldValue should omit the deadline when absent:\n%s", value)
	}
}

func TestFieldValue_MissingOptionals(t *testing.T) {
	l := housing.Listing{
		World:          "behemoth",
		District:       housing.Goblet,
		Ward:           1,
		Plot:           1,
		Size:           housing.SizeLarge,
		Price:          2500000,
		PurchaseSystem: housing.PurchaseSystemLottery,
	}

	value := fieldValue(l)
	if !strings.Contains(value, "Entries: ?") {
		t.Errorf("missing entries should render as ?:\n%s", value)
	}
	if !strings.Contains(value, "Unknown") {
		t.Errorf("missing phase should render as Unknown:\n%s", value)
	}
	if !strings.Contains(value, "2.5M gil") {
		t.Errorf("price should render shortened:\n%s", value)
	}
}

func TestDistrictEmbed(t *testing.T) {
	group := housing.DistrictGroup{
		District: housing.Mist,
		Listings: []housing.Listing{
			{
				World: "behemoth", District: housing.Mist, Ward: 5, Plot: 2,
				Size: housing.SizeSmall, Price: 500000,
				PurchaseSystem: housing.PurchaseSystemLottery,
			},
			{
				World: "behemoth", District: housing.Mist, Ward: 7, Plot: 9,
				Size: housing.SizeLarge, Price: 40000000,
				PurchaseSystem: housing.PurchaseSystemLottery,
			},
		},
	}

	embed := districtEmbed("behemoth", group)
	if !strings.Contains(embed.Title, "Mist") {
		t.Errorf("title = %q, want district name", embed.Title)
	}
	if !strings.Contains(embed.Description, "Behemoth") {
		t.Errorf("description = %q, want capitalized world", embed.Description)
	}
	// One field per listing plus the distribution field.
	if len(embed.Fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(embed.Fields))
	}
	if embed.Fields[0].Name != "Ward 5 • Plot 2" {
		t.Errorf("field 0 = %q", embed.Fields[0].Name)
	}
	if !strings.Contains(embed.Footer.Text, "2") {
		t.Errorf("footer = %q, want plot count", embed.Footer.Text)
	}
}

func TestSubscribeRows_CapsAtComponentLimit(t *testing.T) {
	listings := make([]housing.Listing, 30)
	for i := range listings {
		listings[i] = housing.Listing{
			World: "behemoth", District: housing.Mist, Ward: i + 1, Plot: 1,
			Size: housing.SizeSmall, Price: 500000,
			PurchaseSystem: housing.PurchaseSystemLottery,
		}
	}

	rows := subscribeRows(listings)
	if len(rows) != 5 {
		t.Errorf("got %d rows, want 5", len(rows))
	}
}
