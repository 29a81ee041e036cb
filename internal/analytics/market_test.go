package analytics

import (
	"testing"

	"github.com/kjannette/mindful-trader/internal/models"
)

func TestParseSectorFromContext(t *testing.T) {
	cases := []struct {
		in   *string
		want *string
	}{
		{ptr("Tech sector showing strength"), ptr("technology")},
		{ptr("Healthcare looking bullish"), ptr("healthcare")},
		{ptr("Financial sector weakness"), ptr("financial")},
		{ptr("REIT rally"), ptr("real estate")},
		{ptr("Crypto miners ripping"), ptr("crypto")},
		{ptr("ev names"), nil},
		{ptr("éé momentum"), nil},
		{ptr("Ölü names"), ptr("ölü")},
		{ptr("   "), nil},
		{nil, nil},
	}
	for _, c := range cases {
		got := ParseSectorFromContext(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Fatalf("%v: expected nil, got %q", *c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Fatalf("%q: expected %q, got %v", *c.in, *c.want, got)
		}
	}
}

func TestSectorVocabulary_OrderWins(t *testing.T) {
	// "media" (communication) appears after "software" (technology) in the vocabulary.
	v := DefaultSectorVocabulary()
	if got, _ := v.Parse("social media software"); got != "technology" {
		t.Fatalf("expected technology, got %s", got)
	}
}

func TestParseSectorVocabulary(t *testing.T) {
	yml := []byte(`
sectors:
  - name: crypto
    keywords: [Bitcoin, miners]
  - name: technology
    keywords: [tech]
`)
	v, err := ParseSectorVocabulary(yml)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.Parse("Bitcoin miners strong"); !ok || got != "crypto" {
		t.Fatalf("expected crypto, got %q", got)
	}
	if _, err := ParseSectorVocabulary([]byte("sectors: []")); err == nil {
		t.Fatal("expected error for empty vocabulary")
	}
}

func TestConditionMetricsFor(t *testing.T) {
	m := ConditionMetricsFor([]float64{10, 20})
	if m.ProfitFactor != ProfitFactorSentinel {
		t.Fatalf("expected sentinel %v, got %v", ProfitFactorSentinel, m.ProfitFactor)
	}
	if m.WinRate != 100 || m.AvgPnL != 15 || m.TradeCount != 2 || m.TotalPnL != 30 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if z := ConditionMetricsFor(nil); z != (ConditionMetrics{}) {
		t.Fatalf("expected zero metrics, got %+v", z)
	}
	if m := ConditionMetricsFor([]float64{10, -30, 5}); m.ProfitFactor != 0.5 || m.WinRate != 66.67 {
		t.Fatalf("expected pf 0.5 / wr 66.67, got %v / %v", m.ProfitFactor, m.WinRate)
	}
}

func TestConditionScore(t *testing.T) {
	if got := ConditionScore(ConditionMetrics{}); got != 0 {
		t.Fatalf("expected 0 for empty, got %v", got)
	}
	// Profit factor capped at 100 after scaling.
	got := ConditionScore(ConditionMetrics{WinRate: 60, ProfitFactor: ProfitFactorSentinel, TradeCount: 3})
	if got != 80 {
		t.Fatalf("expected 80, got %v", got)
	}
}

func TestCorrelate(t *testing.T) {
	up, down, choppy := models.Uptrend, models.Downtrend, models.Choppy
	trades := []models.Trade{
		journaledTrade(100, journalOpts{trend: &up, sector: ptr("Tech leading")}),
		journaledTrade(50, journalOpts{trend: &up, sector: ptr("semiconductor strength")}),
		journaledTrade(-40, journalOpts{trend: &down, sector: ptr("Oil weak")}),
		journaledTrade(10, journalOpts{trend: &down, sector: ptr("Energy bid")}),
		journaledTrade(-5, journalOpts{trend: &choppy}),
		journaledTrade(999, journalOpts{}), // no context at all
		closedTrade(500, "2024-01-01"),     // no journal
	}
	c := NewMarketCorrelator(DefaultSectorVocabulary())
	got := c.Correlate(trades, GroupByBoth)

	if got.SPYTrending.Uptrend.TradeCount != 2 || got.SPYTrending.Uptrend.WinRate != 100 {
		t.Fatalf("unexpected uptrend %+v", got.SPYTrending.Uptrend)
	}
	if got.SPYTrending.Downtrend.TradeCount != 2 || got.SPYTrending.Downtrend.ProfitFactor != 0.25 {
		t.Fatalf("unexpected downtrend %+v", got.SPYTrending.Downtrend)
	}
	if got.SPYTrending.Sideways.TradeCount != 0 {
		t.Fatal("sideways should be empty")
	}
	if got.SPYTrending.Choppy == nil || got.SPYTrending.Choppy.TradeCount != 1 {
		t.Fatal("choppy should be reported when present")
	}
	if got.Summary.BestSPYCondition != "uptrend" || got.Summary.WorstSPYCondition != "choppy" {
		t.Fatalf("unexpected spy summary %+v", got.Summary)
	}

	if len(got.Sectors) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(got.Sectors))
	}
	if got.Sectors[0].Sector != "technology" || got.Sectors[1].Sector != "energy" {
		t.Fatalf("expected technology then energy, got %s, %s", got.Sectors[0].Sector, got.Sectors[1].Sector)
	}
	if got.Summary.BestSector != "technology" || got.Summary.WorstSector != "energy" {
		t.Fatalf("unexpected sector summary %+v", got.Summary)
	}
}

func TestCorrelate_GroupBy(t *testing.T) {
	up := models.Uptrend
	trades := []models.Trade{journaledTrade(10, journalOpts{trend: &up, sector: ptr("bank earnings")})}
	c := NewMarketCorrelator(DefaultSectorVocabulary())

	spyOnly := c.Correlate(trades, GroupBySPYTrend)
	if len(spyOnly.Sectors) != 0 || spyOnly.SPYTrending.Uptrend.TradeCount != 1 {
		t.Fatalf("spy_trend grouping leaked sectors: %+v", spyOnly)
	}
	sectorOnly := c.Correlate(trades, GroupBySector)
	if len(sectorOnly.Sectors) != 1 || sectorOnly.SPYTrending.Uptrend.TradeCount != 0 {
		t.Fatalf("sector grouping leaked trends: %+v", sectorOnly)
	}
	if sectorOnly.Summary.BestSPYCondition != "N/A" {
		t.Fatalf("expected N/A, got %s", sectorOnly.Summary.BestSPYCondition)
	}
}

func TestCorrelate_Empty(t *testing.T) {
	got := NewMarketCorrelator(DefaultSectorVocabulary()).Correlate(nil, GroupByBoth)
	if got.Summary != (MarketSummary{"N/A", "N/A", "N/A", "N/A"}) {
		t.Fatalf("expected all N/A, got %+v", got.Summary)
	}
	if got.Sectors == nil {
		t.Fatal("sectors should be an empty slice")
	}
}

func TestParseGroupBy(t *testing.T) {
	if g, err := ParseGroupBy(""); err != nil || g != GroupByBoth {
		t.Fatalf("expected default both, got %q %v", g, err)
	}
	if _, err := ParseGroupBy("ticker"); err == nil {
		t.Fatal("expected error for unknown groupBy")
	}
}
