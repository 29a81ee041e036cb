package csvimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/kjannette/mindful-trader/internal/models"
)

const tagSeparator = "|"

// CanonicalRecord is the export row: a trade with its journals flattened.
// Optional values are empty strings.
type CanonicalRecord struct {
	ID          string `csv:"id"`
	Ticker      string `csv:"ticker"`
	Direction   string `csv:"direction"`
	EntryDate   string `csv:"entry_date"`
	ExitDate    string `csv:"exit_date"`
	EntryPrice  string `csv:"entry_price"`
	ExitPrice   string `csv:"exit_price"`
	Quantity    int    `csv:"quantity"`
	Commissions string `csv:"commissions"`
	NetPnL      string `csv:"net_pnl"`
	ActualRR    string `csv:"actual_rr"`
	DayOfWeek   string `csv:"day_of_week"`
	HourOfDay   string `csv:"hour_of_day"`
	Strategy    string `csv:"strategy"`

	HasPreJournal   string `csv:"has_pre_journal"`
	PreEmotions     string `csv:"pre_emotions"`
	EmotionalScore  string `csv:"emotional_score"`
	SetupQuality    string `csv:"setup_quality"`
	MarketBias      string `csv:"market_bias"`
	SPYTrend        string `csv:"spy_trend"`
	SectorContext   string `csv:"sector_context"`
	PlannedEntry    string `csv:"planned_entry"`
	PlannedStopLoss string `csv:"planned_stop_loss"`
	PlannedTarget   string `csv:"planned_target"`
	Thesis          string `csv:"thesis"`

	HasPostJournal     string `csv:"has_post_journal"`
	PostEmotions       string `csv:"post_emotions"`
	PostEmotionalScore string `csv:"post_emotional_score"`
	FollowedPlan       string `csv:"followed_plan"`
	RuleViolations     string `csv:"rule_violations"`
	WhatWentWell       string `csv:"what_went_well"`
	WhatWentWrong      string `csv:"what_went_wrong"`
	LessonsLearned     string `csv:"lessons_learned"`
	WouldRepeat        string `csv:"would_repeat"`
}

func fmtFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func fmtInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func fmtBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func fmtStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toRecord(t models.Trade) CanonicalRecord {
	r := CanonicalRecord{
		ID:          t.ID.String(),
		Ticker:      t.Ticker,
		Direction:   string(t.Direction),
		EntryDate:   t.EntryDate.UTC().Format(time.RFC3339),
		EntryPrice:  strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
		ExitPrice:   fmtFloat(t.ExitPrice),
		Quantity:    t.Quantity,
		Commissions: strconv.FormatFloat(t.Commissions, 'f', -1, 64),
		NetPnL:      fmtFloat(t.NetPnL),
		ActualRR:    fmtFloat(t.ActualRR),
		DayOfWeek:   fmtInt(t.DayOfWeek),
		HourOfDay:   fmtInt(t.HourOfDay),
	}
	if t.ExitDate != nil {
		r.ExitDate = t.ExitDate.UTC().Format(time.RFC3339)
	}
	if t.StrategyName != nil {
		r.Strategy = *t.StrategyName
	}
	r.HasPreJournal = strconv.FormatBool(t.Pre != nil)
	if pre := t.Pre; pre != nil {
		r.PreEmotions = strings.Join(pre.EmotionalState, tagSeparator)
		r.EmotionalScore = fmtInt(pre.EmotionalScore)
		r.SetupQuality = fmtInt(pre.SetupQuality)
		r.MarketBias = fmtStr(pre.MarketBias)
		if pre.SPYTrend != nil {
			r.SPYTrend = string(*pre.SPYTrend)
		}
		r.SectorContext = fmtStr(pre.SectorContext)
		r.PlannedEntry = fmtFloat(pre.PlannedEntry)
		r.PlannedStopLoss = fmtFloat(pre.PlannedStopLoss)
		r.PlannedTarget = fmtFloat(pre.PlannedTarget)
		r.Thesis = fmtStr(pre.Thesis)
	}
	r.HasPostJournal = strconv.FormatBool(t.Post != nil)
	if post := t.Post; post != nil {
		r.PostEmotions = strings.Join(post.EmotionalState, tagSeparator)
		r.PostEmotionalScore = fmtInt(post.EmotionalScore)
		r.FollowedPlan = fmtBool(post.FollowedPlan)
		r.RuleViolations = strings.Join(post.RuleViolations, tagSeparator)
		r.WhatWentWell = fmtStr(post.WhatWentWell)
		r.WhatWentWrong = fmtStr(post.WhatWentWrong)
		r.LessonsLearned = fmtStr(post.LessonsLearned)
		r.WouldRepeat = fmtBool(post.WouldRepeat)
	}
	return r
}

// WriteCanonical exports trades in the canonical CSV layout.
func WriteCanonical(w io.Writer, trades []models.Trade) error {
	records := make([]*CanonicalRecord, len(trades))
	for i, t := range trades {
		r := toRecord(t)
		records[i] = &r
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("write canonical csv: %w", err)
	}
	return nil
}

// ReadCanonical loads a canonical export back into trades with their journals,
// for offline reporting. Journals exist only where journal columns are filled.
func ReadCanonical(r io.Reader) ([]models.Trade, error) {
	var records []*CanonicalRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("read canonical csv: %w", err)
	}
	trades := make([]models.Trade, 0, len(records))
	for i, rec := range records {
		t, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

type fieldParser struct {
	err error
}

func (p *fieldParser) floatPtr(name, s string) *float64 {
	if s == "" || p.err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
		return nil
	}
	return &f
}

func (p *fieldParser) intPtr(name, s string) *int {
	if s == "" || p.err != nil {
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
		return nil
	}
	return &i
}

func (p *fieldParser) timePtr(name, s string) *time.Time {
	if s == "" || p.err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
		return nil
	}
	return &t
}

func (p *fieldParser) boolPtr(name, s string) *bool {
	if s == "" || p.err != nil {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
		return nil
	}
	return &b
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// present reads a has_*_journal flag. Exports without the column fall back
// to whether any of the journal's columns are filled.
func (p *fieldParser) present(name, flag string, cols ...string) bool {
	if b := p.boolPtr(name, flag); b != nil {
		return *b
	}
	for _, c := range cols {
		if c != "" {
			return true
		}
	}
	return false
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, tagSeparator)
}

func fromRecord(rec *CanonicalRecord) (models.Trade, error) {
	var p fieldParser
	t := models.Trade{
		Ticker:    rec.Ticker,
		Direction: models.Direction(rec.Direction),
		Quantity:  rec.Quantity,
		ExitDate:  p.timePtr("exit_date", rec.ExitDate),
		ExitPrice: p.floatPtr("exit_price", rec.ExitPrice),
		NetPnL:    p.floatPtr("net_pnl", rec.NetPnL),
		ActualRR:  p.floatPtr("actual_rr", rec.ActualRR),
		DayOfWeek: p.intPtr("day_of_week", rec.DayOfWeek),
		HourOfDay: p.intPtr("hour_of_day", rec.HourOfDay),
	}
	if rec.ID != "" {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return t, fmt.Errorf("id: %w", err)
		}
		t.ID = id
	}
	if e := p.timePtr("entry_date", rec.EntryDate); e != nil {
		t.EntryDate = *e
	}
	if f := p.floatPtr("entry_price", rec.EntryPrice); f != nil {
		t.EntryPrice = *f
	}
	if f := p.floatPtr("commissions", rec.Commissions); f != nil {
		t.Commissions = *f
	}
	if rec.Strategy != "" {
		s := rec.Strategy
		t.StrategyName = &s
	}

	if p.present("has_pre_journal", rec.HasPreJournal, rec.PreEmotions, rec.EmotionalScore, rec.SetupQuality,
		rec.MarketBias, rec.SPYTrend, rec.SectorContext, rec.PlannedEntry, rec.PlannedStopLoss, rec.PlannedTarget, rec.Thesis) {
		pre := &models.PreTradeJournal{
			EmotionalState:  splitTags(rec.PreEmotions),
			EmotionalScore:  p.intPtr("emotional_score", rec.EmotionalScore),
			SetupQuality:    p.intPtr("setup_quality", rec.SetupQuality),
			MarketBias:      strPtr(rec.MarketBias),
			SectorContext:   strPtr(rec.SectorContext),
			PlannedEntry:    p.floatPtr("planned_entry", rec.PlannedEntry),
			PlannedStopLoss: p.floatPtr("planned_stop_loss", rec.PlannedStopLoss),
			PlannedTarget:   p.floatPtr("planned_target", rec.PlannedTarget),
			Thesis:          strPtr(rec.Thesis),
		}
		if rec.SPYTrend != "" {
			trend := models.SPYTrend(rec.SPYTrend)
			pre.SPYTrend = &trend
		}
		t.Pre = pre
	}
	if p.present("has_post_journal", rec.HasPostJournal, rec.PostEmotions, rec.PostEmotionalScore, rec.FollowedPlan,
		rec.RuleViolations, rec.WhatWentWell, rec.WhatWentWrong, rec.LessonsLearned, rec.WouldRepeat) {
		t.Post = &models.PostTradeJournal{
			EmotionalState: splitTags(rec.PostEmotions),
			EmotionalScore: p.intPtr("post_emotional_score", rec.PostEmotionalScore),
			FollowedPlan:   p.boolPtr("followed_plan", rec.FollowedPlan),
			RuleViolations: splitTags(rec.RuleViolations),
			WhatWentWell:   strPtr(rec.WhatWentWell),
			WhatWentWrong:  strPtr(rec.WhatWentWrong),
			LessonsLearned: strPtr(rec.LessonsLearned),
			WouldRepeat:    p.boolPtr("would_repeat", rec.WouldRepeat),
		}
	}
	return t, p.err
}
