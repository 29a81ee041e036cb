package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type SPYTrend string

const (
	Uptrend   SPYTrend = "uptrend"
	Downtrend SPYTrend = "downtrend"
	Sideways  SPYTrend = "sideways"
	Choppy    SPYTrend = "choppy"
)

var SPYTrends = []SPYTrend{Uptrend, Downtrend, Sideways, Choppy}

func (s SPYTrend) Valid() bool {
	return slices.Contains(SPYTrends, s)
}

// Emotion tags are matched case-sensitively, as journaled.
const (
	EmotionFOMO    = "FOMO"
	EmotionRevenge = "revenge"
)

var PreTradeEmotions = []string{"confident", "anxious", "neutral", EmotionFOMO, EmotionRevenge, "overconfident"}

var PostTradeEmotions = []string{"relieved", "regret", "validated", "frustrated", "proud", "disappointed"}

var RuleViolations = []string{
	"moved_stop_loss",
	"oversized_position",
	"exited_early",
	"no_stop_loss",
	"revenge_trade",
	"overtrading",
}

var MarketBiases = []string{"bullish", "bearish", "neutral", "choppy"}

const maxJournalText = 2000

type PreTradeJournal struct {
	ID              uuid.UUID  `json:"id"`
	TradeID         uuid.UUID  `json:"tradeId"`
	EmotionalState  []string   `json:"emotionalState"`
	EmotionalScore  *int       `json:"emotionalScore,omitempty"`
	SetupQuality    *int       `json:"setupQuality,omitempty"`
	MarketBias      *string    `json:"marketBias,omitempty"`
	SPYTrend        *SPYTrend  `json:"spyTrend,omitempty"`
	SectorContext   *string    `json:"sectorContext,omitempty"`
	StrategyID      *uuid.UUID `json:"strategyId,omitempty"`
	PlannedEntry    *float64   `json:"plannedEntry,omitempty"`
	PlannedStopLoss *float64   `json:"plannedStopLoss,omitempty"`
	PlannedTarget   *float64   `json:"plannedTarget,omitempty"`
	Thesis          *string    `json:"thesis,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (j *PreTradeJournal) HasEmotion(tag string) bool {
	return slices.Contains(j.EmotionalState, tag)
}

type PostTradeJournal struct {
	ID             uuid.UUID `json:"id"`
	TradeID        uuid.UUID `json:"tradeId"`
	EmotionalState []string  `json:"emotionalState"`
	EmotionalScore *int      `json:"emotionalScore,omitempty"`
	FollowedPlan   *bool     `json:"followedPlan,omitempty"`
	RuleViolations []string  `json:"ruleViolations"`
	WhatWentWell   *string   `json:"whatWentWell,omitempty"`
	WhatWentWrong  *string   `json:"whatWentWrong,omitempty"`
	LessonsLearned *string   `json:"lessonsLearned,omitempty"`
	WouldRepeat    *bool     `json:"wouldRepeat,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (j *PreTradeJournal) Validate() error {
	var errs ValidationErrors
	checkRange(&errs, "emotionalScore", j.EmotionalScore, 1, 10, "Emotional score must be between 1 and 10")
	checkRange(&errs, "setupQuality", j.SetupQuality, 1, 5, "Setup quality must be between 1 and 5")
	if j.MarketBias != nil && !slices.Contains(MarketBiases, *j.MarketBias) {
		errs.Add("marketBias", "Market bias must be bullish, bearish, neutral or choppy")
	}
	if j.SPYTrend != nil && !j.SPYTrend.Valid() {
		errs.Add("spyTrend", "SPY trend must be uptrend, downtrend, sideways or choppy")
	}
	checkPositive(&errs, "plannedEntry", j.PlannedEntry, "Planned entry must be positive")
	checkPositive(&errs, "plannedStopLoss", j.PlannedStopLoss, "Planned stop loss must be positive")
	checkPositive(&errs, "plannedTarget", j.PlannedTarget, "Planned target must be positive")
	checkText(&errs, "thesis", j.Thesis, "Thesis is too long")
	return errs.OrNil()
}

func (j *PostTradeJournal) Validate() error {
	var errs ValidationErrors
	checkRange(&errs, "emotionalScore", j.EmotionalScore, 1, 10, "Emotional score must be between 1 and 10")
	for _, v := range j.RuleViolations {
		if !slices.Contains(RuleViolations, v) {
			errs.Add("ruleViolations", "Unknown rule violation: "+v)
		}
	}
	checkText(&errs, "whatWentWell", j.WhatWentWell, "What went well is too long")
	checkText(&errs, "whatWentWrong", j.WhatWentWrong, "What went wrong is too long")
	checkText(&errs, "lessonsLearned", j.LessonsLearned, "Lessons learned is too long")
	return errs.OrNil()
}

func checkRange(errs *ValidationErrors, field string, v *int, lo, hi int, msg string) {
	if v != nil && (*v < lo || *v > hi) {
		errs.Add(field, msg)
	}
}

func checkPositive(errs *ValidationErrors, field string, v *float64, msg string) {
	if v != nil && *v <= 0 {
		errs.Add(field, msg)
	}
}

func checkText(errs *ValidationErrors, field string, v *string, msg string) {
	if v != nil && len(*v) > maxJournalText {
		errs.Add(field, msg)
	}
}
