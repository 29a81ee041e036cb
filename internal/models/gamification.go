package models

import (
	"time"

	"github.com/google/uuid"
)

// Badge is an earned achievement, persisted as JSONB.
type Badge struct {
	Badge    string    `json:"badge"`
	EarnedAt time.Time `json:"earned_at"`
}

// Gamification is the per-user journaling streak record.
type Gamification struct {
	UserID                  uuid.UUID  `json:"userId"`
	CurrentJournalingStreak int        `json:"currentJournalingStreak"`
	LongestJournalingStreak int        `json:"longestJournalingStreak"`
	LastJournalDate         *time.Time `json:"lastJournalDate,omitempty"`
	TotalTradesLogged       int        `json:"totalTradesLogged"`
	TotalDaysJournaled      int        `json:"totalDaysJournaled"`
	Badges                  []Badge    `json:"badges"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}
