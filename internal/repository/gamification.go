package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/mindful-trader/internal/models"
)

type GamificationRepo struct {
	pool *pgxpool.Pool
}

func NewGamificationRepo(pool *pgxpool.Pool) *GamificationRepo {
	return &GamificationRepo{pool: pool}
}

// Get returns the user's record, creating an empty one on first use.
func (r *GamificationRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Gamification, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO gamification (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("init gamification: %w", err)
	}

	var g models.Gamification
	var badges []byte
	err = r.pool.QueryRow(ctx,
		`SELECT user_id, current_journaling_streak, longest_journaling_streak, last_journal_date,
		        total_trades_logged, total_days_journaled, badges, updated_at
		 FROM gamification WHERE user_id = $1`,
		userID,
	).Scan(
		&g.UserID, &g.CurrentJournalingStreak, &g.LongestJournalingStreak, &g.LastJournalDate,
		&g.TotalTradesLogged, &g.TotalDaysJournaled, &badges, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(badges, &g.Badges); err != nil {
		return nil, fmt.Errorf("decode badges: %w", err)
	}
	if g.Badges == nil {
		g.Badges = []models.Badge{}
	}
	return &g, nil
}

func (r *GamificationRepo) Save(ctx context.Context, g *models.Gamification) error {
	badges, err := json.Marshal(g.Badges)
	if err != nil {
		return err
	}
	if g.Badges == nil {
		badges = []byte("[]")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO gamification
		 (user_id, current_journaling_streak, longest_journaling_streak, last_journal_date,
		  total_trades_logged, total_days_journaled, badges, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (user_id) DO UPDATE SET
		  current_journaling_streak = EXCLUDED.current_journaling_streak,
		  longest_journaling_streak = EXCLUDED.longest_journaling_streak,
		  last_journal_date = EXCLUDED.last_journal_date,
		  total_trades_logged = EXCLUDED.total_trades_logged,
		  total_days_journaled = EXCLUDED.total_days_journaled,
		  badges = EXCLUDED.badges,
		  updated_at = EXCLUDED.updated_at`,
		g.UserID, g.CurrentJournalingStreak, g.LongestJournalingStreak, g.LastJournalDate,
		g.TotalTradesLogged, g.TotalDaysJournaled, string(badges), g.UpdatedAt,
	)
	return err
}
