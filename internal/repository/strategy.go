package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/mindful-trader/internal/models"
)

type StrategyRepo struct {
	pool *pgxpool.Pool
}

func NewStrategyRepo(pool *pgxpool.Pool) *StrategyRepo {
	return &StrategyRepo{pool: pool}
}

const strategyColumns = `id, user_id, name, description, rules, created_at, updated_at`

func (r *StrategyRepo) List(ctx context.Context, userID uuid.UUID) ([]models.Strategy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+strategyColumns+` FROM strategies WHERE user_id = $1 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrategies(rows)
}

func (r *StrategyRepo) Create(ctx context.Context, userID uuid.UUID, in models.StrategyInput) (*models.Strategy, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO strategies (id, user_id, name, description, rules)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING `+strategyColumns,
		uuid.New(), userID, strings.TrimSpace(in.Name), in.Description, in.Rules,
	)
	return scanStrategy(row)
}

func (r *StrategyRepo) Update(ctx context.Context, userID, id uuid.UUID, in models.StrategyInput) (*models.Strategy, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE strategies SET name = $3, description = $4, rules = $5, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+strategyColumns,
		id, userID, strings.TrimSpace(in.Name), in.Description, in.Rules,
	)
	s, err := scanStrategy(row)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Delete removes a strategy. Journals that referenced it keep their trades
// and fall back to "Unassigned" in the strategy breakdown.
func (r *StrategyRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM strategies WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStrategy(row scannable) (*models.Strategy, error) {
	var s models.Strategy
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Rules, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStrategies(rows rowsIter) ([]models.Strategy, error) {
	out := []models.Strategy{}
	for rows.Next() {
		var s models.Strategy
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Rules, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
