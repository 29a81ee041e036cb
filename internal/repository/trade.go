package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/models"
	"github.com/kjannette/mindful-trader/internal/trace"
)

type TradeRepo struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewTradeRepo stores day and hour slots in loc.
func NewTradeRepo(pool *pgxpool.Pool, loc *time.Location) *TradeRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &TradeRepo{pool: pool, loc: loc}
}

// Each trade comes back with at most one journal of each kind; the unique
// trade_id constraints keep the joins one-to-one.
const tradeSelect = `SELECT
	t.id, t.user_id, t.ticker, t.direction, t.entry_date, t.exit_date,
	t.entry_price, t.exit_price, t.quantity, t.commissions, t.gross_pnl, t.net_pnl,
	t.return_percent, t.actual_rr, t.hold_duration_minutes, t.day_of_week, t.hour_of_day,
	t.notes, t.screenshot_url, t.imported_from_csv, t.created_at, t.updated_at,
	p.id, p.emotional_state, p.emotional_score, p.setup_quality, p.market_bias, p.spy_trend,
	p.sector_context, p.strategy_id, p.planned_entry, p.planned_stop_loss, p.planned_target,
	p.thesis, p.created_at,
	q.id, q.emotional_state, q.emotional_score, q.followed_plan, q.rule_violations,
	q.what_went_well, q.what_went_wrong, q.lessons_learned, q.would_repeat, q.created_at,
	s.name
FROM trades t
LEFT JOIN pre_trade_journals p ON p.trade_id = t.id
LEFT JOIN post_trade_journals q ON q.trade_id = t.id
LEFT JOIN strategies s ON s.id = p.strategy_id`

// Create inserts a trade and its optional journals in one transaction. Derived
// P&L and time-slot columns are computed here.
func (r *TradeRepo) Create(ctx context.Context, userID uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) (*models.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "repository.trades.create")
	var err error
	defer func() { trace.End(span, err) }()

	id := uuid.New()
	d := analytics.Derive(in, plannedStop(pre), r.loc)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO trades
		 (id, user_id, ticker, direction, entry_date, exit_date, entry_price, exit_price,
		  quantity, commissions, gross_pnl, net_pnl, return_percent, actual_rr,
		  hold_duration_minutes, day_of_week, hour_of_day, notes, screenshot_url, imported_from_csv)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		id, userID, in.Ticker, string(in.Direction), in.EntryDate, in.ExitDate, in.EntryPrice, in.ExitPrice,
		in.Quantity, in.Commissions, d.GrossPnL, d.NetPnL, d.ReturnPercent, d.ActualRR,
		d.HoldDurationMinutes, d.DayOfWeek, d.HourOfDay, in.Notes, in.ScreenshotURL, in.ImportedFromCSV,
	)
	if err != nil {
		err = fmt.Errorf("insert trade: %w", err)
		return nil, err
	}
	if err = saveJournals(ctx, tx, id, pre, post); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// CreateTrade stores a trade without journals, as CSV import does.
func (r *TradeRepo) CreateTrade(ctx context.Context, userID uuid.UUID, in models.TradeInput) (*models.Trade, error) {
	return r.Create(ctx, userID, in, nil, nil)
}

func (r *TradeRepo) Get(ctx context.Context, userID, id uuid.UUID) (*models.Trade, error) {
	row := r.pool.QueryRow(ctx, tradeSelect+` WHERE t.id = $1 AND t.user_id = $2`, id, userID)
	t, err := scanTrade(row)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// Update replaces the trade's writable fields and upserts any journal given.
// A nil journal leaves the stored one untouched.
func (r *TradeRepo) Update(ctx context.Context, userID, id uuid.UUID, in models.TradeInput, pre *models.PreTradeJournal, post *models.PostTradeJournal) (*models.Trade, error) {
	existing, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	stopFrom := pre
	if stopFrom == nil {
		stopFrom = existing.Pre
	}
	d := analytics.Derive(in, plannedStop(stopFrom), r.loc)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE trades SET
		  ticker = $3, direction = $4, entry_date = $5, exit_date = $6, entry_price = $7,
		  exit_price = $8, quantity = $9, commissions = $10, gross_pnl = $11, net_pnl = $12,
		  return_percent = $13, actual_rr = $14, hold_duration_minutes = $15, day_of_week = $16,
		  hour_of_day = $17, notes = $18, screenshot_url = $19, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		id, userID, in.Ticker, string(in.Direction), in.EntryDate, in.ExitDate, in.EntryPrice,
		in.ExitPrice, in.Quantity, in.Commissions, d.GrossPnL, d.NetPnL,
		d.ReturnPercent, d.ActualRR, d.HoldDurationMinutes, d.DayOfWeek,
		d.HourOfDay, in.Notes, in.ScreenshotURL,
	)
	if err != nil {
		return nil, fmt.Errorf("update trade: %w", err)
	}
	if err := saveJournals(ctx, tx, id, pre, post); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// Delete removes a trade; its journals go with it.
func (r *TradeRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trades WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the user's trades, newest entry first.
func (r *TradeRepo) List(ctx context.Context, userID uuid.UUID, f models.TradeFilter) ([]models.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "repository.trades.list")
	query, args := buildFilteredQuery(tradeSelect+` WHERE t.user_id = $1`, []any{userID}, f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		trace.End(span, err)
		return nil, err
	}
	defer rows.Close()
	trades, err := collectTrades(rows)
	trace.End(span, err)
	return trades, err
}

// ListClosed returns closed trades entered within [start, end]; nil bounds are open.
func (r *TradeRepo) ListClosed(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]models.Trade, error) {
	return r.List(ctx, userID, models.TradeFilter{StartDate: start, EndDate: end, ClosedOnly: true})
}

// CountOnDay counts trades entered on the trader's calendar day containing day.
func (r *TradeRepo) CountOnDay(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	start, end := DayBounds(day, r.loc)
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM trades WHERE user_id = $1 AND entry_date >= $2 AND entry_date < $3`,
		userID, start, end,
	).Scan(&count)
	return count, err
}

func (r *TradeRepo) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Location is the timezone trades are bucketed in.
func (r *TradeRepo) Location() *time.Location {
	return r.loc
}

// buildFilteredQuery appends the filter's clauses, ordering and paging to a
// query whose WHERE clause is already open.
func buildFilteredQuery(baseQuery string, baseArgs []any, f models.TradeFilter) (string, []any) {
	query, args := baseQuery, baseArgs
	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if f.Ticker != "" {
		add("t.ticker = $%d", strings.ToUpper(f.Ticker))
	}
	if f.Direction != "" {
		add("t.direction = $%d", string(f.Direction))
	}
	if f.StrategyID != nil {
		add("p.strategy_id = $%d", *f.StrategyID)
	}
	if f.StartDate != nil {
		add("t.entry_date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("t.entry_date <= $%d", *f.EndDate)
	}
	if f.ClosedOnly {
		query += " AND t.net_pnl IS NOT NULL"
	}

	query += " ORDER BY t.entry_date DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func plannedStop(pre *models.PreTradeJournal) *float64 {
	if pre == nil {
		return nil
	}
	return pre.PlannedStopLoss
}

func saveJournals(ctx context.Context, tx pgx.Tx, tradeID uuid.UUID, pre *models.PreTradeJournal, post *models.PostTradeJournal) error {
	if pre != nil {
		var trend *string
		if pre.SPYTrend != nil {
			s := string(*pre.SPYTrend)
			trend = &s
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO pre_trade_journals
			 (id, trade_id, emotional_state, emotional_score, setup_quality, market_bias, spy_trend,
			  sector_context, strategy_id, planned_entry, planned_stop_loss, planned_target, thesis)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			 ON CONFLICT (trade_id) DO UPDATE SET
			  emotional_state = EXCLUDED.emotional_state, emotional_score = EXCLUDED.emotional_score,
			  setup_quality = EXCLUDED.setup_quality, market_bias = EXCLUDED.market_bias,
			  spy_trend = EXCLUDED.spy_trend, sector_context = EXCLUDED.sector_context,
			  strategy_id = EXCLUDED.strategy_id, planned_entry = EXCLUDED.planned_entry,
			  planned_stop_loss = EXCLUDED.planned_stop_loss, planned_target = EXCLUDED.planned_target,
			  thesis = EXCLUDED.thesis`,
			uuid.New(), tradeID, nonNil(pre.EmotionalState), pre.EmotionalScore, pre.SetupQuality, pre.MarketBias, trend,
			pre.SectorContext, pre.StrategyID, pre.PlannedEntry, pre.PlannedStopLoss, pre.PlannedTarget, pre.Thesis,
		)
		if err != nil {
			return fmt.Errorf("save pre-trade journal: %w", err)
		}
	}
	if post != nil {
		_, err := tx.Exec(ctx,
			`INSERT INTO post_trade_journals
			 (id, trade_id, emotional_state, emotional_score, followed_plan, rule_violations,
			  what_went_well, what_went_wrong, lessons_learned, would_repeat)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 ON CONFLICT (trade_id) DO UPDATE SET
			  emotional_state = EXCLUDED.emotional_state, emotional_score = EXCLUDED.emotional_score,
			  followed_plan = EXCLUDED.followed_plan, rule_violations = EXCLUDED.rule_violations,
			  what_went_well = EXCLUDED.what_went_well, what_went_wrong = EXCLUDED.what_went_wrong,
			  lessons_learned = EXCLUDED.lessons_learned, would_repeat = EXCLUDED.would_repeat`,
			uuid.New(), tradeID, nonNil(post.EmotionalState), post.EmotionalScore, post.FollowedPlan, nonNil(post.RuleViolations),
			post.WhatWentWell, post.WhatWentWrong, post.LessonsLearned, post.WouldRepeat,
		)
		if err != nil {
			return fmt.Errorf("save post-trade journal: %w", err)
		}
	}
	return nil
}

// --- scan helpers ---

// tradeRow holds one joined row; journal columns are all NULL when the journal is missing.
type tradeRow struct {
	t         models.Trade
	direction string
	preID     *uuid.UUID
	pre       models.PreTradeJournal
	preTrend  *string
	preAt     *time.Time
	postID    *uuid.UUID
	post      models.PostTradeJournal
	postAt    *time.Time
}

func (r *tradeRow) dest() []any {
	t, pre, post := &r.t, &r.pre, &r.post
	return []any{
		&t.ID, &t.UserID, &t.Ticker, &r.direction, &t.EntryDate, &t.ExitDate,
		&t.EntryPrice, &t.ExitPrice, &t.Quantity, &t.Commissions, &t.GrossPnL, &t.NetPnL,
		&t.ReturnPercent, &t.ActualRR, &t.HoldDurationMinutes, &t.DayOfWeek, &t.HourOfDay,
		&t.Notes, &t.ScreenshotURL, &t.ImportedFromCSV, &t.CreatedAt, &t.UpdatedAt,
		&r.preID, &pre.EmotionalState, &pre.EmotionalScore, &pre.SetupQuality, &pre.MarketBias, &r.preTrend,
		&pre.SectorContext, &pre.StrategyID, &pre.PlannedEntry, &pre.PlannedStopLoss, &pre.PlannedTarget,
		&pre.Thesis, &r.preAt,
		&r.postID, &post.EmotionalState, &post.EmotionalScore, &post.FollowedPlan, &post.RuleViolations,
		&post.WhatWentWell, &post.WhatWentWrong, &post.LessonsLearned, &post.WouldRepeat, &r.postAt,
		&t.StrategyName,
	}
}

func (r *tradeRow) trade() models.Trade {
	t := r.t
	t.Direction = models.Direction(r.direction)
	if r.preID != nil {
		pre := r.pre
		pre.ID, pre.TradeID = *r.preID, t.ID
		pre.EmotionalState = nonNil(pre.EmotionalState)
		if r.preTrend != nil {
			trend := models.SPYTrend(*r.preTrend)
			pre.SPYTrend = &trend
		}
		if r.preAt != nil {
			pre.CreatedAt = *r.preAt
		}
		t.Pre = &pre
	}
	if r.postID != nil {
		post := r.post
		post.ID, post.TradeID = *r.postID, t.ID
		post.EmotionalState = nonNil(post.EmotionalState)
		post.RuleViolations = nonNil(post.RuleViolations)
		if r.postAt != nil {
			post.CreatedAt = *r.postAt
		}
		t.Post = &post
	}
	return t
}

func scanTrade(row scannable) (*models.Trade, error) {
	var r tradeRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	t := r.trade()
	return &t, nil
}

func collectTrades(rows rowsIter) ([]models.Trade, error) {
	out := []models.Trade{}
	for rows.Next() {
		var r tradeRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		out = append(out, r.trade())
	}
	return out, rows.Err()
}
