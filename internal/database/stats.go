package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gridlock/internal/models"
	"gridlock/internal/store"
)

// StatsRepo is the Postgres-backed stats store and user directory. All
// increments for one finished game land in a single transaction, so a game
// never half-applies.
type StatsRepo struct{}

var (
	_ store.StatsStore    = StatsRepo{}
	_ store.UserDirectory = StatsRepo{}
)

func (StatsRepo) GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	var st models.UserStats
	q := `SELECT user_id, games_played, wins, losses, draws FROM user_stats WHERE user_id=$1`
	err := DB.QueryRow(ctx, q, userID).Scan(&st.UserID, &st.GamesPlayed, &st.Wins, &st.Losses, &st.Draws)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrStatsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (StatsRepo) AllStats(ctx context.Context) ([]*models.UserStats, error) {
	q := `
		SELECT s.user_id, s.games_played, s.wins, s.losses, s.draws, u.email
		FROM user_stats s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.wins DESC, s.games_played DESC
	`
	rows, err := DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*models.UserStats
	for rows.Next() {
		var st models.UserStats
		if err := rows.Scan(&st.UserID, &st.GamesPlayed, &st.Wins, &st.Losses, &st.Draws, &st.Email); err != nil {
			return nil, err
		}
		all = append(all, &st)
	}
	return all, rows.Err()
}

func (StatsRepo) RecordResult(ctx context.Context, outcomes map[uuid.UUID]models.GameOutcome) error {
	q := `
		INSERT INTO user_stats (user_id, games_played, wins, losses, draws)
		VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			games_played = user_stats.games_played + 1,
			wins   = user_stats.wins + $2,
			losses = user_stats.losses + $3,
			draws  = user_stats.draws + $4
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for userID, outcome := range outcomes {
			var win, loss, draw int
			switch outcome {
			case models.OutcomeWin:
				win = 1
			case models.OutcomeLoss:
				loss = 1
			case models.OutcomeDraw:
				draw = 1
			}
			if _, err := tx.Exec(ctx, q, userID, win, loss, draw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit game results: %w", err)
	}
	return nil
}

// Email resolves a user id to its display identity. Unknown users resolve
// to a placeholder rather than failing a broadcast.
func (StatsRepo) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := DB.QueryRow(ctx, `SELECT email FROM users WHERE id=$1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "unknown@example.com", nil
	}
	if err != nil {
		return "", err
	}
	return email, nil
}
