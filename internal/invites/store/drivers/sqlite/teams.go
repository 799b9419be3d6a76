package sqlite

import (
	"context"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
)

type teamsRepo struct {
	db dbtx
}

func (r *teamsRepo) CreateTeam(ctx context.Context, t domain.Team) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	return mapErr(err)
}

func (r *teamsRepo) GetTeamByID(ctx context.Context, id string) (domain.Team, error) {
	var (
		t                domain.Team
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &created, &updated)
	if err != nil {
		return domain.Team{}, mapErr(err)
	}
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

func (r *teamsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM teams)`).Scan(&exists)
	if err != nil {
		return false, mapErr(err)
	}
	return !exists, nil
}
