package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
)

type membershipsRepo struct {
	db dbtx
}

const membershipColumns = `id, account_id, team_id, role, invite_id, created_at`

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (`+membershipColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.AccountID, m.TeamID, string(m.Role), nullString(m.InviteID), toMillis(m.CreatedAt),
	)
	return mapErr(err)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, accountID, teamID string) (domain.Membership, error) {
	return scanMembership(r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE account_id = ? AND team_id = ?`,
		accountID, teamID,
	))
}

func (r *membershipsRepo) ListMembershipsByTeam(ctx context.Context, teamID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE team_id = ? ORDER BY created_at, id`, teamID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func scanMembership(row rowScanner) (domain.Membership, error) {
	var (
		m        domain.Membership
		role     string
		inviteID sql.NullString
		created  int64
	)
	if err := row.Scan(&m.ID, &m.AccountID, &m.TeamID, &role, &inviteID, &created); err != nil {
		return domain.Membership{}, mapErr(err)
	}
	m.Role = domain.Role(role)
	m.InviteID = fromNullString(inviteID)
	m.CreatedAt = fromMillis(created)
	return m, nil
}
