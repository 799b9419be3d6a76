package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
)

type invitesRepo struct {
	db dbtx
}

const inviteColumns = `id, token_hash, email, role, team_id, sent_by, status,
	consumed_by, consumed_at, expires_at, created_at, updated_at`

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (`+inviteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TokenHash, inv.Email, string(inv.Role), inv.TeamID, inv.SentBy, string(inv.Status),
		nullString(inv.ConsumedBy), nullMillis(inv.ConsumedAt),
		toMillis(inv.ExpiresAt), toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt),
	)
	return mapErr(err)
}

func (r *invitesRepo) GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token_hash = ?`, hash))
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE id = ?`, id))
}

func (r *invitesRepo) ListInvitesByTeam(ctx context.Context, teamID string) ([]domain.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE team_id = ? ORDER BY created_at DESC, id DESC`, teamID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, mapErr(rows.Err())
}

// ConsumeInvite is a single compare-and-swap statement. With BEGIN IMMEDIATE
// the enclosing transaction already holds the write lock, so a concurrent
// redeemer blocks on busy_timeout and then sees status = 'consumed'.
func (r *invitesRepo) ConsumeInvite(ctx context.Context, hash, consumedBy string, now time.Time) (domain.Invite, error) {
	ms := toMillis(now)
	inv, err := scanInvite(r.db.QueryRowContext(ctx,
		`UPDATE invites
		    SET status = 'consumed', consumed_by = ?, consumed_at = ?, updated_at = ?
		  WHERE token_hash = ? AND status = 'pending' AND expires_at >= ?
		RETURNING `+inviteColumns,
		consumedBy, ms, ms, hash, ms,
	))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, store.ErrConflict
	}
	return inv, err
}

func (r *invitesRepo) ExpireInvite(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = 'expired', updated_at = ? WHERE id = ? AND status = 'pending'`,
		toMillis(now), id,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *invitesRepo) ExpireOverdueInvites(ctx context.Context, now time.Time) (int64, error) {
	ms := toMillis(now)
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = 'expired', updated_at = ? WHERE status = 'pending' AND expires_at < ?`,
		ms, ms,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n, mapErr(err)
}

func scanInvite(row rowScanner) (domain.Invite, error) {
	var (
		inv                       domain.Invite
		role, status              string
		consumedBy                sql.NullString
		consumedAt                sql.NullInt64
		expires, created, updated int64
	)
	err := row.Scan(
		&inv.ID, &inv.TokenHash, &inv.Email, &role, &inv.TeamID, &inv.SentBy, &status,
		&consumedBy, &consumedAt, &expires, &created, &updated,
	)
	if err != nil {
		return domain.Invite{}, mapErr(err)
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InviteStatus(status)
	inv.ConsumedBy = fromNullString(consumedBy)
	inv.ConsumedAt = fromNullMillis(consumedAt)
	inv.ExpiresAt = fromMillis(expires)
	inv.CreatedAt = fromMillis(created)
	inv.UpdatedAt = fromMillis(updated)
	return inv, nil
}
