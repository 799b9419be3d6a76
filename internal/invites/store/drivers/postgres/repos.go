package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"gorm.io/gorm"
)

type teamsRepo struct {
	db *gorm.DB
}

func (r *teamsRepo) CreateTeam(ctx context.Context, t domain.Team) error {
	m := toTeamModel(t)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *teamsRepo) GetTeamByID(ctx context.Context, id string) (domain.Team, error) {
	var m teamModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.Team{}, mapErr(err)
	}
	return m.domain(), nil
}

func (r *teamsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&teamModel{}).Limit(1).Count(&n).Error; err != nil {
		return false, mapErr(err)
	}
	return n == 0, nil
}

type accountsRepo struct {
	db *gorm.DB
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	m := toAccountModel(a)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.Account{}, mapErr(err)
	}
	return m.domain(), nil
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	var m accountModel
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&m).Error
	if err != nil {
		return domain.Account{}, mapErr(err)
	}
	return m.domain(), nil
}

type membershipsRepo struct {
	db *gorm.DB
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, mem domain.Membership) error {
	m := toMembershipModel(mem)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, accountID, teamID string) (domain.Membership, error) {
	var m membershipModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND team_id = ?", accountID, teamID).
		First(&m).Error
	if err != nil {
		return domain.Membership{}, mapErr(err)
	}
	return m.domain(), nil
}

func (r *membershipsRepo) ListMembershipsByTeam(ctx context.Context, teamID string) ([]domain.Membership, error) {
	var rows []membershipModel
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Membership, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.domain())
	}
	return out, nil
}

type invitesRepo struct {
	db *gorm.DB
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	m := toInviteModel(inv)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *invitesRepo) GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error) {
	var m inviteModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&m).Error; err != nil {
		return domain.Invite{}, mapErr(err)
	}
	return m.domain(), nil
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	var m inviteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.Invite{}, mapErr(err)
	}
	return m.domain(), nil
}

func (r *invitesRepo) ListInvitesByTeam(ctx context.Context, teamID string) ([]domain.Invite, error) {
	var rows []inviteModel
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Invite, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.domain())
	}
	return out, nil
}

// ConsumeInvite issues one conditional UPDATE. Under READ COMMITTED a second
// writer blocks on the row lock and re-evaluates the WHERE clause after the
// first commits, so it matches nothing.
func (r *invitesRepo) ConsumeInvite(ctx context.Context, hash, consumedBy string, now time.Time) (domain.Invite, error) {
	now = now.UTC()
	db := r.db.WithContext(ctx)

	res := db.Model(&inviteModel{}).
		Where("token_hash = ? AND status = ? AND expires_at >= ?", hash, string(domain.InviteStatusPending), now).
		Updates(map[string]any{
			"status":      string(domain.InviteStatusConsumed),
			"consumed_by": consumedBy,
			"consumed_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return domain.Invite{}, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Invite{}, store.ErrConflict
	}

	var m inviteModel
	if err := db.Where("token_hash = ?", hash).First(&m).Error; err != nil {
		return domain.Invite{}, mapErr(err)
	}
	return m.domain(), nil
}

func (r *invitesRepo) ExpireInvite(ctx context.Context, id string, now time.Time) error {
	now = now.UTC()
	res := r.db.WithContext(ctx).Model(&inviteModel{}).
		Where("id = ? AND status = ?", id, string(domain.InviteStatusPending)).
		Updates(map[string]any{
			"status":     string(domain.InviteStatusExpired),
			"updated_at": now,
		})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *invitesRepo) ExpireOverdueInvites(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	res := r.db.WithContext(ctx).Model(&inviteModel{}).
		Where("status = ? AND expires_at < ?", string(domain.InviteStatusPending), now).
		Updates(map[string]any{
			"status":     string(domain.InviteStatusExpired),
			"updated_at": now,
		})
	return res.RowsAffected, mapErr(res.Error)
}
