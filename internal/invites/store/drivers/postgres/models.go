package postgres

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
)

// Timestamps come from the service clock, so gorm's auto time tracking is off.

type teamModel struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (teamModel) TableName() string { return "teams" }

type accountModel struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Email        string    `gorm:"not null;uniqueIndex:idx_accounts_email"`
	FullName     string    `gorm:"not null"`
	PhoneNumber  string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (accountModel) TableName() string { return "accounts" }

type inviteModel struct {
	ID         string     `gorm:"primaryKey;type:text"`
	TokenHash  string     `gorm:"not null;uniqueIndex:idx_invites_token_hash"`
	Email      string     `gorm:"not null"`
	Role       string     `gorm:"not null"`
	TeamID     string     `gorm:"not null;index:idx_invites_team_created,priority:1"`
	Team       *teamModel `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	SentBy     string     `gorm:"not null"`
	Status     string     `gorm:"not null;index:idx_invites_status_expiry,priority:1"`
	ConsumedBy *string
	ConsumedAt *time.Time
	ExpiresAt  time.Time `gorm:"not null;index:idx_invites_status_expiry,priority:2"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false;index:idx_invites_team_created,priority:2,sort:desc"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (inviteModel) TableName() string { return "invites" }

type membershipModel struct {
	ID        string        `gorm:"primaryKey;type:text"`
	AccountID string        `gorm:"not null;uniqueIndex:idx_memberships_account_team,priority:1"`
	Account   *accountModel `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	TeamID    string        `gorm:"not null;uniqueIndex:idx_memberships_account_team,priority:2"`
	Team      *teamModel    `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	Role      string        `gorm:"not null"`
	InviteID  *string       `gorm:"uniqueIndex:idx_memberships_invite"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime:false"`
}

func (membershipModel) TableName() string { return "memberships" }

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toTeamModel(t domain.Team) teamModel {
	return teamModel{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt.UTC(), UpdatedAt: t.UpdatedAt.UTC()}
}

func (m teamModel) domain() domain.Team {
	return domain.Team{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()}
}

func toAccountModel(a domain.Account) accountModel {
	return accountModel{
		ID:           a.ID,
		Email:        strings.ToLower(a.Email),
		FullName:     a.FullName,
		PhoneNumber:  a.PhoneNumber,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

func (m accountModel) domain() domain.Account {
	return domain.Account{
		ID:           m.ID,
		Email:        m.Email,
		FullName:     m.FullName,
		PhoneNumber:  m.PhoneNumber,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func toInviteModel(i domain.Invite) inviteModel {
	return inviteModel{
		ID:         i.ID,
		TokenHash:  i.TokenHash,
		Email:      i.Email,
		Role:       string(i.Role),
		TeamID:     i.TeamID,
		SentBy:     i.SentBy,
		Status:     string(i.Status),
		ConsumedBy: optString(i.ConsumedBy),
		ConsumedAt: utcPtr(i.ConsumedAt),
		ExpiresAt:  i.ExpiresAt.UTC(),
		CreatedAt:  i.CreatedAt.UTC(),
		UpdatedAt:  i.UpdatedAt.UTC(),
	}
}

func (m inviteModel) domain() domain.Invite {
	return domain.Invite{
		ID:         m.ID,
		TokenHash:  m.TokenHash,
		Email:      m.Email,
		Role:       domain.Role(m.Role),
		TeamID:     m.TeamID,
		SentBy:     m.SentBy,
		Status:     domain.InviteStatus(m.Status),
		ConsumedBy: derefString(m.ConsumedBy),
		ConsumedAt: utcPtr(m.ConsumedAt),
		ExpiresAt:  m.ExpiresAt.UTC(),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func toMembershipModel(m domain.Membership) membershipModel {
	return membershipModel{
		ID:        m.ID,
		AccountID: m.AccountID,
		TeamID:    m.TeamID,
		Role:      string(m.Role),
		InviteID:  optString(m.InviteID),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (m membershipModel) domain() domain.Membership {
	return domain.Membership{
		ID:        m.ID,
		AccountID: m.AccountID,
		TeamID:    m.TeamID,
		Role:      domain.Role(m.Role),
		InviteID:  derefString(m.InviteID),
		CreatedAt: m.CreatedAt.UTC(),
	}
}
