package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, full_name, phone_number, password_hash, created_at, updated_at`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, strings.ToLower(a.Email), a.FullName, a.PhoneNumber, a.PasswordHash,
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	return mapErr(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, strings.ToLower(email)))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a                domain.Account
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.FullName, &a.PhoneNumber, &a.PasswordHash, &created, &updated); err != nil {
		return domain.Account{}, mapErr(err)
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}
