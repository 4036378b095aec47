package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/MrEthical07/deliveryAuth/credentials"
	"github.com/MrEthical07/deliveryAuth/permission"
)

// AccountStore implements credentials.Lookup over the accounts table.
type AccountStore struct {
	db      DBTX
	dialect Dialect
}

// NewAccountStore returns an account store using db.
func NewAccountStore(db DBTX, d Dialect) *AccountStore {
	return &AccountStore{db: db, dialect: d}
}

const (
	selectAccountColumns = `SELECT id, login_identifier, password_hash, role, active FROM accounts`

	insertAccountQuery = `INSERT INTO accounts (login_identifier, password_hash, role, active)
VALUES ($1, $2, $3, $4)
RETURNING id`

	setActiveQuery = `UPDATE accounts SET active = $1 WHERE id = $2`

	updatePasswordHashQuery = `UPDATE accounts SET password_hash = $1 WHERE id = $2`
)

// FindByLoginIdentifier implements credentials.Lookup.
func (s *AccountStore) FindByLoginIdentifier(ctx context.Context, loginIdentifier string) (credentials.Account, bool, error) {
	return s.findOne(ctx, selectAccountColumns+` WHERE login_identifier = $1`, loginIdentifier)
}

// FindByID implements credentials.Lookup.
func (s *AccountStore) FindByID(ctx context.Context, accountID int64) (credentials.Account, bool, error) {
	return s.findOne(ctx, selectAccountColumns+` WHERE id = $1`, accountID)
}

func (s *AccountStore) findOne(ctx context.Context, query string, arg any) (credentials.Account, bool, error) {
	var (
		a    credentials.Account
		role string
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), arg).
		Scan(&a.ID, &a.LoginIdentifier, &a.PasswordHash, &role, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return credentials.Account{}, false, nil
	}
	if err != nil {
		return credentials.Account{}, false, fmt.Errorf("error performing sql request: %w", err)
	}
	a.Role, err = permission.ParseRole(role)
	if err != nil {
		return credentials.Account{}, false, fmt.Errorf("account %d: %w", a.ID, err)
	}
	return a, true, nil
}

// Create inserts an account and returns its id. The ID field of a is ignored.
func (s *AccountStore) Create(ctx context.Context, a credentials.Account) (int64, error) {
	if a.LoginIdentifier == "" || a.PasswordHash == "" || !a.Role.Valid() {
		return 0, credentials.ErrInvalidAccount
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(insertAccountQuery),
		a.LoginIdentifier, a.PasswordHash, a.Role.String(), a.Active).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, credentials.ErrDuplicateLogin
		}
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return id, nil
}

// SetActive flips the active flag.
func (s *AccountStore) SetActive(ctx context.Context, accountID int64, active bool) error {
	return s.updateOne(ctx, setActiveQuery, active, accountID)
}

// UpdatePasswordHash implements credentials.HashUpdater.
func (s *AccountStore) UpdatePasswordHash(ctx context.Context, accountID int64, encodedHash string) error {
	if encodedHash == "" {
		return credentials.ErrInvalidAccount
	}
	return s.updateOne(ctx, updatePasswordHashQuery, encodedHash, accountID)
}

func (s *AccountStore) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if n == 0 {
		return credentials.ErrAccountNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
