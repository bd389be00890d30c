package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/provider-sync/internal/model"
	"github.com/iliyamo/provider-sync/internal/utils"
)

// ProviderRepo reads and creates provider accounts.
type ProviderRepo struct{ DB *sql.DB }

func NewProviderRepo(db *sql.DB) *ProviderRepo { return &ProviderRepo{DB: db} }

const providerCols = "id,email,password_hash,display_name,is_active,created_at"

// Create inserts a provider and returns its id.  A duplicate email is
// ErrConflict.
func (r *ProviderRepo) Create(ctx context.Context, email, password, displayName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO providers (email, password_hash, display_name, role) VALUES (?,?,?,?)",
		email, hash, displayName, model.RoleProvider)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == 1062 {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Ensure creates the account unless the email is already registered.
func (r *ProviderRepo) Ensure(ctx context.Context, email, password string, cost int) (uint64, error) {
	p, err := r.GetByEmail(ctx, email)
	if err == nil {
		return p.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	return r.Create(ctx, email, password, email, cost)
}

// GetByEmail fetches a provider by normalized email.
func (r *ProviderRepo) GetByEmail(ctx context.Context, email string) (model.Provider, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+providerCols+" FROM providers WHERE email=? LIMIT 1", email))
}

// GetByID fetches a provider by id.
func (r *ProviderRepo) GetByID(ctx context.Context, id uint64) (model.Provider, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+providerCols+" FROM providers WHERE id=? LIMIT 1", id))
}

func (r *ProviderRepo) scanOne(row *sql.Row) (model.Provider, error) {
	var p model.Provider
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Provider{}, ErrNotFound
	}
	return p, err
}
