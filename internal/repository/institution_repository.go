package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// ErrDuplicateCode signals a unique-constraint hit on the institution code.
var ErrDuplicateCode = errors.New("institution code already exists")

// InstitutionRepository handles institution data access.
type InstitutionRepository struct {
	pool *pgxpool.Pool
}

// NewInstitutionRepository creates a new InstitutionRepository.
func NewInstitutionRepository(pool *pgxpool.Pool) *InstitutionRepository {
	return &InstitutionRepository{pool: pool}
}

// Create inserts a new institution. Returns ErrDuplicateCode when the
// generated code collides so the caller can retry with a fresh one.
func (r *InstitutionRepository) Create(ctx context.Context, inst *model.Institution) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO institutions (code, name, type, address, contact, principal_name, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		inst.Code, inst.Name, inst.Type, inst.Address, inst.Contact, inst.PrincipalName, inst.PasswordHash,
	).Scan(&inst.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}

// GetByCode retrieves one institution by its login code.
func (r *InstitutionRepository) GetByCode(ctx context.Context, code string) (*model.Institution, error) {
	inst := &model.Institution{}
	err := r.pool.QueryRow(ctx,
		`SELECT code, name, type, address, contact, principal_name, password_hash, created_at
		 FROM institutions
		 WHERE code = $1`, code,
	).Scan(&inst.Code, &inst.Name, &inst.Type, &inst.Address, &inst.Contact,
		&inst.PrincipalName, &inst.PasswordHash, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// ErrNoRows reports whether err is pgx's no-rows sentinel.
func ErrNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
