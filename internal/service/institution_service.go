package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

const codeDigits = 6

// maxCodeAttempts bounds retries when a generated code collides.
const maxCodeAttempts = 5

// InstitutionService handles institution registration and login lookups.
type InstitutionService struct {
	instRepo *repository.InstitutionRepository
	auth     *AuthService
}

// NewInstitutionService creates a new InstitutionService.
func NewInstitutionService(instRepo *repository.InstitutionRepository, auth *AuthService) *InstitutionService {
	return &InstitutionService{instRepo: instRepo, auth: auth}
}

// Register creates an institution with a generated login code. The code is
// prefixed by type (SCH- for schools, COL- for colleges) followed by six
// random digits; collisions are retried with a fresh code.
func (s *InstitutionService) Register(ctx context.Context, req *model.RegisterInstitutionRequest) (*model.Institution, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	inst := &model.Institution{
		Name:          req.Name,
		Type:          model.InstitutionType(req.Type),
		Address:       req.Address,
		Contact:       req.Contact,
		PrincipalName: req.PrincipalName,
		PasswordHash:  hash,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode(inst.Type)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		inst.Code = code

		err = s.instRepo.Create(ctx, inst)
		if err == nil {
			return inst, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, fmt.Errorf("create institution: %w", err)
		}
	}
	return nil, errors.New("could not allocate a unique institution code")
}

// Login verifies an institution's code and password and returns an admin token.
func (s *InstitutionService) Login(ctx context.Context, code, password string) (*model.Institution, string, error) {
	inst, err := s.instRepo.GetByCode(ctx, code)
	if err != nil {
		if repository.ErrNoRows(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get institution: %w", err)
	}

	if err := s.auth.CheckPassword(inst.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateAdminToken(inst.Code)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return inst, token, nil
}

// GetByCode fetches one institution's profile.
func (s *InstitutionService) GetByCode(ctx context.Context, code string) (*model.Institution, error) {
	return s.instRepo.GetByCode(ctx, code)
}

func generateCode(t model.InstitutionType) (string, error) {
	prefix := "SCH-"
	if t == model.InstitutionTypeCollege {
		prefix = "COL-"
	}

	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%0*d", prefix, codeDigits, n), nil
}
