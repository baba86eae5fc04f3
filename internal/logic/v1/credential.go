package v1

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tdnguyen/auth-service/internal/auth"
	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// CredentialService owns password creation, replacement, and verification.
// It delegates hashing to the auth package and never hands raw passwords to
// storage.
type CredentialService struct {
	creds domain.CredentialRepository
}

// NewCredentialService creates a CredentialService over the given
// repository.
func NewCredentialService(creds domain.CredentialRepository) *CredentialService {
	return &CredentialService{creds: creds}
}

// Create hashes the raw password under a fresh salt and persists the
// credential for the user. A second credential for the same user fails with
// the storage layer's duplicate-key error.
func (s *CredentialService) Create(ctx context.Context, user *domain.User, rawPassword string) error {
	cred, err := newCredential(user.ID, rawPassword)
	if err != nil {
		return err
	}
	return s.creds.Create(ctx, cred)
}

// Update replaces the user's salt and hash with ones derived from the new
// raw password. Returns the number of credentials affected (1 or 0).
func (s *CredentialService) Update(ctx context.Context, userID uuid.UUID, rawPassword string) (int64, error) {
	salt, hash, err := auth.HashPassword(rawPassword)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.creds.Update(ctx, userID, salt, hash)
}

// Validate recomputes the hash of the raw password under the stored salt
// and compares it to the stored hash. Fails with ErrCredentialNotFound when
// no credential exists for the username; that case must not reach a client.
func (s *CredentialService) Validate(ctx context.Context, username, rawPassword string) (bool, error) {
	cred, err := s.creds.FindByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("query credential for %q: %w", username, err)
	}
	if cred == nil {
		return false, fmt.Errorf("validate credential for %q: %w", username, ErrCredentialNotFound)
	}

	return auth.VerifyPassword(rawPassword, cred.Salt, cred.Hash), nil
}

func newCredential(userID uuid.UUID, rawPassword string) (*domain.Credential, error) {
	salt, hash, err := auth.HashPassword(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.Credential{UserID: userID, Salt: salt, Hash: hash}, nil
}
