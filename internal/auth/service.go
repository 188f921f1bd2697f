package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Enqueuer schedules asynchronous follow-up work after an account is
// created (welcome mail). Delivery is best effort.
type Enqueuer interface {
	EnqueueWelcome(ctx context.Context, userID uint64, email, fullName string) error
}

// Service composes the store, hasher, token issuer and federated
// verifier into the signup / login / google-login / identify operations.
// All collaborators are constructed once at startup and injected.
type Service struct {
	Store    Store
	JWT      *JWT
	Verifier IdentityVerifier
	Mail     Enqueuer // optional
}

// Signup registers a new account. No token is issued; the client logs in
// afterwards. Duplicate emails fail with ErrEmailInUse whether caught by
// the pre-check or by the store's unique index.
func (s *Service) Signup(ctx context.Context, fullName, email, password string) error {
	fullName = strings.TrimSpace(fullName)
	email = NormalizeEmail(email)
	if fullName == "" || email == "" || password == "" {
		return ErrMissingFields
	}

	if _, err := s.Store.FindByEmail(ctx, email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("signup: lookup: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("signup: hash: %w", err)
	}

	u := &User{FullName: fullName, Email: email, PasswordHash: hash}
	if err := s.Store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailInUse) {
			return ErrEmailInUse
		}
		return fmt.Errorf("signup: create: %w", err)
	}

	s.enqueueWelcome(ctx, u)
	return nil
}

// Login verifies credentials and mints a bearer token. An unknown email
// and a wrong password return the identical error so the endpoint cannot
// be used to enumerate registered addresses.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrMissingFields
	}

	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: lookup: %w", err)
	}
	if !ComparePassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.JWT.Sign(u.ID, u.Email)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}
	return token, u, nil
}

// GoogleLogin verifies a provider ID token and logs the holder in,
// provisioning an account on first sight. Accounts are merged by email:
// a verified Google identity for an address that already has a password
// account logs into that account.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (string, *User, error) {
	if strings.TrimSpace(idToken) == "" {
		return "", nil, ErrMissingFields
	}

	ident, err := s.Verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrMissingEmail) {
			return "", nil, ErrMissingEmail
		}
		return "", nil, ErrInvalidProviderToken
	}

	u, err := s.Store.FindByEmail(ctx, ident.Email)
	if errors.Is(err, ErrUserNotFound) {
		u, err = s.createFederatedUser(ctx, ident)
	}
	if err != nil {
		return "", nil, fmt.Errorf("google login: %w", err)
	}

	token, err := s.JWT.Sign(u.ID, u.Email)
	if err != nil {
		return "", nil, fmt.Errorf("google login: sign token: %w", err)
	}
	return token, u, nil
}

// Identify resolves a verified token subject to its user record.
// ErrUserNotFound means the token was valid but the record is gone.
func (s *Service) Identify(ctx context.Context, userID uint64) (*User, error) {
	return s.Store.FindByID(ctx, userID)
}

// createFederatedUser provisions an account for a verified identity not
// seen before. Losing the insert race to a concurrent first login falls
// back to the winner's record.
func (s *Service) createFederatedUser(ctx context.Context, ident Identity) (*User, error) {
	pw, err := RandomPassword()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(pw)
	if err != nil {
		return nil, err
	}

	u := &User{FullName: ident.FullName, Email: ident.Email, PasswordHash: hash}
	if err := s.Store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailInUse) {
			return s.Store.FindByEmail(ctx, ident.Email)
		}
		return nil, err
	}

	s.enqueueWelcome(ctx, u)
	return u, nil
}

func (s *Service) enqueueWelcome(ctx context.Context, u *User) {
	if s.Mail == nil {
		return
	}
	if err := s.Mail.EnqueueWelcome(ctx, u.ID, u.Email, u.FullName); err != nil {
		log.Printf("auth: enqueue welcome mail for user %d: %v", u.ID, err)
	}
}
