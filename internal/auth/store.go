package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Store persists user records. Implementations must enforce email
// uniqueness at the storage layer so that two concurrent creates for the
// same address cannot both succeed.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint64) (*User, error)
	Create(ctx context.Context, u *User) error
}

// GormStore backs Store with Postgres via gorm. The DB must be opened
// with TranslateError so unique-index violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uint64) (*User, error) {
	var u User
	err := s.DB.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// Create inserts the record, normalizing the email first. A duplicate
// from any writer, including one that raced past a prior FindByEmail,
// comes back as ErrEmailInUse via the unique index.
func (s *GormStore) Create(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailInUse
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
