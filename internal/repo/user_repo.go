// Repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the thin-repository
// approach: no business logic, only CRUD persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Username and email lookups are case-insensitive: the folded forms are
// stored alongside the display forms and carry the unique indexes.
package repo

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/vanish-chat/vanish-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across services and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// FoldIdentifier normalizes an identifier (username, email) for
// case-insensitive comparison using Unicode case folding.
func FoldIdentifier(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// CreateUser inserts a new user row. The caller provides the id, display
// fields, friend code, and password hash; the folded key columns are derived
// here so uniqueness is always enforced on the normalized forms.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.UsernameKey = FoldIdentifier(u.Username)
	u.EmailKey = FoldIdentifier(u.Email)
	u.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByLogin resolves a login identifier that may be an email or a
// username, case-insensitively.
func FindByLogin(ctx context.Context, db *gorm.DB, identifier string) (*domain.User, error) {
	key := FoldIdentifier(identifier)
	var u domain.User
	err := db.WithContext(ctx).
		Where("email_key = ? OR username_key = ?", key, key).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIdentifier resolves a friend-request target: a friend code first
// (exact match), then email or username case-insensitively.
func FindByIdentifier(ctx context.Context, db *gorm.DB, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	var u domain.User
	err := db.WithContext(ctx).
		Where("friend_code = ?", identifier).
		First(&u).Error
	if err == nil {
		return &u, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return FindByLogin(ctx, db, identifier)
}

// IdentityTaken reports whether the username or the email is already in use,
// compared case-insensitively.
func IdentityTaken(ctx context.Context, db *gorm.DB, username, email string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).
		Where("username_key = ? OR email_key = ?", FoldIdentifier(username), FoldIdentifier(email)).
		Count(&n).Error
	return n > 0, err
}

// UpdatePassword replaces the stored password hash.
// Returns ErrNotFound when the user does not exist.
func UpdatePassword(ctx context.Context, db *gorm.DB, id, passwordHash string) error {
	res := db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user row. Returns ErrNotFound when no row matched.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsersByIDs fetches the given users in one query. Missing ids are
// silently skipped; callers resolve ordering themselves.
func ListUsersByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	var out []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
