package users

import (
	"errors"
	"strings"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register creates a local user with a bcrypt password hash. Usernames
// are unique across the system.
func Register(db *gorm.DB, username, email, password string) (*postgres.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperrors.Invariant("username, email and password are required")
	}

	var existing postgres.User
	err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, apperrors.Invariant("username or email already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := postgres.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		NeedsSync:    true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies email+password and returns the user
func Authenticate(db *gorm.DB, email, password string) (*postgres.User, error) {
	var user postgres.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrPermissionDenied
	}
	return &user, nil
}

// ProfileUpdate carries the optional profile fields; nil means unchanged
type ProfileUpdate struct {
	Username    *string
	Phone       *string
	EmailPublic *bool
	PhonePublic *bool
}

// UpdateProfile applies a partial update to the caller's own record
func UpdateProfile(db *gorm.DB, sess session.Session, update ProfileUpdate) (*postgres.User, error) {
	var updated postgres.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var user postgres.User
		if err := tx.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if update.Username != nil {
			name := strings.TrimSpace(*update.Username)
			if name == "" {
				return apperrors.Invariant("username cannot be empty")
			}
			var clash postgres.User
			err := tx.Where("username = ? AND id <> ?", name, user.ID).First(&clash).Error
			if err == nil {
				return apperrors.Invariant("username %q already taken", name)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user.Username = name
		}
		if update.Phone != nil {
			user.Phone = *update.Phone
		}
		if update.EmailPublic != nil {
			user.EmailPublic = *update.EmailPublic
		}
		if update.PhonePublic != nil {
			user.PhonePublic = *update.PhonePublic
		}
		user.NeedsSync = true
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// PublicView renders a user record honoring the visibility flags
func PublicView(user *postgres.User) map[string]interface{} {
	view := map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
	}
	if user.EmailPublic {
		view["email"] = user.Email
	}
	if user.PhonePublic {
		view["phone"] = user.Phone
	}
	return view
}
