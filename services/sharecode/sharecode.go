package sharecode

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"gorm.io/gorm"
)

// Generate builds a random share code: 8 uppercase alphanumeric
// characters, no checksum. Uniqueness is handled by regenerating on an
// observed collision, not by construction.
func Generate() string {
	b := make([]byte, roadtrip.ShareCodeLength)
	for i := range b {
		b[i] = roadtrip.ShareCodeCharset[rand.Intn(len(roadtrip.ShareCodeCharset))]
	}
	return string(b)
}

// newUniqueCode retries until the code collides with neither a family
// nor a game. Collisions are vanishingly rare with 36^8 codes.
func newUniqueCode(tx *gorm.DB) (string, error) {
	for {
		code := Generate()
		var family postgres.Family
		err := tx.Where("share_code = ?", code).First(&family).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		var game postgres.Game
		err = tx.Where("share_code = ?", code).First(&game).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return code, nil
	}
}

// EnsureFamilyCode returns the family's share code, generating one on
// first request. Repeated calls return the same code.
func EnsureFamilyCode(db *gorm.DB, familyID string) (string, error) {
	var code string
	err := db.Transaction(func(tx *gorm.DB) error {
		var family postgres.Family
		if err := tx.Where("id = ?", familyID).First(&family).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if family.ShareCode != nil {
			code = *family.ShareCode
			return nil
		}
		newCode, err := newUniqueCode(tx)
		if err != nil {
			return err
		}
		family.ShareCode = &newCode
		family.NeedsSync = true
		if err := tx.Save(&family).Error; err != nil {
			return err
		}
		code = newCode
		return nil
	})
	return code, err
}

// RegenerateFamilyCode replaces the code; the previous one stops
// resolving immediately.
func RegenerateFamilyCode(db *gorm.DB, familyID string) (string, error) {
	var code string
	err := db.Transaction(func(tx *gorm.DB) error {
		var family postgres.Family
		if err := tx.Where("id = ?", familyID).First(&family).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		newCode, err := newUniqueCode(tx)
		if err != nil {
			return err
		}
		family.ShareCode = &newCode
		family.NeedsSync = true
		if err := tx.Save(&family).Error; err != nil {
			return err
		}
		code = newCode
		return nil
	})
	return code, err
}

// EnsureGameCode returns the game's public share code, generating one on
// first request.
func EnsureGameCode(db *gorm.DB, gameID string) (string, error) {
	var code string
	err := db.Transaction(func(tx *gorm.DB) error {
		var game postgres.Game
		if err := tx.Where("id = ?", gameID).First(&game).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if game.ShareCode != nil {
			code = *game.ShareCode
			return nil
		}
		newCode, err := newUniqueCode(tx)
		if err != nil {
			return err
		}
		game.ShareCode = &newCode
		game.NeedsSync = true
		if err := tx.Save(&game).Error; err != nil {
			return err
		}
		code = newCode
		return nil
	})
	return code, err
}

// Resolution is what a share code points at: exactly one of Family or
// Game is set.
type Resolution struct {
	Family *postgres.Family
	Game   *postgres.Game
}

// Resolve maps a code to its family or game. Lookups are read-only and
// idempotent: a valid code resolves every time until regenerated.
func Resolve(db *gorm.DB, code string) (*Resolution, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roadtrip.ShareCodeLength {
		return nil, apperrors.ErrNotFound
	}

	var family postgres.Family
	err := db.Where("share_code = ?", code).First(&family).Error
	if err == nil {
		return &Resolution{Family: &family}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var game postgres.Game
	err = db.Where("share_code = ?", code).First(&game).Error
	if err == nil {
		return &Resolution{Game: &game}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return nil, apperrors.ErrNotFound
}
