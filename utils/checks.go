package utils

import (
	"fmt"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"

	"gorm.io/gorm"
)

// Function to check if a family exists
func CheckFamilyExists(db *gorm.DB, familyID string) (*postgres.Family, error) {
	var family postgres.Family
	result := db.Where("id = ?", familyID).First(&family)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("family not found")
		}
		return nil, result.Error
	}
	return &family, nil
}

// Function to check if a game exists
func CheckGameExists(db *gorm.DB, gameID string) (*postgres.Game, error) {
	var game postgres.Game
	result := db.Where("id = ?", gameID).First(&game)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("game not found")
		}
		return nil, result.Error
	}
	return &game, nil
}

// IsActiveFamilyMember reports whether the user holds an active accepted
// membership in the family
func IsActiveFamilyMember(db *gorm.DB, familyID string, userID string) (bool, error) {
	var count int64
	err := db.Model(&postgres.FamilyMember{}).
		Where("family_id = ? AND user_id = ? AND is_active = ? AND status = ?",
			familyID, userID, true, roadtrip.MemberStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
