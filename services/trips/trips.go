package trips

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/permissions"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"gorm.io/gorm"
)

// requireTripAction checks the caller's family role against the action.
// Users outside any family are unrestricted: the matrix only constrains
// what a family role may do.
func requireTripAction(tx *gorm.DB, sess session.Session, action roadtrip.Action) error {
	var member postgres.FamilyMember
	err := tx.Where("user_id = ? AND is_active = ? AND status = ?",
		sess.UserID, true, roadtrip.MemberStatusAccepted).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !permissions.CanPerform(member.Role, action) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// CreateTrip starts a trip for the caller
func CreateTrip(db *gorm.DB, sess session.Session, name string, countries []string) (*postgres.Trip, error) {
	for _, code := range countries {
		if !roadtrip.IsValidCountry(code) {
			return nil, apperrors.Invariant("unknown country code %q", code)
		}
	}
	var created postgres.Trip
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireTripAction(tx, sess, roadtrip.ActionCreateTrips); err != nil {
			return err
		}
		trip := postgres.Trip{
			UserID:    sess.UserID,
			Name:      name,
			Countries: postgres.EncodeStringList(countries),
			StartedAt: tx.NowFunc(),
			NeedsSync: true,
		}
		if err := tx.Create(&trip).Error; err != nil {
			return err
		}
		created = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTripSettings renames a trip or changes its country set
func UpdateTripSettings(db *gorm.DB, sess session.Session, tripID string, name *string, countries []string) (*postgres.Trip, error) {
	var updated postgres.Trip
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireTripAction(tx, sess, roadtrip.ActionModifyTripSettings); err != nil {
			return err
		}
		trip, err := ownedTrip(tx, sess, tripID)
		if err != nil {
			return err
		}
		if name != nil {
			trip.Name = *name
		}
		if countries != nil {
			for _, code := range countries {
				if !roadtrip.IsValidCountry(code) {
					return apperrors.Invariant("unknown country code %q", code)
				}
			}
			trip.Countries = postgres.EncodeStringList(countries)
		}
		trip.NeedsSync = true
		if err := tx.Save(trip).Error; err != nil {
			return err
		}
		updated = *trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// MarkPlate records a plate sighting on the caller's trip
func MarkPlate(db *gorm.DB, sess session.Session, tripID, country string) (*postgres.PlateMark, error) {
	if !roadtrip.IsValidCountry(country) {
		return nil, apperrors.Invariant("unknown country code %q", country)
	}
	var created postgres.PlateMark
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireTripAction(tx, sess, roadtrip.ActionMarkPlates); err != nil {
			return err
		}
		trip, err := ownedTrip(tx, sess, tripID)
		if err != nil {
			return err
		}
		if trip.EndedAt != nil {
			return apperrors.Invariant("trip %s has ended", tripID)
		}
		mark := postgres.PlateMark{
			TripID:  trip.ID,
			Country: country,
			SeenAt:  tx.NowFunc(),
		}
		if err := tx.Create(&mark).Error; err != nil {
			return err
		}
		trip.NeedsSync = true
		if err := tx.Save(trip).Error; err != nil {
			return err
		}
		created = mark
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EndTrip closes a trip; marking stops but the data stays scoreable
func EndTrip(db *gorm.DB, sess session.Session, tripID string) (*postgres.Trip, error) {
	var updated postgres.Trip
	err := db.Transaction(func(tx *gorm.DB) error {
		trip, err := ownedTrip(tx, sess, tripID)
		if err != nil {
			return err
		}
		if trip.EndedAt != nil {
			updated = *trip
			return nil
		}
		now := tx.NowFunc()
		trip.EndedAt = &now
		trip.NeedsSync = true
		if err := tx.Save(trip).Error; err != nil {
			return err
		}
		updated = *trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListTrips returns the caller's trips, newest first
func ListTrips(db *gorm.DB, sess session.Session) ([]postgres.Trip, error) {
	var trips []postgres.Trip
	err := db.Where("user_id = ?", sess.UserID).Order("started_at DESC").Find(&trips).Error
	return trips, err
}

func ownedTrip(tx *gorm.DB, sess session.Session, tripID string) (*postgres.Trip, error) {
	var trip postgres.Trip
	if err := tx.Where("id = ?", tripID).First(&trip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if trip.UserID != sess.UserID {
		return nil, apperrors.ErrPermissionDenied
	}
	return &trip, nil
}
