package game

import (
	"time"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TripSnapshot is the immutable view of a trip the scoring function
// consumes. Taking a snapshot first keeps ComputeScore a pure function:
// re-running it over the same snapshots always yields the same integer.
type TripSnapshot struct {
	TripID    string
	StartedAt time.Time
	Marks     []MarkSnapshot
}

type MarkSnapshot struct {
	Country string
	SeenAt  time.Time
}

// ComputeScore derives a team score from its trip snapshots. No side
// effects; callers write the resulting integer themselves.
func ComputeScore(scoringType string, customPlatePoints int, trips []TripSnapshot) int {
	switch scoringType {
	case roadtrip.ScoringTotalFound:
		total := 0
		for _, trip := range trips {
			total += len(trip.Marks)
		}
		return total

	case roadtrip.ScoringUniqueFound:
		seen := make(map[string]bool)
		for _, trip := range trips {
			for _, mark := range trip.Marks {
				seen[mark.Country] = true
			}
		}
		return len(seen)

	case roadtrip.ScoringTimeBased:
		// Faster finds are worth more: each plate starts at the base
		// value and loses a point per full minute since trip start,
		// floored at 1.
		total := 0
		for _, trip := range trips {
			for _, mark := range trip.Marks {
				minutes := int(mark.SeenAt.Sub(trip.StartedAt) / time.Minute)
				value := roadtrip.TimeBasedPlateValue - minutes
				if value < 1 {
					value = 1
				}
				total += value
			}
		}
		return total

	case roadtrip.ScoringCustom:
		if customPlatePoints <= 0 {
			customPlatePoints = roadtrip.DefaultCustomPlatePoints
		}
		total := 0
		for _, trip := range trips {
			total += len(trip.Marks) * customPlatePoints
		}
		return total
	}
	return 0
}

// snapshotTrips loads the team's associated trips with their plate marks.
// Unknown trip ids are skipped rather than failing the whole game.
func snapshotTrips(tx *gorm.DB, tripIDs datatypes.JSON) ([]TripSnapshot, error) {
	ids := postgres.DecodeStringList(tripIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	var trips []postgres.Trip
	if err := tx.Where("id IN ?", ids).Find(&trips).Error; err != nil {
		return nil, err
	}
	snapshots := make([]TripSnapshot, 0, len(trips))
	for _, trip := range trips {
		var marks []postgres.PlateMark
		if err := tx.Where("trip_id = ?", trip.ID).Order("seen_at").Find(&marks).Error; err != nil {
			return nil, err
		}
		snap := TripSnapshot{TripID: trip.ID, StartedAt: trip.StartedAt}
		for _, mark := range marks {
			snap.Marks = append(snap.Marks, MarkSnapshot{Country: mark.Country, SeenAt: mark.SeenAt})
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}
