package scheduling

import (
	"time"

	bookingModel "theater-booking/models/booking"
	bookingTypes "theater-booking/types/booking"

	"gorm.io/gorm"
)

// CheckAvailability is the conflict gate for ordinary create/update. It
// returns nil when the candidate interval is free and a *ConflictError naming
// every overlapping booking otherwise. Callers must run it inside the same
// transaction as the write it guards, or the check-then-act window lets a
// concurrent booking slip in.
func CheckAvailability(tx *gorm.DB, theaterID uint, start, end time.Time, excludeID *uint) error {
	conflicts, err := FindConflicts(lockForUpdate(tx), theaterID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	return &ConflictError{
		TheaterID: theaterID,
		Conflicts: summarize(conflicts),
	}
}

func summarize(conflicts []bookingModel.Booking) []bookingTypes.ConflictSummary {
	summaries := make([]bookingTypes.ConflictSummary, len(conflicts))
	for i, c := range conflicts {
		summaries[i] = bookingTypes.ConflictSummary{
			BookingID:     c.ID,
			Uuid:          c.Uuid,
			StartTime:     c.StartTime,
			EndTime:       c.EndTime,
			PatientName:   c.PatientName,
			ProcedureName: c.ProcedureName,
			SurgeonName:   c.SurgeonName,
		}
	}
	return summaries
}
