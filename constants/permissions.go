package constants

// Hospital staff permissions
const (
	// Admin permissions
	PermSuperAdminFull  = "theater-booking.super-admin.full-permit"
	PermSchedulerFull   = "theater-booking.scheduler.full-permit"
	PermSurgeonFull     = "theater-booking.surgeon.full-permit"
	PermChargeNurseFull = "theater-booking.charge-nurse.full-permit"
	PermViewerRead      = "theater-booking.viewer.read-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	SchedulingWritePermissions = []string{
		PermSuperAdminFull,
		PermSchedulerFull,
		PermChargeNurseFull,
	}

	EscalationPermissions = []string{
		PermSuperAdminFull,
		PermSurgeonFull,
		PermChargeNurseFull,
	}
)
