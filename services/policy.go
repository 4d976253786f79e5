package services

import "github.com/posko-pajak/api-go/models"

// CanMutate reports whether actor may edit or delete the report content.
func CanMutate(actor Actor, report *models.Report) bool {
	return actor.IsAdmin() || (actor.ID != "" && actor.ID == report.UserID)
}

// CanChangeStatus is role based and independent of ownership: moderators may
// triage reports they do not own.
func CanChangeStatus(actor Actor) bool {
	return actor.HasAnyRole(models.RoleAdmin, models.RoleModerator)
}

// CanRunBulk is stricter than CanChangeStatus: bulk operations are admin only.
func CanRunBulk(actor Actor) bool {
	return actor.IsAdmin()
}

func CanViewGlobalStats(actor Actor) bool {
	return actor.IsAdmin()
}

// VisibilityScope returns the owner id a listing must be restricted to.
// An empty result means the actor sees every report.
func VisibilityScope(actor Actor, mine bool) string {
	if actor.IsAdmin() && !mine {
		return ""
	}
	return actor.ID
}
