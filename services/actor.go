package services

import "github.com/posko-pajak/api-go/models"

// Actor is the authenticated identity an operation runs on behalf of.
type Actor struct {
	ID    string
	Roles []string
}

func NewActor(id string, roles ...string) Actor {
	return Actor{ID: id, Roles: roles}
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if a.HasRole(role) {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(models.RoleAdmin)
}
