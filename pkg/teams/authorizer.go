package teams

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// Authorizer decides who may run captain-only operations on a registration.
type Authorizer interface {
	CanManage(ctx context.Context, actorID uuid.UUID, reg *domain.Registration) (bool, error)
}

// CaptainOnly admits the registration's captain and nobody else.
type CaptainOnly struct{}

// CanManage implements Authorizer.
func (CaptainOnly) CanManage(_ context.Context, actorID uuid.UUID, reg *domain.Registration) (bool, error) {
	return reg.IsCaptain(actorID), nil
}

// CaptainOrAdmin admits the captain and any account the lookup reports as
// an admin.
type CaptainOrAdmin struct {
	Admins AdminLookup
}

// CanManage implements Authorizer.
func (a CaptainOrAdmin) CanManage(ctx context.Context, actorID uuid.UUID, reg *domain.Registration) (bool, error) {
	if reg.IsCaptain(actorID) {
		return true, nil
	}
	if a.Admins == nil {
		return false, nil
	}
	return a.Admins.IsAdmin(ctx, actorID)
}
