package handlers

import (
	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
)

func writeAudit(
	d *audit.Dispatcher,
	p *auth.Principal,
	action string,
	entity string,
	entityID uint,
	meta any,
) {

	ev := audit.Event{
		Action:   action,
		Entity:   entity,
		Metadata: meta,
	}
	if p != nil {
		ev.ActorID = audit.UintPtr(p.ID)
	}
	if entityID != 0 {
		ev.EntityID = audit.UintPtr(entityID)
	}

	d.Dispatch(ev)
}
