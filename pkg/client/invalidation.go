package client

// QueryKey names a cached read. ID is zero for collection reads.
type QueryKey struct {
	Resource string
	ID       uint
}

const (
	ResourceJobs     = "jobs"
	ResourceJob      = "job"
	ResourceCalendar = "calendar"
	ResourceUsers    = "users"
	ResourceClients  = "clients"
	ResourceInvite   = "invite"
	ResourceSettings = "settings"
)

type MutationKind string

const (
	JobCreated        MutationKind = "job_created"
	JobUpdated        MutationKind = "job_updated"
	JobDeleted        MutationKind = "job_deleted"
	PhaseChanged      MutationKind = "phase_changed"
	WorkItemChanged   MutationKind = "work_item_changed"
	NoteChanged       MutationKind = "note_changed"
	FloorplanChanged  MutationKind = "floorplan_changed"
	InviteRegenerated MutationKind = "invite_regenerated"
	UserChanged       MutationKind = "user_changed"
	UserDeleted       MutationKind = "user_deleted"
	ClientCreated     MutationKind = "client_created"
	SettingsUpdated   MutationKind = "settings_updated"
)

// Mutation describes a completed write. JobID is the job it touched, when
// there is one.
type Mutation struct {
	Kind  MutationKind
	JobID uint
}

// Invalidates lists the cached reads a mutation makes stale.
func Invalidates(m Mutation) []QueryKey {
	jobs := QueryKey{Resource: ResourceJobs}
	job := QueryKey{Resource: ResourceJob, ID: m.JobID}
	calendar := QueryKey{Resource: ResourceCalendar}

	switch m.Kind {
	case JobCreated:
		return []QueryKey{jobs}
	case JobUpdated:
		return []QueryKey{jobs, job, calendar}
	case JobDeleted:
		return []QueryKey{jobs, job, calendar}
	case PhaseChanged, WorkItemChanged:
		return []QueryKey{job, calendar}
	case NoteChanged, FloorplanChanged:
		return []QueryKey{job}
	case InviteRegenerated:
		return []QueryKey{{Resource: ResourceInvite}}
	case UserChanged:
		return []QueryKey{{Resource: ResourceUsers}, {Resource: ResourceClients}}
	case UserDeleted:
		// jobs of a deleted client go with it
		return []QueryKey{{Resource: ResourceUsers}, {Resource: ResourceClients}, jobs, calendar}
	case ClientCreated:
		return []QueryKey{{Resource: ResourceClients}}
	case SettingsUpdated:
		return []QueryKey{{Resource: ResourceSettings}, {Resource: ResourceUsers}}
	}
	return nil
}
