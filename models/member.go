package models

// MemberStatus is a technician's availability state as reported by the
// roster. The core never writes it.
type MemberStatus string

const (
	MemberAvailable MemberStatus = "available"
	MemberBusy      MemberStatus = "busy"
	MemberOffline   MemberStatus = "offline"
)

// TeamMember is a technician referenced by tasks. The roster is an
// external collaborator; the core reads it for statistics only.
type TeamMember struct {
	ID     string       `json:"id" yaml:"id" validate:"required"`
	Name   string       `json:"name" yaml:"name" validate:"required"`
	Status MemberStatus `json:"status" yaml:"status" validate:"required,oneof=available busy offline"`
}

// Active reports whether the technician is on shift at all. Busy still
// counts as active; only offline does not.
func (m TeamMember) Active() bool {
	return m.Status != MemberOffline
}
