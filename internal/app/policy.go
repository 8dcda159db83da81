package app

import "github.com/commverse/commverse/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to members whose send buffers stay full.
type Policy interface {
	OnBackPressure(roster core.Roster, member core.MemberSession) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(roster core.Roster, member core.MemberSession) BackpressureAction {
	return KickMember
}
