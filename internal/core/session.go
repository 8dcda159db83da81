package core

import "github.com/commverse/commverse/internal/domain"

// memberSession pairs participant meta with its signal transport.
type memberSession struct {
	participant *domain.Participant
	conn        SignalConnection
}

func NewMemberSession(p *domain.Participant, conn SignalConnection) MemberSession {
	return &memberSession{participant: p, conn: conn}
}

func (m *memberSession) Participant() *domain.Participant { return m.participant }
func (m *memberSession) Signal() SignalConnection         { return m.conn }
