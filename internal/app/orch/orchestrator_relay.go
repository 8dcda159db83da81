package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/protocol"
)

// RelayOffer forwards an SDP offer verbatim to its target, stamped with the
// caller's id and name. The hub never validates the SDP content.
func (o *Orchestrator) RelayOffer(sid core.SID, p protocol.SessionDescription) {
	roster, _, ok := o.rosterOf(sid)
	if !ok {
		return
	}
	sess, _ := roster.Get(sid)
	out := protocol.SessionDescription{
		Caller: sid,
		SDP:    p.SDP,
		Name:   senderName(sess, p.Name),
	}
	o.relay(roster, sid, p.Target, protocol.KindOffer, out)
}

// RelayAnswer forwards an SDP answer, stamped with the answerer's id and name.
func (o *Orchestrator) RelayAnswer(sid core.SID, p protocol.SessionDescription) {
	roster, _, ok := o.rosterOf(sid)
	if !ok {
		return
	}
	sess, _ := roster.Get(sid)
	out := protocol.SessionDescription{
		Answerer: sid,
		SDP:      p.SDP,
		Name:     senderName(sess, p.Name),
	}
	o.relay(roster, sid, p.Target, protocol.KindAnswer, out)
}

// RelayCandidate forwards an ICE candidate body untouched, tagged with the
// sender's id.
func (o *Orchestrator) RelayCandidate(sid core.SID, p protocol.ICECandidate) {
	roster, _, ok := o.rosterOf(sid)
	if !ok {
		return
	}
	out := protocol.ICECandidate{
		From:      sid,
		Candidate: p.Candidate,
	}
	o.relay(roster, sid, p.Target, protocol.KindICECandidate, out)
}

// relay delivers to exactly one target. Delivery is at-most-once; when the
// target is gone the sender gets relay-failed so its session can reset
// instead of hanging in Offer-Sent.
func (o *Orchestrator) relay(roster core.Roster, from, target core.SID, kind protocol.Kind, payload any) {
	if err := o.sendTo(roster, target, kind, payload); err != nil {
		log.Warn().Err(err).
			Str("module", "orch").
			Str("from", string(from)).
			Str("target", string(target)).
			Str("kind", string(kind)).
			Msg("relay miss")
		_ = o.sendTo(roster, from, protocol.KindRelayFailed, protocol.RelayFailed{Target: target, Kind: kind})
	}
}

func senderName(sess core.MemberSession, fallback string) string {
	if sess != nil && sess.Participant().DisplayName != "" {
		return sess.Participant().DisplayName
	}
	return fallback
}
