package signal

import "github.com/commverse/commverse/internal/protocol"

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.send(c, protocol.KindPong, nil)
}
