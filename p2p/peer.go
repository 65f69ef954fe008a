// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package p2p

import (
	"net"
	"time"

	"github.com/mana-ethereum/mana-sub006/log"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

const (
	handshakeTimeout = 10 * time.Second
	pingPongTimeout  = 10 * time.Second
	outboundQueueLen = 16
)

// Peer owns one TCP connection's handshake state and frame codec, per §5's
// network domain: one task per peer, communicating with the rest of the
// system only through bounded queues.
type Peer struct {
	conn  net.Conn
	codec *FrameCodec
	log   log.Logger

	Local              Hello
	Remote             Hello
	SharedCapabilities []Capability

	out     chan wireMsg
	Inbound chan wireMsg
	done    chan struct{}
}

// NewPeer wraps an already-connected socket and its handshake-derived frame
// codec. Call Handshake, then Run.
func NewPeer(conn net.Conn, codec *FrameCodec, local Hello) *Peer {
	return &Peer{
		conn:    conn,
		codec:   codec,
		log:     log.New("peer", conn.RemoteAddr()),
		Local:   local,
		out:     make(chan wireMsg, outboundQueueLen),
		Inbound: make(chan wireMsg, outboundQueueLen),
		done:    make(chan struct{}),
	}
}

// Handshake exchanges Hello packets under §5's 10s accept-to-active-session
// budget and checks the capability intersection is non-empty.
func (p *Peer) Handshake() error {
	if err := p.conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}
	defer p.conn.SetDeadline(time.Time{})

	helloData, err := rlp.EncodeToBytes(&p.Local)
	if err != nil {
		return err
	}
	writeErr := make(chan error, 1)
	go func() { writeErr <- p.codec.WriteFrame(MsgHello, helloData) }()

	code, data, err := p.codec.ReadFrame()
	if err != nil {
		return err
	}
	if err := <-writeErr; err != nil {
		return err
	}
	if code != MsgHello {
		_ = p.disconnect(DiscProtocolError)
		return DiscProtocolError
	}
	var remote Hello
	if err := rlp.DecodeBytes(data, &remote); err != nil {
		_ = p.disconnect(DiscProtocolError)
		return err
	}

	shared := Intersect(p.Local.Capabilities, remote.Capabilities)
	if len(shared) == 0 {
		_ = p.disconnect(DiscUselessPeer)
		return ErrIncompatibleCapabilities
	}
	p.Remote = remote
	p.SharedCapabilities = shared
	return nil
}

// Run drains the outbound queue and reads frames until the peer
// disconnects, a ping/pong timeout fires, or a MAC/protocol error occurs.
// Non-base-protocol messages are delivered to Inbound for the subprotocol
// layer (eth/protocols/eth) to consume.
func (p *Peer) Run() error {
	writerDone := make(chan error, 1)
	go func() {
		for {
			select {
			case msg, ok := <-p.out:
				if !ok {
					writerDone <- nil
					return
				}
				if err := p.codec.WriteFrame(msg.Code, msg.Data); err != nil {
					writerDone <- err
					return
				}
			case <-p.done:
				writerDone <- nil
				return
			}
		}
	}()

	for {
		if err := p.conn.SetReadDeadline(time.Now().Add(pingPongTimeout)); err != nil {
			close(p.done)
			return err
		}
		code, data, err := p.codec.ReadFrame()
		if err != nil {
			close(p.done)
			return err
		}
		switch code {
		case MsgPing:
			p.Send(MsgPong, nil)
		case MsgPong:
			// deadline already refreshed above; nothing further to do.
		case MsgDisconnect:
			close(p.done)
			return nil
		default:
			select {
			case p.Inbound <- wireMsg{Code: code, Data: data}:
			default:
				p.log.Warn("dropping inbound message, consumer not keeping up", "code", code)
			}
		}
	}
}

// Send enqueues an outbound message; it never blocks past the peer's
// lifetime.
func (p *Peer) Send(code uint64, data []byte) {
	select {
	case p.out <- wireMsg{Code: code, Data: data}:
	case <-p.done:
	}
}

func (p *Peer) disconnect(reason DisconnectReason) error {
	data, err := rlp.EncodeToBytes(&struct{ Reason uint64 }{uint64(reason)})
	if err != nil {
		return err
	}
	return p.codec.WriteFrame(MsgDisconnect, data)
}

// Disconnect sends a Disconnect frame with reason and tears the peer down.
// Subprotocol layers (eth/protocols/eth) call this when their own handshake
// (e.g. Status mismatch) rejects the peer.
func (p *Peer) Disconnect(reason DisconnectReason) error {
	err := p.disconnect(reason)
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return err
}
