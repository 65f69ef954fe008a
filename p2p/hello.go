// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package p2p

// Base protocol message codes, reserved below any subprotocol's own codes
// per devp2p convention.
const (
	MsgHello      uint64 = 0x00
	MsgDisconnect uint64 = 0x01
	MsgPing       uint64 = 0x02
	MsgPong       uint64 = 0x03
	// BaseProtocolLength is how many message codes the base protocol
	// reserves; a subprotocol's own codes start at this offset.
	BaseProtocolLength uint64 = 0x10
)

// Capability is a named (name, version) tuple a peer advertises in Hello.
type Capability struct {
	Name    string
	Version uint64
}

// Hello is the first packet exchanged after the handshake's session keys
// are established, per §4.H's "Session protocol".
type Hello struct {
	ProtocolVersion uint64
	ClientID        string
	Capabilities    []Capability
	ListenPort      uint64
	NodeID          []byte
}

// Intersect returns the capabilities both Hellos share, matched by name
// with the higher of the two advertised versions kept (mirrors devp2p cap
// negotiation: same-named capabilities pick the newer version).
func Intersect(local, remote []Capability) []Capability {
	remoteByName := make(map[string]uint64, len(remote))
	for _, c := range remote {
		remoteByName[c.Name] = c.Version
	}
	var shared []Capability
	for _, c := range local {
		if v, ok := remoteByName[c.Name]; ok {
			version := c.Version
			if v > version {
				version = v
			}
			shared = append(shared, Capability{Name: c.Name, Version: version})
		}
	}
	return shared
}
