// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mana-ethereum/mana-sub006/crypto"
)

// bootnode is one parsed --bootnodes entry: a peer's static public key and
// dial address, devp2p's enode:// URL reduced to the two fields this node
// actually needs (no discovery, so no explicit node ID distance metrics).
type bootnode struct {
	pubkey *ecdsa.PublicKey
	addr   string
}

// parseEnode parses "enode://<128-hex-char pubkey>@host:port", the devp2p
// static-node URL format, skipping discovery's distance/fork-id query
// parameters entirely since peer discovery is out of scope here.
func parseEnode(url string) (*bootnode, error) {
	const scheme = "enode://"
	if !strings.HasPrefix(url, scheme) {
		return nil, fmt.Errorf("cmd/mana: bootnode %q must start with enode://", url)
	}
	rest := url[len(scheme):]
	at := strings.IndexByte(rest, '@')
	if at < 0 {
		return nil, fmt.Errorf("cmd/mana: bootnode %q missing @host:port", url)
	}
	pubHex, addr := rest[:at], rest[at+1:]
	if q := strings.IndexByte(addr, '?'); q >= 0 {
		addr = addr[:q]
	}
	pubBytes, err := hex.DecodeString(pubHex)
	if err != nil || len(pubBytes) != 64 {
		return nil, fmt.Errorf("cmd/mana: bootnode %q has an invalid 64-byte public key", url)
	}
	// enode keys are raw X||Y; elliptic.Unmarshal expects the SEC1
	// uncompressed-point prefix byte ahead of them.
	uncompressed := append([]byte{0x04}, pubBytes...)
	x, y := elliptic.Unmarshal(crypto.S256(), uncompressed)
	if x == nil {
		return nil, fmt.Errorf("cmd/mana: bootnode %q public key is not on curve", url)
	}
	return &bootnode{pubkey: &ecdsa.PublicKey{Curve: crypto.S256(), X: x, Y: y}, addr: addr}, nil
}

func parseBootnodes(csv string) ([]*bootnode, error) {
	if csv == "" {
		return nil, nil
	}
	var nodes []*bootnode
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		node, err := parseEnode(part)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
