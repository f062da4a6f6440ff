// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp3208

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SimPort implements spi.PortCloser and answers MCP3208 conversion requests
// without hardware. The undriven bits of the response are returned high, as
// a floating MISO line typically reads.
type SimPort struct {
	// Value returns the conversion result for the requested channel. Only
	// the 12 low bits are used.
	Value func(channel int) uint16

	mu        sync.Mutex
	connected bool
}

func (s *SimPort) String() string {
	return "mcp3208-sim"
}

// Close implements spi.PortCloser.
func (s *SimPort) Close() error {
	return nil
}

// LimitSpeed implements spi.PortCloser.
func (s *SimPort) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Connect implements spi.Port.
func (s *SimPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil, errors.New("mcp3208: Connect cannot be called twice")
	}
	if bits != 8 {
		return nil, fmt.Errorf("mcp3208: unsupported word size %d", bits)
	}
	s.connected = true
	return &simConn{s: s}, nil
}

type simConn struct {
	s *SimPort
}

func (c *simConn) String() string {
	return c.s.String()
}

func (c *simConn) Duplex() conn.Duplex {
	return conn.Full
}

func (c *simConn) Tx(w, r []byte) error {
	if len(w) != 3 || len(r) != 3 {
		return fmt.Errorf("mcp3208: unexpected frame length w=%d r=%d", len(w), len(r))
	}
	if w[0]&startBit == 0 {
		return errors.New("mcp3208: missing start bit")
	}
	channel := int(w[0]&0x01)<<2 | int(w[1]>>6)
	var v uint16
	if c.s.Value != nil {
		v = c.s.Value(channel) & MaxRaw
	}
	r[0] = 0xff
	r[1] = 0xe0 | byte(v>>8)
	r[2] = byte(v)
	return nil
}

func (c *simConn) TxPackets(p []spi.Packet) error {
	return errors.New("mcp3208: TxPackets is not implemented")
}

var _ spi.PortCloser = &SimPort{}
var _ spi.Conn = &simConn{}
