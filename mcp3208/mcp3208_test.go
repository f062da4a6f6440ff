// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp3208

import (
	"bytes"
	"testing"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func playback(ops ...conntest.IO) *spitest.Playback {
	return &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
}

func TestReadRaw(t *testing.T) {
	tests := []struct {
		channel  int
		w        []byte
		r        []byte
		expected uint16
	}{
		{0, []byte{0x06, 0x00, 0x00}, []byte{0x00, 0x01, 0x2c}, 300},
		{0, []byte{0x06, 0x00, 0x00}, []byte{0x00, 0x00, 0x00}, 0},
		{0, []byte{0x06, 0x00, 0x00}, []byte{0xff, 0xef, 0xff}, 4095},
		{1, []byte{0x06, 0x40, 0x00}, []byte{0x00, 0x00, 0x64}, 100},
		{3, []byte{0x06, 0xc0, 0x00}, []byte{0x00, 0x08, 0x00}, 2048},
		{4, []byte{0x07, 0x00, 0x00}, []byte{0x00, 0x0a, 0xbc}, 0xabc},
		{7, []byte{0x07, 0xc0, 0x00}, []byte{0x00, 0x00, 0x01}, 1},
		// Out of range channels are masked, not rejected.
		{9, []byte{0x06, 0x40, 0x00}, []byte{0x00, 0x00, 0x02}, 2},
	}
	for _, test := range tests {
		pb := playback(conntest.IO{W: test.w, R: test.r})
		dev, err := NewSPI(pb, nil)
		if err != nil {
			t.Fatal(err)
		}
		raw, err := dev.ReadRaw(test.channel)
		if err != nil {
			t.Errorf("ReadRaw(%d) error %v", test.channel, err)
			continue
		}
		if raw != test.expected {
			t.Errorf("ReadRaw(%d) = %d, expected %d", test.channel, raw, test.expected)
		}
		if err := pb.Close(); err != nil {
			t.Error(err)
		}
	}
}

func TestReadDifferential(t *testing.T) {
	pb := playback(
		conntest.IO{W: []byte{0x04, 0x00, 0x00}, R: []byte{0x00, 0x00, 0x10}},
		conntest.IO{W: []byte{0x05, 0x40, 0x00}, R: []byte{0x00, 0x0f, 0xff}},
	)
	dev, err := NewSPI(pb, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := dev.ReadDifferential(0); err != nil || v != 0x10 {
		t.Errorf("ReadDifferential(0) = %d, %v", v, err)
	}
	if v, err := dev.ReadDifferential(5); err != nil || v != MaxRaw {
		t.Errorf("ReadDifferential(5) = %d, %v", v, err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestReadError(t *testing.T) {
	// An empty playback fails the first transaction.
	dev, err := NewSPI(playback(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.ReadRaw(0); err == nil {
		t.Error("expected error from a failing bus")
	}
	if _, err := dev.Pin(0).Read(); err == nil {
		t.Error("expected error from a failing bus")
	}
}

func TestNewSPI(t *testing.T) {
	if _, err := NewSPI(playback(), &Opts{}); err == nil {
		t.Error("expected error for a zero reference voltage")
	}
	pb := playback()
	if _, err := NewSPI(pb, nil); err != nil {
		t.Fatal(err)
	}
	// spitest.Playback refuses a second Connect.
	if _, err := NewSPI(pb, nil); err == nil {
		t.Error("expected error on second Connect")
	}
}

func TestPin(t *testing.T) {
	pb := playback(conntest.IO{W: []byte{0x06, 0x80, 0x00}, R: []byte{0x00, 0x0f, 0xff}})
	dev, err := NewSPI(pb, &Opts{Vref: 5 * physic.Volt, Frequency: 2 * physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	var p analog.PinADC = dev.Pin(2)
	if p.Name() != "MCP3208_CH2" || p.Number() != 2 || p.Function() != "ADC" {
		t.Errorf("unexpected pin identity %s/%d/%s", p.Name(), p.Number(), p.Function())
	}
	lo, hi := p.Range()
	if lo != (analog.Sample{}) || hi != (analog.Sample{Raw: 4095, V: 5 * physic.Volt}) {
		t.Errorf("Range() = %v, %v", lo, hi)
	}
	s, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if s.Raw != 4095 || s.V != 5*physic.Volt {
		t.Errorf("Read() = %+v", s)
	}
	if err := dev.Pin(0).SetFunc(analog.DAC); err == nil {
		t.Error("expected SetFunc(DAC) to fail")
	}
}

func TestToVoltage(t *testing.T) {
	vref := DefaultOpts.Vref
	tests := []struct {
		raw      uint16
		expected physic.ElectricPotential
	}{
		{0, 0},
		{4095, 3300 * physic.MilliVolt},
		{300, 241758241 * physic.NanoVolt},
		{100, 80586080 * physic.NanoVolt},
	}
	for _, test := range tests {
		if v := toVoltage(test.raw, vref); v != test.expected {
			t.Errorf("toVoltage(%d) = %s, expected %s", test.raw, v, test.expected)
		}
	}
}

func TestSimPort(t *testing.T) {
	var asked []int
	sim := &SimPort{Value: func(channel int) uint16 {
		asked = append(asked, channel)
		return 300 + uint16(channel)
	}}
	record := &spitest.Record{Port: sim}
	dev, err := NewSPI(record, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range []int{0, 5} {
		v, err := dev.ReadRaw(ch)
		if err != nil {
			t.Fatal(err)
		}
		if v != 300+uint16(ch) {
			t.Errorf("ReadRaw(%d) = %d", ch, v)
		}
	}
	if len(asked) != 2 || asked[0] != 0 || asked[1] != 5 {
		t.Errorf("SimPort asked for channels %v", asked)
	}
	if len(record.Ops) != 2 || !bytes.Equal(record.Ops[0].R, []byte{0xff, 0xe1, 0x2c}) {
		t.Errorf("recorded ops %#v", record.Ops)
	}
	if _, err := sim.Connect(physic.MegaHertz, SpiMode, SpiBits); err == nil {
		t.Error("expected error on second Connect")
	}

	c, _ := (&SimPort{}).Connect(0, SpiMode, 8)
	if err := c.Tx([]byte{0x00, 0x00, 0x00}, make([]byte, 3)); err == nil {
		t.Error("expected error for a frame without start bit")
	}
	if err := c.Tx([]byte{0x06}, make([]byte, 1)); err == nil {
		t.Error("expected error for a short frame")
	}
}

func TestString(t *testing.T) {
	dev, err := NewSPI(playback(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := dev.String()
	t.Log(s)
	if len(s) == 0 {
		t.Error("invalid String() result")
	}
}
