// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp3208

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
)

const (
	// Channels is the number of single ended inputs.
	Channels = 8
	// MaxRaw is the full scale conversion result.
	MaxRaw = 1<<12 - 1

	startBit  byte = 0x04
	singleBit byte = 0x02
)

var (
	SpiMode = spi.Mode0
	SpiBits = 8
)

// DefaultOpts is the wiring of a 3.3V board with the reference tied to VDD.
var DefaultOpts = Opts{
	Vref:      3300 * physic.MilliVolt,
	Frequency: physic.MegaHertz,
}

// Opts holds the configuration of the converter.
type Opts struct {
	// Vref is the voltage applied on the VREF pin, i.e. the input voltage
	// that reads as MaxRaw.
	Vref physic.ElectricPotential
	// Frequency is the SPI clock. The chip is rated 1MHz at 2.7V and 2MHz
	// at 5V.
	Frequency physic.Frequency
}

// Dev is a handle to an MCP3208.
type Dev struct {
	mu   sync.Mutex
	c    spi.Conn
	vref physic.ElectricPotential
}

// NewSPI returns a Dev connected on p. If opts is nil, DefaultOpts is used.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Vref <= 0 {
		return nil, fmt.Errorf("mcp3208: invalid reference voltage %s", opts.Vref)
	}
	c, err := p.Connect(opts.Frequency, SpiMode, SpiBits)
	if err != nil {
		return nil, fmt.Errorf("mcp3208: %w", err)
	}
	return &Dev{c: c, vref: opts.Vref}, nil
}

// ReadRaw returns the single ended conversion of channel, in [0, MaxRaw].
//
// The channel is not validated; only its 3 low bits are sent.
func (d *Dev) ReadRaw(channel int) (uint16, error) {
	return d.read(channel, true)
}

// ReadDifferential returns the conversion of a pseudo-differential pair.
// Pair 0 is CH0 (+) / CH1 (-), pair 1 is CH1 (+) / CH0 (-), and so on up to
// pair 7 which is CH7 (+) / CH6 (-).
func (d *Dev) ReadDifferential(pair int) (uint16, error) {
	return d.read(pair, false)
}

// Pin returns the analog.PinADC view of a single ended channel.
func (d *Dev) Pin(channel int) *Pin {
	return &Pin{d: d, channel: channel}
}

// Vref returns the reference voltage the Dev was configured with.
func (d *Dev) Vref() physic.ElectricPotential {
	return d.vref
}

// Halt implements conn.Resource. The chip powers down between conversions on
// its own, so there is nothing to do.
func (d *Dev) Halt() error {
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("mcp3208{%s}", d.c)
}

func (d *Dev) read(channel int, single bool) (uint16, error) {
	w := request(channel, single)
	r := make([]byte, len(w))
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.c.Tx(w, r); err != nil {
		return 0, fmt.Errorf("mcp3208: %w", err)
	}
	return decode(r), nil
}

// request builds the 3 byte conversion frame. For channels 0 to 3 in single
// ended mode the first byte is 0x06 and the second is channel<<6.
func request(channel int, single bool) []byte {
	b0 := startBit | byte(channel>>2)&0x01
	if single {
		b0 |= singleBit
	}
	return []byte{b0, byte(channel&0x03) << 6, 0x00}
}

// decode extracts the 12 bit result from the response frame. The high bits
// of the second byte are not driven by the chip and are discarded.
func decode(r []byte) uint16 {
	return uint16(r[1]&0x0f)<<8 | uint16(r[2])
}

// Pin is one single ended input of the converter.
//
// Implements analog.PinADC.
type Pin struct {
	d       *Dev
	channel int
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return fmt.Sprintf("MCP3208_CH%d", p.channel)
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.channel
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return string(p.Func())
}

// Func implements pin.PinFunc.
func (p *Pin) Func() pin.Func {
	return analog.ADC
}

// SupportedFuncs implements pin.PinFunc.
func (p *Pin) SupportedFuncs() []pin.Func {
	return []pin.Func{analog.ADC}
}

// SetFunc implements pin.PinFunc. Only analog.ADC is supported.
func (p *Pin) SetFunc(f pin.Func) error {
	if f != analog.ADC {
		return fmt.Errorf("mcp3208: %s can't be set to %s", p.Name(), f)
	}
	return nil
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Range implements analog.PinADC.
func (p *Pin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: MaxRaw, V: p.d.vref}
}

// Read implements analog.PinADC.
func (p *Pin) Read() (analog.Sample, error) {
	raw, err := p.d.ReadRaw(p.channel)
	if err != nil {
		return analog.Sample{}, err
	}
	return analog.Sample{Raw: int32(raw), V: toVoltage(raw, p.d.vref)}, nil
}

func (p *Pin) String() string {
	return p.Name()
}

func toVoltage(raw uint16, vref physic.ElectricPotential) physic.ElectricPotential {
	return physic.ElectricPotential(int64(raw) * int64(vref) / MaxRaw)
}

var _ conn.Resource = &Dev{}
var _ analog.PinADC = &Pin{}
var _ pin.PinFunc = &Pin{}
