// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// PinGroup is a gpio.Group made of discrete output pins, for hosts where the
// display lines are obtained one by one, e.g. with gpioreg.ByName("P1_7").
//
// Bit 0 of a value maps to the first pin.
type PinGroup struct {
	pins []gpio.PinOut
}

// NewPinGroup returns a gpio.Group over pins, in order.
func NewPinGroup(pins ...gpio.PinOut) *PinGroup {
	return &PinGroup{pins: pins}
}

// Pins implements gpio.Group.
func (pg *PinGroup) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(pg.pins))
	for ix, p := range pg.pins {
		pins[ix] = p
	}
	return pins
}

// ByOffset implements gpio.Group.
func (pg *PinGroup) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(pg.pins) {
		return nil
	}
	return pg.pins[offset]
}

// ByName implements gpio.Group.
func (pg *PinGroup) ByName(name string) pin.Pin {
	for _, p := range pg.pins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// ByNumber implements gpio.Group.
func (pg *PinGroup) ByNumber(number int) pin.Pin {
	for _, p := range pg.pins {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

// Out implements gpio.Group. Pins outside mask are left untouched.
func (pg *PinGroup) Out(value, mask gpio.GPIOValue) error {
	for ix, p := range pg.pins {
		bit := gpio.GPIOValue(1) << ix
		if mask&bit == 0 {
			continue
		}
		if err := p.Out(gpio.Level(value&bit != 0)); err != nil {
			return err
		}
	}
	return nil
}

// Read implements gpio.Group. All the pins selected by mask must implement
// gpio.PinIn.
func (pg *PinGroup) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	var value gpio.GPIOValue
	for ix, p := range pg.pins {
		bit := gpio.GPIOValue(1) << ix
		if mask&bit == 0 {
			continue
		}
		in, ok := p.(gpio.PinIn)
		if !ok {
			return 0, gpio.ErrGroupFeatureNotImplemented
		}
		if in.Read() == gpio.High {
			value |= bit
		}
	}
	return value, nil
}

// WaitForEdge is not supported for a group of discrete pins.
func (pg *PinGroup) WaitForEdge(timeout time.Duration) (number int, edge gpio.Edge, err error) {
	return 0, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

// Halt implements conn.Resource. Every pin is halted even if one fails.
func (pg *PinGroup) Halt() error {
	var errs []error
	for _, p := range pg.pins {
		errs = append(errs, p.Halt())
	}
	return errors.Join(errs...)
}

func (pg *PinGroup) String() string {
	names := make([]string, len(pg.pins))
	for ix, p := range pg.pins {
		names[ix] = p.Name()
	}
	return "[" + strings.Join(names, ",") + "]"
}

var _ gpio.Group = &PinGroup{}
