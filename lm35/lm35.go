// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lm35 converts the output of an LM35 class linear temperature
// sensor, sampled by any analog.PinADC, into a temperature.
//
// The LM35 outputs 10mV/°C with 0V at 0°C. The reading is not bounded: a
// disconnected or saturated input yields an implausible temperature, which is
// returned as is.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/lm35.pdf
package lm35

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// DefaultOpts matches the LM35, LM35A, LM35C and LM35D.
var DefaultOpts = Opts{
	Sensitivity: 10 * physic.MilliVolt,
}

// Opts holds the sensor characteristics.
type Opts struct {
	// Sensitivity is the output voltage change for 1°C.
	Sensitivity physic.ElectricPotential
}

// Dev is an LM35 read through an ADC input.
type Dev struct {
	mu   sync.Mutex
	adc  analog.PinADC
	full analog.Sample
	opts Opts
}

// New returns a Dev reading adc. The full scale of the converter is taken
// from adc.Range(). If opts is nil, DefaultOpts is used.
func New(adc analog.PinADC, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Sensitivity <= 0 {
		return nil, fmt.Errorf("lm35: invalid sensitivity %s", opts.Sensitivity)
	}
	_, full := adc.Range()
	if full.Raw <= 0 || full.V <= 0 {
		return nil, fmt.Errorf("lm35: %s doesn't report its full scale", adc)
	}
	return &Dev{adc: adc, full: full, opts: *opts}, nil
}

// ReadCelsius samples the sensor and returns the temperature in °C, rounded
// to 2 decimals.
func (d *Dev) ReadCelsius() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.adc.Read()
	if err != nil {
		return 0, fmt.Errorf("lm35: %w", err)
	}
	return round2(d.celsius(s.Raw)), nil
}

// Sense implements physic.SenseEnv. Only Temperature is set.
func (d *Dev) Sense(env *physic.Env) error {
	c, err := d.ReadCelsius()
	if err != nil {
		return err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(math.Round(c*1000))*physic.MilliKelvin
	return nil
}

// SenseContinuous implements physic.SenseEnv. It is not supported; poll
// Sense() instead.
func (d *Dev) SenseContinuous(time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("lm35: not implemented")
}

// Precision implements physic.SenseEnv. It is the temperature step of one
// ADC count.
func (d *Dev) Precision(env *physic.Env) {
	env.Temperature = physic.Temperature(math.Round(d.celsius(1) * float64(physic.Kelvin)))
	env.Pressure = 0
	env.Humidity = 0
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return d.adc.Halt()
}

func (d *Dev) String() string {
	return fmt.Sprintf("lm35{%s}", d.adc)
}

// celsius converts a raw count: first to volts against the reference, then
// to degrees with the sensor slope.
func (d *Dev) celsius(raw int32) float64 {
	vref := float64(d.full.V) / float64(physic.Volt)
	voltage := float64(raw) * vref / float64(d.full.Raw)
	return voltage * (float64(physic.Volt) / float64(d.opts.Sensitivity))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
