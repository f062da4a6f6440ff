// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor periodically shows a thermometer reading on a character
// display.
//
// The first line holds a title, the second line the temperature in degrees
// Celsius, refreshed every second until the context is canceled. On the way
// out a farewell replaces the title.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3"
)

const (
	// Title is shown on line 1 while running.
	Title = "Temp Monitor"
	// Farewell is shown on line 1 when stopping.
	Farewell = "Goodbye!"

	// Interval is the time between two readings.
	Interval = time.Second
	// StartupPause is how long the title is shown alone.
	StartupPause = time.Second
	// FarewellPause is how long the farewell stays before the caller releases
	// the hardware.
	FarewellPause = 500 * time.Millisecond
)

// Display is a character display addressed line by line, lines being 1
// based.
type Display interface {
	conn.Resource
	PrintLine(text string, line int) error
}

// Thermometer returns the current temperature in °C.
type Thermometer interface {
	conn.Resource
	ReadCelsius() (float64, error)
}

// Monitor ties a Thermometer to a Display.
type Monitor struct {
	display Display
	therm   Thermometer
	log     *slog.Logger

	interval time.Duration
	startup  time.Duration
	farewell time.Duration
}

// New returns a Monitor. It doesn't touch the hardware. A nil logger
// discards.
func New(display Display, therm Thermometer, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{
		display:  display,
		therm:    therm,
		log:      logger,
		interval: Interval,
		startup:  StartupPause,
		farewell: FarewellPause,
	}
}

func (m *Monitor) String() string {
	return fmt.Sprintf("Monitor{%s, %s}", m.therm, m.display)
}

// Run shows the title, then refreshes the reading until ctx is canceled or a
// read or write fails.
//
// Whatever the outcome, the farewell is shown before returning and stays up
// for FarewellPause. Cancellation is a normal stop and returns nil.
func (m *Monitor) Run(ctx context.Context) (err error) {
	defer func() {
		m.log.Info("stopping", "err", err)
		if ferr := m.display.PrintLine(Farewell, 1); ferr != nil {
			m.log.Error("farewell", "err", ferr)
			if err == nil {
				err = fmt.Errorf("monitor: %w", ferr)
			}
		}
		time.Sleep(m.farewell)
	}()

	m.log.Info("starting", "thermometer", m.therm.String(), "display", m.display.String())
	if err := m.display.PrintLine(Title, 1); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	if !wait(ctx, m.startup) {
		return nil
	}
	for {
		if err := m.Step(); err != nil {
			return err
		}
		if !wait(ctx, m.interval) {
			return nil
		}
	}
}

// Step reads the temperature once and shows it on line 2.
func (m *Monitor) Step() error {
	c, err := m.therm.ReadCelsius()
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	s := FormatCelsius(c)
	m.log.Debug("reading", "celsius", c)
	if err := m.display.PrintLine(s, 2); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}

// FormatCelsius returns the shortest decimal representation of v with at
// least one fractional digit, followed by " C".
//
// 24.18 gives "24.18 C", 0 gives "0.0 C".
func FormatCelsius(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s + " C"
}

// wait returns false if ctx is done before d elapses.
func wait(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
