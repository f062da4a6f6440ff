// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/tempmon/lcdsim"
	"github.com/GermanBionicSystems/tempmon/lm35"
	"github.com/GermanBionicSystems/tempmon/mcp3208"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi/spitest"
)

// fakeDisplay keeps every PrintLine call.
type fakeDisplay struct {
	calls []string
	err   error
	// failOn makes PrintLine fail for this text.
	failOn string
}

func (f *fakeDisplay) String() string { return "fakeDisplay" }
func (f *fakeDisplay) Halt() error    { return nil }

func (f *fakeDisplay) PrintLine(text string, line int) error {
	if text == f.failOn {
		return f.err
	}
	f.calls = append(f.calls, string(rune('0'+line))+":"+text)
	return nil
}

// fakeThermometer returns the queued readings, calling after on each one.
type fakeThermometer struct {
	readings []float64
	err      error
	after    func()
}

func (f *fakeThermometer) String() string { return "fakeThermometer" }
func (f *fakeThermometer) Halt() error    { return nil }

func (f *fakeThermometer) ReadCelsius() (float64, error) {
	if len(f.readings) == 0 {
		return 0, f.err
	}
	c := f.readings[0]
	f.readings = f.readings[1:]
	if f.after != nil {
		f.after()
	}
	return c, nil
}

func fast(m *Monitor) *Monitor {
	m.interval = 0
	m.startup = 0
	m.farewell = 0
	return m
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := 0
	th := &fakeThermometer{readings: []float64{24.18, 0, 330}}
	th.after = func() {
		if n++; n == 3 {
			cancel()
		}
	}
	d := &fakeDisplay{}
	if err := fast(New(d, th, nil)).Run(ctx); err != nil {
		t.Fatal(err)
	}
	expected := []string{"1:Temp Monitor", "2:24.18 C", "2:0.0 C", "2:330.0 C", "1:Goodbye!"}
	if strings.Join(d.calls, "|") != strings.Join(expected, "|") {
		t.Fatalf("calls %q\nexpected %q", d.calls, expected)
	}
}

func TestRunCanceledDuringStartup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDisplay{}
	m := New(d, &fakeThermometer{}, nil)
	m.farewell = 0
	if err := m.Run(ctx); err != nil {
		t.Fatal(err)
	}
	expected := []string{"1:Temp Monitor", "1:Goodbye!"}
	if strings.Join(d.calls, "|") != strings.Join(expected, "|") {
		t.Fatalf("calls %q, expected %q", d.calls, expected)
	}
}

func TestRunReadFailure(t *testing.T) {
	errRead := errors.New("spi: bus failure")
	d := &fakeDisplay{}
	th := &fakeThermometer{readings: []float64{21.5}, err: errRead}
	err := fast(New(d, th, nil)).Run(context.Background())
	if !errors.Is(err, errRead) {
		t.Fatalf("Run() = %v, expected wrapped %v", err, errRead)
	}
	if !strings.HasPrefix(err.Error(), "monitor: ") {
		t.Errorf("Run() error %q is not prefixed", err)
	}
	if last := d.calls[len(d.calls)-1]; last != "1:Goodbye!" {
		t.Errorf("farewell not shown after a fault, last call %q", last)
	}
}

func TestRunDisplayFailure(t *testing.T) {
	errWrite := errors.New("gpio: write failed")
	d := &fakeDisplay{failOn: Title, err: errWrite}
	err := fast(New(d, &fakeThermometer{}, nil)).Run(context.Background())
	if !errors.Is(err, errWrite) {
		t.Fatalf("Run() = %v, expected wrapped %v", err, errWrite)
	}
	if len(d.calls) != 1 || d.calls[0] != "1:Goodbye!" {
		t.Errorf("calls %q", d.calls)
	}

	// A failing farewell is reported when nothing else went wrong.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d = &fakeDisplay{failOn: Farewell, err: errWrite}
	if err := fast(New(d, &fakeThermometer{}, nil)).Run(ctx); !errors.Is(err, errWrite) {
		t.Errorf("Run() = %v, expected wrapped %v", err, errWrite)
	}
}

func TestStepEndToEnd(t *testing.T) {
	// The converter answers 300 on channel 0.
	pb := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{0x06, 0x00, 0x00}, R: []byte{0x00, 0x01, 0x2c}},
			},
			DontPanic: true,
		},
	}
	adc, err := mcp3208.NewSPI(pb, nil)
	if err != nil {
		t.Fatal(err)
	}
	sensor, err := lm35.New(adc.Pin(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	opts := lcdsim.DefaultOpts
	opts.W = &bytes.Buffer{}
	lcd, err := lcdsim.New(&opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := New(lcd, sensor, nil).Step(); err != nil {
		t.Fatal(err)
	}
	if l := lcd.Text()[1]; l != "24.18 C         " {
		t.Errorf("line 2 = %q", l)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestFormatCelsius(t *testing.T) {
	tests := []struct {
		v        float64
		expected string
	}{
		{24.18, "24.18 C"},
		{0, "0.0 C"},
		{330, "330.0 C"},
		{8.06, "8.06 C"},
		{0.08, "0.08 C"},
		{165.04, "165.04 C"},
		{-3.5, "-3.5 C"},
		{math.NaN(), "NaN C"},
	}
	for _, test := range tests {
		if s := FormatCelsius(test.v); s != test.expected {
			t.Errorf("FormatCelsius(%v) = %q, expected %q", test.v, s, test.expected)
		}
	}
}

func TestString(t *testing.T) {
	m := New(&fakeDisplay{}, &fakeThermometer{}, nil)
	if s := m.String(); s != "Monitor{fakeThermometer, fakeDisplay}" {
		t.Errorf("String() = %q", s)
	}
}
