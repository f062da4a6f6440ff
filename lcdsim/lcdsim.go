// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates a character LCD on the terminal (stdout) using ANSI
// color codes, and can render the panel to a PNG image.
//
// Useful while the HD44780 module is still in the mail, or to run the monitor
// on a machine without GPIO.
package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"golang.org/x/image/font/gofont/gomono"
)

// DefaultOpts is a blue backlit 16x2 panel written to stdout.
var DefaultOpts = Opts{
	Rows:      2,
	Cols:      16,
	Backlight: color.NRGBA{0x20, 0x40, 0xe0, 0xff},
	Ink:       color.NRGBA{0xf0, 0xf0, 0xff, 0xff},
}

// Opts represents the options available for this display.
type Opts struct {
	Rows int
	Cols int
	// W receives the terminal rendering. Defaults to stdout.
	W io.Writer
	// Palette maps Backlight to a terminal color. Defaults to ansi256.Default.
	Palette   *ansi256.Palette
	Backlight color.NRGBA
	Ink       color.NRGBA

	_ struct{}
}

const (
	cellW    = 18
	cellH    = 30
	margin   = 12
	fontSize = 22
)

// Dev is a character LCD emulator that outputs to the console.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	opts    Opts
	lines   [][]byte
	drawn   bool
	buf     bytes.Buffer
}

// New returns a Dev that displays at the console. The panel starts blank.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Rows < 1 || opts.Cols < 1 {
		return nil, fmt.Errorf("lcdsim: unsupported geometry %dx%d", opts.Rows, opts.Cols)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{w: w, palette: *p, opts: *opts}
	d.blank()
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("LCDSim{%dx%d}", d.opts.Cols, d.opts.Rows)
}

// Init blanks the panel and draws it.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blank()
	return d.refresh()
}

// PrintLine writes text on line (1 based), padded with spaces or truncated to
// the panel width, like the hardware does.
func (d *Dev) PrintLine(text string, line int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if line < 1 || line > d.opts.Rows {
		return fmt.Errorf("lcdsim: line %d out of range [1, %d]", line, d.opts.Rows)
	}
	l := d.lines[line-1]
	for i := copy(l, text); i < len(l); i++ {
		l[i] = ' '
	}
	return d.refresh()
}

// Text returns the current content of every line.
func (d *Dev) Text() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines))
	for ix, l := range d.lines {
		out[ix] = string(l)
	}
	return out
}

// Snapshot encodes the panel as a PNG image.
func (d *Dev) Snapshot(w io.Writer) error {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("lcdsim: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: fontSize})
	defer face.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	dc := gg.NewContext(2*margin+d.opts.Cols*cellW, 2*margin+d.opts.Rows*cellH)
	dc.SetColor(d.opts.Backlight)
	dc.Clear()
	dc.SetFontFace(face)
	dim := d.opts.Backlight
	dim.R, dim.G, dim.B = dim.R/8*7, dim.G/8*7, dim.B/8*7
	for row, l := range d.lines {
		for col, c := range l {
			x := float64(margin + col*cellW)
			y := float64(margin + row*cellH)
			// The unlit 5x8 matrix of each cell is faintly visible.
			dc.SetColor(dim)
			dc.DrawRectangle(x+1, y+1, cellW-2, cellH-2)
			dc.Fill()
			dc.SetColor(d.opts.Ink)
			dc.DrawStringAnchored(string(printable(c)), x+cellW/2, y+cellH/2, 0.5, 0.35)
		}
	}
	return dc.EncodePNG(w)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

func (d *Dev) blank() {
	d.lines = make([][]byte, d.opts.Rows)
	for ix := range d.lines {
		d.lines[ix] = bytes.Repeat([]byte{' '}, d.opts.Cols)
	}
}

// refresh redraws the whole panel in place.
func (d *Dev) refresh() error {
	d.buf.Reset()
	if d.drawn {
		// Go back to the first line of the previous rendering.
		fmt.Fprintf(&d.buf, "\033[%dA", len(d.lines))
	}
	edge := d.palette.Block(d.opts.Backlight)
	for _, l := range d.lines {
		_, _ = d.buf.WriteString("\r\033[0m")
		_, _ = d.buf.WriteString(edge)
		_, _ = d.buf.WriteString("\033[0m")
		for _, c := range l {
			_ = d.buf.WriteByte(printable(c))
		}
		_, _ = d.buf.WriteString(edge)
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

// printable replaces what the terminal can't show with '?'.
func printable(c byte) byte {
	if c < 0x20 || c > 0x7e {
		return '?'
	}
	return c
}
