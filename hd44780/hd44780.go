// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780 over a
// 4-bit parallel interface.
//
// Only the upper four data lines (D4-D7) are wired, so every byte is sent as
// two nibbles, each latched by a pulse on the enable line. The R/W line is
// expected to be tied to ground; the busy flag is never read and fixed delays
// are used instead.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

type writeMode bool

const (
	modeCommand writeMode = false
	modeData    writeMode = true
)

const (
	cmdClear      byte = 0x01
	cmdHome       byte = 0x02
	cmdDisplay    byte = 0x08
	cmdShift      byte = 0x10
	cmdSetDDRAM   byte = 0x80
	displayOn     byte = 0x04
	displayCursor byte = 0x02
	displayBlink  byte = 0x01
	shiftRight    byte = 0x04
)

const (
	// pulseDelay brackets both transitions of the enable line.
	pulseDelay time.Duration = 500 * time.Microsecond
	// settleDelay is waited once the init sequence has been sent.
	settleDelay time.Duration = 500 * time.Microsecond
	// delayCommand covers the slow clear and home instructions (1.52ms).
	delayCommand time.Duration = 2 * time.Millisecond
)

// initSequence puts the controller in 4-bit mode, two lines, 5x8 font,
// increment without shift, display on without cursor, and clears it.
//
// 0x33 and 0x32 are the nibble pairs 3,3 and 3,2 of the datasheet's
// "initializing by instruction" procedure.
var initSequence = []byte{0x33, 0x32, 0x06, 0x0c, 0x28, 0x01}

// HD44780 drives an LCD using a gpio.Group for the four data pins D4-D7, and
// discrete pins for register select (RS) and enable (E).
//
// Implements periph.io/conn/x/display/TextDisplay
type HD44780 struct {
	mu        sync.Mutex
	dataPins  gpio.Group
	rsPin     gpio.PinOut
	enablePin gpio.PinOut
	rows      int
	cols      int
	on        bool
	cursor    bool
	blink     bool
}

// NewHD44780 takes a GPIO group, and gpio.PinOut for register select and
// enable. It returns the HD44780 device in an initialized state and ready for
// use.
//
// The first 4 pins of the data group must be connected to the data lines
// D4-D7 on the display, in that order.
func NewHD44780(dataPins gpio.Group, rsPin, enablePin gpio.PinOut, rows, cols int) (*HD44780, error) {
	if dataPins == nil || len(dataPins.Pins()) < 4 {
		return nil, errors.New("hd44780: data group must have at least 4 pins")
	}
	if rsPin == nil || enablePin == nil {
		return nil, errors.New("hd44780: register select and enable pins are required")
	}
	if rows < 1 || rows > 4 || cols < 1 {
		return nil, fmt.Errorf("hd44780: unsupported geometry %dx%d", rows, cols)
	}
	lcd := &HD44780{
		dataPins:  dataPins,
		rsPin:     rsPin,
		enablePin: enablePin,
		rows:      rows,
		cols:      cols,
	}
	return lcd, lcd.Init()
}

// Init sends the fixed initialization sequence and waits for the controller
// to settle. NewHD44780 calls it; calling it again re-runs the same sequence
// and leaves the display cleared, on, and without cursor.
func (lcd *HD44780) Init() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	for _, cmd := range initSequence {
		if err := lcd.send(cmd, modeCommand); err != nil {
			return err
		}
	}
	time.Sleep(settleDelay)
	lcd.on = true
	lcd.cursor = false
	lcd.blink = false
	return nil
}

// Send writes one byte to the controller. If char is true the byte is
// character data, otherwise it is an instruction.
func (lcd *HD44780) Send(value byte, char bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.send(value, writeMode(char))
}

// PrintLine moves to the start of line (1 based) and writes text padded with
// spaces, or truncated, to exactly Cols() characters.
func (lcd *HD44780) PrintLine(text string, line int) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if line < lcd.MinRow() || line > lcd.rows {
		return fmt.Errorf("hd44780: line %d out of range [1, %d]", line, lcd.rows)
	}
	if err := lcd.send(cmdSetDDRAM|lcd.rowOffset(line), modeCommand); err != nil {
		return err
	}
	for _, c := range fit(text, lcd.cols) {
		if err := lcd.send(c, modeData); err != nil {
			return err
		}
	}
	return nil
}

// Not supported by this device. Returns display.ErrNotImplemented
func (lcd *HD44780) AutoScroll(enabled bool) error {
	return display.ErrNotImplemented
}

// Clears the screen and moves the cursor to the first position.
func (lcd *HD44780) Clear() error {
	return lcd.slowCommand(cmdClear)
}

// Return the number of columns the display supports
func (lcd *HD44780) Cols() int {
	return lcd.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (lcd *HD44780) Cursor(modes ...display.CursorMode) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	cursor, blink := lcd.cursor, lcd.blink
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor, blink = false, false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlock, display.CursorBlink:
			blink = true
		default:
			return fmt.Errorf("hd44780: unexpected cursor: %d", mode)
		}
	}
	lcd.cursor, lcd.blink = cursor, blink
	return lcd.send(lcd.displayControl(), modeCommand)
}

// Move the cursor home (MinRow(),MinCol())
func (lcd *HD44780) Home() error {
	return lcd.slowCommand(cmdHome)
}

// Return the min column position.
func (lcd *HD44780) MinCol() int {
	return 1
}

// Return the min row position.
func (lcd *HD44780) MinRow() int {
	return 1
}

// Move the cursor forward or backward.
func (lcd *HD44780) Move(dir display.CursorDirection) error {
	val := cmdShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= shiftRight
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.send(val, modeCommand)
}

// Move the cursor to arbitrary position.
func (lcd *HD44780) MoveTo(row, col int) error {
	if row < lcd.MinRow() || row > lcd.rows || col < lcd.MinCol() || col > lcd.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) value out of range", row, col)
	}
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.send(cmdSetDDRAM|(lcd.rowOffset(row)+byte(col-1)), modeCommand)
}

// Return the number of rows the display supports.
func (lcd *HD44780) Rows() int {
	return lcd.rows
}

// Return info about the display.
func (lcd *HD44780) String() string {
	return fmt.Sprintf("HD44780::%s - Rows: %d, Cols: %d", lcd.dataPins.String(), lcd.rows, lcd.cols)
}

// Turn the display on / off
func (lcd *HD44780) Display(on bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	lcd.on = on
	return lcd.send(lcd.displayControl(), modeCommand)
}

// Write a set of bytes to the display at the current cursor position.
func (lcd *HD44780) Write(p []byte) (n int, err error) {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	for _, c := range p {
		if err = lcd.send(c, modeData); err != nil {
			return
		}
		n++
	}
	return
}

// Write a string output to the display.
func (lcd *HD44780) WriteString(text string) (int, error) {
	return lcd.Write([]byte(text))
}

// Halt releases the register select, enable and data pins. The display keeps
// showing whatever was last written.
func (lcd *HD44780) Halt() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return errors.Join(lcd.rsPin.Halt(), lcd.enablePin.Halt(), lcd.dataPins.Halt())
}

func (lcd *HD44780) displayControl() byte {
	val := cmdDisplay
	if lcd.on {
		val |= displayOn
	}
	if lcd.cursor {
		val |= displayCursor
	}
	if lcd.blink {
		val |= displayBlink
	}
	return val
}

// rowOffset returns the DDRAM address of the first column of row. Lines 3
// and 4 continue lines 1 and 2 in memory.
func (lcd *HD44780) rowOffset(row int) byte {
	offsets := [...]byte{0x00, 0x40, byte(lcd.cols), 0x40 + byte(lcd.cols)}
	return offsets[row-1]
}

func (lcd *HD44780) slowCommand(cmd byte) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	err := lcd.send(cmd, modeCommand)
	if err == nil {
		time.Sleep(delayCommand)
	}
	return err
}

// send selects the register with RS, then writes the high nibble followed by
// the low nibble.
func (lcd *HD44780) send(value byte, mode writeMode) error {
	if err := lcd.rsPin.Out(gpio.Level(mode)); err != nil {
		return fmt.Errorf("hd44780: register select: %w", err)
	}
	if err := lcd.write4Bits(value >> 4); err != nil {
		return err
	}
	return lcd.write4Bits(value & 0x0f)
}

func (lcd *HD44780) write4Bits(value byte) error {
	if err := lcd.dataPins.Out(gpio.GPIOValue(value), 0x0f); err != nil {
		return fmt.Errorf("hd44780: data: %w", err)
	}
	return lcd.pulseEnable()
}

func (lcd *HD44780) pulseEnable() error {
	if err := lcd.enablePin.Out(gpio.High); err != nil {
		return fmt.Errorf("hd44780: enable: %w", err)
	}
	time.Sleep(pulseDelay)
	if err := lcd.enablePin.Out(gpio.Low); err != nil {
		return fmt.Errorf("hd44780: enable: %w", err)
	}
	time.Sleep(pulseDelay)
	return nil
}

// fit pads text with spaces, or truncates it, to width bytes.
func fit(text string, width int) []byte {
	b := make([]byte, width)
	for i := copy(b, text); i < width; i++ {
		b[i] = ' '
	}
	return b
}

var _ display.TextDisplay = &HD44780{}
var _ conn.Resource = &HD44780{}
