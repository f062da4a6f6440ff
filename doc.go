// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tempmon is a temperature monitor for the Raspberry Pi: an LM35
// sensor read through an MCP3208 ADC, shown on an HD44780 character LCD.
//
// The drivers live in the hd44780, mcp3208 and lm35 packages, the control
// loop in monitor and the executable in cmd/tempmon. lcdsim stands in for the
// LCD when no hardware is attached.
package tempmon
