// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp3208 reads the Microchip MCP3208 8 channel 12 bit
// successive approximation ADC over SPI.
//
// A conversion is a single 3 byte full duplex transaction. The request holds
// the start bit, the single ended/differential bit and the 3 channel bits,
// right aligned so that the 12 bit result lands in the low nibble of the
// second response byte and the whole third one.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/21298e.pdf
package mcp3208
