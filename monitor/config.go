// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

// Pins maps the display control lines to host pin names, as understood by
// gpioreg.ByName.
type Pins struct {
	RS string `yaml:"rs"`
	E  string `yaml:"e"`
	D4 string `yaml:"d4"`
	D5 string `yaml:"d5"`
	D6 string `yaml:"d6"`
	D7 string `yaml:"d7"`
}

// Data returns D4-D7 in bus order.
func (p Pins) Data() []string {
	return []string{p.D4, p.D5, p.D6, p.D7}
}

// Config is the hardware description of the monitor. It is built once at
// startup and handed to the drivers by value.
type Config struct {
	Pins Pins `yaml:"pins"`
	// SPIPort is the spireg name of the port the ADC is on.
	SPIPort string `yaml:"spi_port"`
	// Channel is the ADC input the sensor is wired to.
	Channel int `yaml:"channel"`
	// Vref is the ADC reference voltage, e.g. "3.3V".
	Vref physic.ElectricPotential `yaml:"-"`
	// Sensitivity is the sensor slope per °C, e.g. "10mV".
	Sensitivity physic.ElectricPotential `yaml:"-"`
	Rows        int                      `yaml:"rows"`
	Cols        int                      `yaml:"cols"`
}

// DefaultConfig returns the reference wiring: a 16x2 LCD on header pins 15
// (RS), 16 (E), 7, 11, 12 and 13 (D4-D7), and an LM35 on channel 0 of an
// MCP3208 on SPI0 CE0 with a 3.3V reference.
func DefaultConfig() Config {
	return Config{
		Pins: Pins{
			RS: "P1_15",
			E:  "P1_16",
			D4: "P1_7",
			D5: "P1_11",
			D6: "P1_12",
			D7: "P1_13",
		},
		SPIPort:     "SPI0.0",
		Channel:     0,
		Vref:        3300 * physic.MilliVolt,
		Sensitivity: 10 * physic.MilliVolt,
		Rows:        2,
		Cols:        16,
	}
}

// fileConfig is the YAML layout. Voltages are strings parsed by physic.
type fileConfig struct {
	Config      `yaml:",inline"`
	Vref        string `yaml:"vref"`
	Sensitivity string `yaml:"sensitivity"`
}

// LoadConfig reads the YAML file at path over DefaultConfig. Keys absent
// from the file keep their default; unknown keys are an error. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("monitor: %w", err)
	}
	return parseConfig(raw)
}

func parseConfig(raw []byte) (Config, error) {
	fc := fileConfig{Config: DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("monitor: config: %w", err)
	}
	cfg := fc.Config
	if fc.Vref != "" {
		if err := cfg.Vref.Set(fc.Vref); err != nil {
			return Config{}, fmt.Errorf("monitor: config vref: %w", err)
		}
	}
	if fc.Sensitivity != "" {
		if err := cfg.Sensitivity.Set(fc.Sensitivity); err != nil {
			return Config{}, fmt.Errorf("monitor: config sensitivity: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	for role, name := range map[string]string{
		"rs": c.Pins.RS, "e": c.Pins.E,
		"d4": c.Pins.D4, "d5": c.Pins.D5, "d6": c.Pins.D6, "d7": c.Pins.D7,
	} {
		if name == "" {
			return fmt.Errorf("monitor: pin %s is not assigned", role)
		}
	}
	switch {
	case c.Vref <= 0:
		return fmt.Errorf("monitor: invalid vref %s", c.Vref)
	case c.Sensitivity <= 0:
		return fmt.Errorf("monitor: invalid sensitivity %s", c.Sensitivity)
	case c.Rows < 2 || c.Cols < 1:
		return fmt.Errorf("monitor: a %dx%d display can't show the reading", c.Cols, c.Rows)
	}
	return nil
}
