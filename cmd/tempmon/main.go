// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tempmon shows the temperature of an LM35 sensor, read through an MCP3208
// ADC, on a 16x2 HD44780 LCD driven in 4 bit mode.
//
// With -sim it runs without hardware: the LCD is drawn on the terminal and
// the ADC returns a slowly drifting value.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/tempmon/hd44780"
	"github.com/GermanBionicSystems/tempmon/lcdsim"
	"github.com/GermanBionicSystems/tempmon/lm35"
	"github.com/GermanBionicSystems/tempmon/mcp3208"
	"github.com/GermanBionicSystems/tempmon/monitor"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// openLCD returns the HD44780 wired as described by cfg. The pins are driven
// low before the display is initialized.
func openLCD(cfg monitor.Config) (*hd44780.HD44780, error) {
	byName := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no pin named %q", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		return p, nil
	}
	rs, err := byName(cfg.Pins.RS)
	if err != nil {
		return nil, err
	}
	e, err := byName(cfg.Pins.E)
	if err != nil {
		return nil, err
	}
	var data []gpio.PinOut
	for _, name := range cfg.Pins.Data() {
		p, err := byName(name)
		if err != nil {
			return nil, err
		}
		data = append(data, p)
	}
	return hd44780.NewHD44780(hd44780.NewPinGroup(data...), rs, e, cfg.Rows, cfg.Cols)
}

// drift is the simulated sensor: about 24°C, wandering by ±1.6°C over a
// minute.
func drift(start time.Time) func(int) uint16 {
	return func(int) uint16 {
		phase := time.Since(start).Seconds() * 2 * math.Pi / 60
		return uint16(300 + 20*math.Sin(phase))
	}
}

func mainImpl() error {
	configPath := flag.String("config", "", "YAML file describing the wiring")
	spiPort := flag.String("spi", "", "SPI port of the ADC, overrides the configuration")
	sim := flag.Bool("sim", false, "draw the LCD on the terminal and simulate the ADC")
	snapshot := flag.String("snapshot", "", "in -sim mode, PNG file receiving the last LCD content")
	verbose := flag.Bool("v", false, "log every reading")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := monitor.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *spiPort != "" {
		cfg.SPIPort = *spiPort
	}

	var display monitor.Display
	var port spi.PortCloser
	var lcd *lcdsim.Dev
	if *sim {
		if lcd, err = lcdsim.New(&lcdsim.Opts{
			Rows:      cfg.Rows,
			Cols:      cfg.Cols,
			Backlight: lcdsim.DefaultOpts.Backlight,
			Ink:       lcdsim.DefaultOpts.Ink,
		}); err != nil {
			return err
		}
		if err := lcd.Init(); err != nil {
			return err
		}
		display = lcd
		port = &mcp3208.SimPort{Value: drift(time.Now())}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		hw, err := openLCD(cfg)
		if err != nil {
			return err
		}
		display = hw
		if port, err = spireg.Open(cfg.SPIPort); err != nil {
			_ = hw.Halt()
			return err
		}
	}
	defer func() {
		if err := display.Halt(); err != nil {
			logger.Error("halt display", "err", err)
		}
	}()
	defer func() {
		if err := port.Close(); err != nil {
			logger.Error("close spi", "err", err)
		}
	}()

	adc, err := mcp3208.NewSPI(port, &mcp3208.Opts{Vref: cfg.Vref, Frequency: mcp3208.DefaultOpts.Frequency})
	if err != nil {
		return err
	}
	sensor, err := lm35.New(adc.Pin(cfg.Channel), &lm35.Opts{Sensitivity: cfg.Sensitivity})
	if err != nil {
		return err
	}
	logger.Debug("wired", "adc", adc.String(), "sensor", sensor.String(), "display", display.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = monitor.New(display, sensor, logger).Run(ctx)

	if lcd != nil && *snapshot != "" {
		f, ferr := os.Create(*snapshot)
		if ferr == nil {
			ferr = lcd.Snapshot(f)
			if cerr := f.Close(); ferr == nil {
				ferr = cerr
			}
		}
		if ferr != nil {
			return errors.Join(err, ferr)
		}
		logger.Info("snapshot written", "path", *snapshot)
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "tempmon: %s.\n", err)
		os.Exit(1)
	}
}
