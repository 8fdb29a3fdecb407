// Package config handles converter configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/animconv/pkg/charset"
	"github.com/Faultbox/animconv/pkg/formats"
)

// Config holds all converter settings.
type Config struct {
	Text    TextConfig    `yaml:"text"`
	Binary  BinaryConfig  `yaml:"binary"`
	Console ConsoleConfig `yaml:"console"`
	Logging LoggingConfig `yaml:"logging"`
}

// TextConfig holds settings for the text form.
type TextConfig struct {
	Charset              string `yaml:"charset"`               // name transcoding, "" = raw bytes
	Precision            int    `yaml:"precision"`             // significant digits, 0 = shortest exact
	SymmetricQuaternions bool   `yaml:"symmetric_quaternions"` // negate Y/Z on import too
}

// BinaryConfig holds settings for the binary form.
type BinaryConfig struct {
	Padding string `yaml:"padding"` // "preserve" or "constant"
}

// ConsoleConfig holds interactive console behaviour.
type ConsoleConfig struct {
	Silent       bool `yaml:"silent"`
	PauseOnError bool `yaml:"pause_on_error"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Text: TextConfig{
			Charset:   "",
			Precision: 0,
		},
		Binary: BinaryConfig{
			Padding: formats.PaddingPreserve.String(),
		},
		Console: ConsoleConfig{
			Silent:       false,
			PauseOnError: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting names something the codecs understand.
func (c *Config) Validate() error {
	if _, err := c.TextOptions(); err != nil {
		return err
	}
	if _, err := c.PaddingMode(); err != nil {
		return err
	}
	return nil
}

// TextOptions returns the text codec options described by the config.
func (c *Config) TextOptions() (formats.TextOptions, error) {
	cs, err := charset.Lookup(c.Text.Charset)
	if err != nil {
		return formats.TextOptions{}, fmt.Errorf("text.charset: %w", err)
	}
	if c.Text.Precision < 0 || c.Text.Precision > 17 {
		return formats.TextOptions{}, fmt.Errorf("text.precision: %d out of range 0-17", c.Text.Precision)
	}
	return formats.TextOptions{
		Charset:              cs,
		Precision:            c.Text.Precision,
		SymmetricQuaternions: c.Text.SymmetricQuaternions,
	}, nil
}

// PaddingMode returns the binary padding mode described by the config.
func (c *Config) PaddingMode() (formats.PaddingMode, error) {
	mode, err := formats.ParsePaddingMode(c.Binary.Padding)
	if err != nil {
		return 0, fmt.Errorf("binary.padding: %w", err)
	}
	return mode, nil
}

// ShouldPause reports whether the CLI waits for Enter after an error.
func (c *Config) ShouldPause() bool {
	return c.Console.PauseOnError && !c.Console.Silent
}
