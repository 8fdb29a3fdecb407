package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Bind registers them on a flag set;
// only flags the user actually set override the loaded config.
type Flags struct {
	ConfigPath           string
	SaveConfig           string
	Debug                bool
	LogFile              string
	Charset              string
	Precision            int
	Padding              string
	SymmetricQuaternions bool
	Silent               bool

	fs *pflag.FlagSet
}

// Bind registers the flags on fs.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&f.SaveConfig, "save-config", "", "Write the effective config to this path")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file (rotated)")
	fs.StringVar(&f.Charset, "charset", "", "Transcode names to/from this charset in text files")
	fs.IntVar(&f.Precision, "precision", 0, "Significant digits for floats in text files (0 = shortest exact)")
	fs.StringVar(&f.Padding, "padding", "", "Binary padding mode: preserve or constant")
	fs.BoolVar(&f.SymmetricQuaternions, "symmetric-quaternions", false, "Negate quaternion Y/Z on text import")
	fs.BoolVarP(&f.Silent, "silent", "s", false, "Do not pause on errors")
	f.fs = fs
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.changed("charset") {
		cfg.Text.Charset = f.Charset
	}
	if f.changed("precision") {
		cfg.Text.Precision = f.Precision
	}
	if f.Padding != "" {
		cfg.Binary.Padding = f.Padding
	}
	if f.changed("symmetric-quaternions") {
		cfg.Text.SymmetricQuaternions = f.SymmetricQuaternions
	}
	if f.Silent {
		cfg.Console.Silent = true
	}
}
