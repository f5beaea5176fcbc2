package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BWFILTER"

type Config struct {
	Lang         string        `mapstructure:"lang" validate:"oneof=ru en"`
	LogLevel     string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	OutputDir    string        `mapstructure:"output-dir" validate:"required"`
	Watch        string        `mapstructure:"watch"`
	PreviewAddr  string        `mapstructure:"preview-addr" validate:"omitempty,hostname_port"`
	Settle       time.Duration `mapstructure:"settle" validate:"gte=0"`
	AutoDownload bool          `mapstructure:"auto-download"`

	// Input is the positional file for one-shot mode.
	Input string `mapstructure:"-"`
}

var (
	ErrUsage          = errors.New("either a file or --watch is required, not both")
	ErrPreviewNotLoop = errors.New("preview address must be a loopback address")
	ErrPreviewOneShot = errors.New("--preview-addr needs --watch")
)

func flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bwfilter", pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, toml, json)")
	fs.String("lang", "ru", "message language: ru or en")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("output-dir", ".", "where <name>_bw.jpg files are written")
	fs.String("watch", "", "drop directory to watch instead of converting one file")
	fs.String("preview-addr", "", "loopback address of the preview page, e.g. 127.0.0.1:8085")
	fs.Duration("settle", 300*time.Millisecond, "quiet period before a dropped file is read")
	fs.Bool("auto-download", true, "save every result in drop mode")
	return fs
}

// Load reads flags, BWFILTER_* environment variables and an optional config
// file, in that order of precedence.
func Load(args []string) (Config, error) {
	fs := flags()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if fs.NArg() > 1 {
		return Config{}, ErrUsage
	}
	cfg.Input = fs.Arg(0)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if (c.Input == "") == (c.Watch == "") {
		return ErrUsage
	}
	if c.PreviewAddr == "" {
		return nil
	}
	if c.Watch == "" {
		return ErrPreviewOneShot
	}
	host, _, err := net.SplitHostPort(c.PreviewAddr)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return ErrPreviewNotLoop
	}
	return nil
}

// Usage prints the flag defaults.
func Usage() string {
	return "usage: bwfilter [flags] <image>\n       bwfilter [flags] --watch <dir>\n\n" + flags().FlagUsages()
}
