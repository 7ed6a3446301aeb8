// Package config loads and validates the server configuration from a
// YAML file and freezes it into the read-only snapshot the rest of
// the server holds for its lifetime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Share attribute flags.
const (
	ShareProtected = 0x01
	ShareReadOnly  = 0x02
	ShareHidden    = 0x04
	ShareSubdir    = 0x08
	ShareCDROM     = 0x10
)

// A Share is one exported directory.
type Share struct {
	Name        string
	Path        string
	Attributes  uint32
	Password    string
	DefaultType uint32
}

// Protected reports whether the share is only revealed after a PIN
// exchange.
func (s *Share) Protected() bool { return s.Attributes&ShareProtected != 0 }

// A Printer is one exported print queue.
type Printer struct {
	Name         string
	Path         string
	Definition   string
	Description  string
	PollInterval int
	Command      string
}

// Server holds process-wide settings.
type Server struct {
	LogLevel          string
	BindIP            string
	BroadcastInterval int
	AccessPlus        bool
}

// A Config is the validated, immutable configuration snapshot.
type Config struct {
	Server   Server
	Shares   []Share
	Printers []Printer
	MimeMap  map[string]uint32
}

// ShareNamed finds a share by case-insensitive name.
func (c *Config) ShareNamed(name string) *Share {
	for i := range c.Shares {
		if strings.EqualFold(c.Shares[i].Name, name) {
			return &c.Shares[i]
		}
	}
	return nil
}

// loader structs mirror the YAML shape before validation.

type fileConfig struct {
	Server   serverConfig    `yaml:"server"`
	Shares   []shareConfig   `yaml:"shares" validate:"unique=Name,dive"`
	Printers []printerConfig `yaml:"printers" validate:"dive"`
	MimeMap  []mimeEntry     `yaml:"mimemap" validate:"dive"`
}

type serverConfig struct {
	LogLevel          string `yaml:"log_level" validate:"omitempty,oneof=error info debug protocol"`
	BindIP            string `yaml:"bind_ip" validate:"omitempty,ip"`
	BroadcastInterval *int   `yaml:"broadcast_interval" validate:"omitempty,min=0"`
	AccessPlus        bool   `yaml:"access_plus"`
}

type shareConfig struct {
	Name        string   `yaml:"name" validate:"required,max=31"`
	Path        string   `yaml:"path" validate:"required"`
	Attributes  []string `yaml:"attributes" validate:"dive,oneof=protected readonly hidden subdir cdrom"`
	Password    string   `yaml:"password" validate:"max=6"`
	DefaultType string   `yaml:"default_type" validate:"omitempty,filetype"`
}

type printerConfig struct {
	Name         string `yaml:"name" validate:"required"`
	Path         string `yaml:"path" validate:"required"`
	Definition   string `yaml:"definition" validate:"required"`
	Description  string `yaml:"description"`
	PollInterval int    `yaml:"poll_interval" validate:"min=0"`
	Command      string `yaml:"command" validate:"required,contains=%f"`
}

type mimeEntry struct {
	Ext      string `yaml:"ext" validate:"required"`
	Filetype string `yaml:"filetype" validate:"required,filetype"`
}

var attrFlags = map[string]uint32{
	"protected": ShareProtected,
	"readonly":  ShareReadOnly,
	"hidden":    ShareHidden,
	"subdir":    ShareSubdir,
	"cdrom":     ShareCDROM,
}

// DefaultBroadcastInterval is used when the config does not set one.
// Zero in the config disables periodic announcements.
const DefaultBroadcastInterval = 60

func newValidator() *validator.Validate {
	v := validator.New()
	// a filetype is a 12-bit hex value, e.g. "fff" or "0xADF"
	v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
		_, err := parseFiletype(fl.Field().String())
		return err == nil
	})
	return v
}

func parseFiletype(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("filetype %q: %w", s, err)
	}
	if n > 0xFFF {
		return 0, fmt.Errorf("filetype %q out of range", s)
	}
	return uint32(n), nil
}

// Load reads, validates and freezes the configuration at path. Any
// error is fatal to startup and never reaches the wire protocol.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Config from raw YAML.
func Parse(raw []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := newValidator().Struct(&fc); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg := &Config{
		Server: Server{
			LogLevel:          fc.Server.LogLevel,
			BindIP:            fc.Server.BindIP,
			BroadcastInterval: DefaultBroadcastInterval,
			AccessPlus:        fc.Server.AccessPlus,
		},
		MimeMap: make(map[string]uint32, len(fc.MimeMap)),
	}
	if fc.Server.BroadcastInterval != nil {
		cfg.Server.BroadcastInterval = *fc.Server.BroadcastInterval
	}

	for _, sc := range fc.Shares {
		share := Share{
			Name:     sc.Name,
			Path:     sc.Path,
			Password: sc.Password,
		}
		for _, a := range sc.Attributes {
			share.Attributes |= attrFlags[a]
		}
		if sc.DefaultType != "" {
			share.DefaultType, _ = parseFiletype(sc.DefaultType)
		}
		if share.Protected() && share.Password == "" {
			return nil, fmt.Errorf("share %q: protected but no password", share.Name)
		}
		// share names match case-insensitively on the wire
		if cfg.ShareNamed(share.Name) != nil {
			return nil, fmt.Errorf("share %q: duplicate name", share.Name)
		}
		cfg.Shares = append(cfg.Shares, share)
	}

	for _, pc := range fc.Printers {
		cfg.Printers = append(cfg.Printers, Printer(pc))
	}

	for _, me := range fc.MimeMap {
		t, err := parseFiletype(me.Filetype)
		if err != nil {
			return nil, err
		}
		cfg.MimeMap[strings.ToLower(me.Ext)] = t
	}
	return cfg, nil
}
