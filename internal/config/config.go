// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config decodes the HCL configuration surface preread exposes
// to its host: a single `ssl_preread on|off` directive, valid in both
// the main scope and per-server scopes, plus a syslog forwarding
// block.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"grimm.is/prereadtls/internal/logging"
)

// CurrentSchemaVersion pins the HCL schema this package decodes.
const CurrentSchemaVersion = "1.0"

// Config is the top-level, main-scope configuration: ssl_preread here
// acts as the default every server scope inherits unless it sets its
// own value. A child scope's own setting always wins; the parent's
// setting applies only when the child leaves it unset.
//
// @default schema_version: "1.0"
type Config struct {
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty"`

	// SSLPreread is a tri-state optional: nil means "unset here, defer
	// to the compiled-in default of off"; a server scope only overrides
	// it by setting its own pointer non-nil.
	SSLPreread *bool `hcl:"ssl_preread,optional" json:"ssl_preread,omitempty"`

	Servers []ServerScope `hcl:"server,block" json:"server,omitempty"`

	Syslog *logging.SyslogConfig `hcl:"syslog,block" json:"syslog,omitempty"`

	// Debug turns on per-connection debug logging for malformed
	// ClientHellos.
	Debug bool `hcl:"debug,optional" json:"debug,omitempty"`
}

// ServerScope is one `server` block. Fields left unset here fall back
// to the enclosing Config's parent-wins-if-child-unset rule;
// SSLPreread is the only directive the preread core itself
// consults, but Name is kept to make a server block
// self-describing and to give the pcap-replay CLI and tests something
// to bind a hostproxy.Session to.
type ServerScope struct {
	Name string `hcl:"name,label" json:"name"`

	SSLPreread *bool `hcl:"ssl_preread,optional" json:"ssl_preread,omitempty"`
}

// EffectiveSSLPreread resolves whether preread should run for this
// server: the server's own setting wins if present, otherwise the
// main scope's setting, and finally a hard-coded default of false.
func (s ServerScope) EffectiveSSLPreread(main *Config) bool {
	if s.SSLPreread != nil {
		return *s.SSLPreread
	}
	if main != nil && main.SSLPreread != nil {
		return *main.SSLPreread
	}
	return false
}

// Load parses an HCL file into a Config. There is exactly one schema
// version here, so a mismatched schema_version is a hard error rather
// than a migration target.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %w", path, diags)
	}

	var cfg Config
	if diags := gohcl.DecodeBody(f.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %w", path, diags)
	}

	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	} else if cfg.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("config: unsupported schema_version %q (want %q)", cfg.SchemaVersion, CurrentSchemaVersion)
	}

	return &cfg, nil
}

// ServerByName returns the named server scope, or false if no such
// server block was declared.
func (c *Config) ServerByName(name string) (ServerScope, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return ServerScope{}, false
}

// bodyForTest exposes hcl.Body decoding of an in-memory source string,
// used by config_test.go to exercise Load-equivalent parsing without
// touching the filesystem.
func bodyForTest(src []byte, filename string) (hcl.Body, hcl.Diagnostics) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if f == nil {
		return nil, diags
	}
	return f.Body, diags
}
