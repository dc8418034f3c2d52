package config

import (
	"fmt"
	"time"

	"go.minekube.com/cubes/pkg/edition/java/proto/version"
	"go.minekube.com/cubes/pkg/proto"
	"go.minekube.com/cubes/pkg/util/configutil"
	"go.minekube.com/cubes/pkg/util/favicon"
	"go.minekube.com/cubes/pkg/util/validation"
)

// DefaultConfig is the default configuration of the server.
var DefaultConfig = Config{
	Bind:            "0.0.0.0:25565",
	Protocol:        756,
	ReadTimeout:     configutil.Duration(20 * time.Second),
	ProcessTimeout:  configutil.Duration(10 * time.Second),
	WriteTimeout:    configutil.Duration(5 * time.Second),
	ShutdownTimeout: configutil.Duration(10 * time.Second),
	Status: Status{
		Motd:       "Example server",
		MaxPlayers: 0,
	},
	Quota: Quota{
		Connections: QuotaSettings{
			Enabled:    true,
			OPS:        5,
			Burst:      10,
			MaxEntries: 1000,
		},
	},
	LoginTimeoutReason: `{"translate":"disconnect.timeout"}`,
}

// Config is the configuration of the server.
type Config struct {
	Bind     string `yaml:"bind" json:"bind"` // The address to listen for connections.
	Protocol int    `yaml:"protocol" json:"protocol"`

	ReadTimeout     configutil.Duration `yaml:"readTimeout" json:"readTimeout"`         // Max wait for the next packet.
	ProcessTimeout  configutil.Duration `yaml:"processTimeout" json:"processTimeout"`   // Max handler time per packet.
	WriteTimeout    configutil.Duration `yaml:"writeTimeout" json:"writeTimeout"`       // Max time to drain one write.
	ShutdownTimeout configutil.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"` // Max wait for in-flight handlers.

	Status        Status `yaml:"status" json:"status"`
	Quota         Quota  `yaml:"quota" json:"quota"`
	ProxyProtocol bool   `yaml:"proxyProtocol" json:"proxyProtocol"` // ha-proxy compatibility

	// Raw JSON chat text sent to clients timing out in the login state.
	LoginTimeoutReason string `yaml:"loginTimeoutReason" json:"loginTimeoutReason"`

	Debug bool `yaml:"debug" json:"debug"`
}

type (
	Status struct {
		Motd        string          `yaml:"motd" json:"motd"`
		MaxPlayers  int             `yaml:"maxPlayers" json:"maxPlayers"`
		VersionName string          `yaml:"versionName,omitempty" json:"versionName,omitempty"` // Defaults to the protocol's name.
		Favicon     favicon.Favicon `yaml:"favicon,omitempty" json:"favicon,omitempty"`
	}
	// Quota is the config for rate limiting.
	Quota struct {
		Connections QuotaSettings `yaml:"connections" json:"connections"` // Limits new connections per second, per IP block.
	}
	QuotaSettings struct {
		Enabled    bool    `yaml:"enabled" json:"enabled"`       // If false, there is no such limiting.
		OPS        float32 `yaml:"ops" json:"ops"`               // Allowed operations/events per second, per IP block
		Burst      int     `yaml:"burst" json:"burst"`           // The maximum events per second, per block; the size of the token bucket
		MaxEntries int     `yaml:"maxEntries" json:"maxEntries"` // Maximum number of IP blocks to keep track of in cache
	}
)

// SetDefaults sets Config defaults used with Viper.
func SetDefaults(i configutil.SetDefault) {
	d := DefaultConfig
	i.SetDefault("bind", d.Bind)
	i.SetDefault("protocol", d.Protocol)
	i.SetDefault("readTimeout", d.ReadTimeout.String())
	i.SetDefault("processTimeout", d.ProcessTimeout.String())
	i.SetDefault("writeTimeout", d.WriteTimeout.String())
	i.SetDefault("shutdownTimeout", d.ShutdownTimeout.String())

	i.SetDefault("status.motd", d.Status.Motd)
	i.SetDefault("status.maxPlayers", d.Status.MaxPlayers)

	// Default quotas should never affect legitimate operations,
	// but rate limits aggressive behaviours.
	i.SetDefault("quota.connections.enabled", d.Quota.Connections.Enabled)
	i.SetDefault("quota.connections.ops", d.Quota.Connections.OPS)
	i.SetDefault("quota.connections.burst", d.Quota.Connections.Burst)
	i.SetDefault("quota.connections.maxEntries", d.Quota.Connections.MaxEntries)

	i.SetDefault("loginTimeoutReason", d.LoginTimeoutReason)
}

// Validate validates Config.
func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }

	if c == nil {
		e("config must not be nil")
		return
	}

	if len(c.Bind) == 0 {
		e("Bind is empty")
	} else if err := validation.ValidHostPort(c.Bind); err != nil {
		e("Invalid bind %q: %v", c.Bind, err)
	}

	if c.Protocol <= 0 {
		e("Protocol must be positive, got %d", c.Protocol)
	} else if _, ok := version.Lookup(proto.Protocol(c.Protocol)); !ok {
		w("Protocol %d is not a known version (%s), clients may fail to parse packets",
			c.Protocol, version.SupportedVersionsString)
	}

	for name, d := range map[string]configutil.Duration{
		"readTimeout":     c.ReadTimeout,
		"processTimeout":  c.ProcessTimeout,
		"writeTimeout":    c.WriteTimeout,
		"shutdownTimeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			e("%s must be positive, got %s", name, d)
		}
	}

	if c.Status.MaxPlayers < 0 {
		e("Status max players must not be negative, got %d", c.Status.MaxPlayers)
	}

	if q := c.Quota.Connections; q.Enabled {
		if q.OPS <= 0 || q.Burst <= 0 || q.MaxEntries <= 0 {
			e("Connection quota needs positive ops, burst and maxEntries")
		}
	} else {
		w("Connection quota is disabled")
	}

	if c.ProxyProtocol {
		w("Proxy protocol is enabled, clients must connect through a proxy sending PROXY headers")
	}
	return
}
