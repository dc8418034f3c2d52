// Package cubes implements the cubes command line.
package cubes

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"go.minekube.com/cubes/pkg/edition/java/config"
	"go.minekube.com/cubes/pkg/version"
)

// envPrefix is the prefix of environment variables overriding config keys,
// e.g. CUBES_STATUS_MOTD overrides status.motd.
const envPrefix = "CUBES"

// App returns the cubes command line application.
func App() *cli.App {
	// Listed in Flags so help output includes it, Setup skips adding it twice.
	versionFlag := &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
	cli.VersionFlag = versionFlag
	return &cli.App{
		Name:    "cubes",
		Usage:   "Cubes is a lightweight Minecraft Java edition server and client.",
		Version: version.String(),
		Flags: []cli.Flag{
			versionFlag,
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: ./config.yml)",
				EnvVars: []string{envPrefix + "_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug mode and highest log verbosity",
				EnvVars: []string{envPrefix + "_DEBUG"},
			},
			&cli.IntFlag{
				Name:    "verbosity",
				Aliases: []string{"v"},
				Usage:   "The higher the verbosity the more logs are shown",
				EnvVars: []string{envPrefix + "_VERBOSITY"},
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCommand(),
			loginCommand(),
			configCommand(),
		},
	}
}

// loggerFrom returns the logger configured by the global flags.
func loggerFrom(c *cli.Context) (logr.Logger, error) {
	verbosity := c.Int("verbosity")
	if c.Bool("debug") {
		verbosity = max(verbosity, 10)
	}
	return newLogger(c.Bool("debug"), verbosity)
}

// loadConfig reads the config from file, environment variables and defaults.
// A missing default config file is not an error.
func loadConfig(file string) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := file != ""
	if !explicit {
		file = "config.yml"
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %q: %w", file, err)
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return &cfg, nil
}

// validConfig loads and validates the config, logging warnings.
func validConfig(c *cli.Context, log logr.Logger) (*config.Config, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	warns, errs := cfg.Validate()
	for _, w := range warns {
		log.Info("config warning", "warning", w.Error())
	}
	if len(errs) != 0 {
		for _, e := range errs {
			log.Error(e, "config error")
		}
		return nil, fmt.Errorf("config validation error: %w", errors.Join(errs...))
	}
	return cfg, nil
}
