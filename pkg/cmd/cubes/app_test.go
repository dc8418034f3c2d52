package cubes

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"go.minekube.com/cubes/pkg/edition/java/config"
	"go.minekube.com/cubes/pkg/util/configutil"
	"go.minekube.com/cubes/pkg/version"
)

func TestApp_Flags(t *testing.T) {
	app := App()
	assert.Equal(t, version.String(), app.Version)

	flags := make(map[string]bool)
	for _, flag := range app.Flags {
		for _, name := range flag.Names() {
			if flags[name] {
				t.Errorf("Flag conflict detected: %s", name)
			}
			flags[name] = true
		}
	}
	for _, name := range []string{"config", "c", "debug", "d", "verbosity", "v", "version", "V"} {
		assert.True(t, flags[name], "flag %s should exist", name)
	}

	help, err := app.ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, help, "-V")
	assert.Contains(t, help, "--version")
	for _, cmd := range []string{"serve", "login", "config"} {
		assert.Contains(t, help, cmd)
	}

	out := new(bytes.Buffer)
	app.Writer = out
	require.NoError(t, app.Run([]string{"cubes", "--version"}))
	assert.Contains(t, out.String(), version.String())
}

func TestConfigCommand(t *testing.T) {
	app := App()
	out := new(bytes.Buffer)
	app.Writer = out
	require.NoError(t, app.Run([]string{"cubes", "config"}))

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
	require.Equal(t, config.DefaultConfig, cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })
		cfg, err := loadConfig("")
		require.NoError(t, err)
		require.Equal(t, config.DefaultConfig, *cfg)
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
	})

	t.Run("file and env", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "cubes.yml")
		require.NoError(t, os.WriteFile(file, []byte(`
bind: 127.0.0.1:25570
processTimeout: 2s
status:
  motd: Hello
`), 0644))
		t.Setenv("CUBES_STATUS_MAXPLAYERS", "42")

		cfg, err := loadConfig(file)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:25570", cfg.Bind)
		assert.Equal(t, configutil.Duration(2*time.Second), cfg.ProcessTimeout)
		assert.Equal(t, "Hello", cfg.Status.Motd)
		assert.Equal(t, 42, cfg.Status.MaxPlayers)
	})
}

func TestServeAndLogin(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := config.DefaultConfig
	cfg.Bind = addr
	cfg.Quota.Connections.Enabled = false

	ctx, cancel := context.WithCancel(logr.NewContext(context.Background(), testr.New(t)))
	served := make(chan error, 1)
	go func() { served <- Serve(ctx, &cfg) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("serve did not return")
		}
	})

	loginCtx, loginCancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	go func() { done <- Login(loginCtx, addr, 756, "Steve", 2*time.Second) }()
	time.Sleep(100 * time.Millisecond)
	loginCancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("login did not return after cancel")
	}
}
