package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.unix.lgbt/diamondburned/autospawn/autospawn"
	"github.com/pkg/errors"
)

func TestParseArgsDefaults(t *testing.T) {
	opts, cfg, err := parseArgs(nil)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if cfg != autospawn.DefaultConfig() {
		t.Errorf("unexpected config %+v", cfg)
	}
	if opts.Fresh || opts.Verbose || opts.LockWait != 0 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestParseArgsFlags(t *testing.T) {
	_, cfg, err := parseArgs([]string{
		"-s", "5",
		"-w", "2",
		"-l", "/var/log/spawn",
		"-c", "sleep 100",
		"-t", "m",
		"-k", "m",
		"-m", "3",
		"-p", "50",
		"--workdir", "/srv",
		"--throttle-tool", "/usr/bin/cpulimit",
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	expect := autospawn.Config{
		Command:       "sleep 100",
		LogFolder:     "/var/log/spawn",
		WorkDir:       "/srv",
		SpawnInterval: 5,
		WaitInterval:  2,
		TimeUnit:      autospawn.Minutes,
		LogLimit:      3,
		SizeUnit:      autospawn.Megabytes,
		CPULimit:      50,
		ThrottleTool:  "/usr/bin/cpulimit",
	}

	if cfg != expect {
		t.Errorf("unexpected config\ngot:      %+v\nexpected: %+v", cfg, expect)
	}

	if d := cfg.SpawnDuration(); d != 5*time.Minute {
		t.Errorf("unexpected spawn duration %v", d)
	}
}

func TestParseArgsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autospawn.yml")

	const file = "" +
		"command: sleep 100\n" +
		"spawn_interval: 30\n" +
		"wait_interval: 3\n" +
		"log_folder: /var/log/spawn\n"

	if err := os.WriteFile(path, []byte(file), 0644); err != nil {
		t.Fatal("failed to write config:", err)
	}

	// Flags win over the file, which wins over the defaults.
	opts, cfg, err := parseArgs([]string{"-f", path, "--spawn", "90", "--fresh", "-v"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	expect := autospawn.DefaultConfig()
	expect.Command = "sleep 100"
	expect.SpawnInterval = 90
	expect.WaitInterval = 3
	expect.LogFolder = "/var/log/spawn"

	if cfg != expect {
		t.Errorf("unexpected config\ngot:      %+v\nexpected: %+v", cfg, expect)
	}
	if !opts.Fresh || !opts.Verbose {
		t.Errorf("flags not set: %+v", opts)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"missing value", []string{"-s"}},
		{"not a number", []string{"-s", "soon"}},
		{"stray argument", []string{"extra"}},
		{"bad time unit", []string{"-t", "w"}},
		{"bad size unit", []string{"-k", "t"}},
		{"zero spawn", []string{"-s", "0"}},
		{"missing config", []string{"-f", "/nonexistent/autospawn.yml"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, _, err := parseArgs(test.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		if _, _, err := parseArgs([]string{arg}); !errors.Is(err, errHelp) {
			t.Errorf("%s: expected errHelp, got %v", arg, err)
		}
	}
}

func TestMainExitCodes(t *testing.T) {
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal("failed to open null device:", err)
	}
	defer devnull.Close()

	stderr := os.Stderr
	os.Stderr = devnull
	defer func() { os.Stderr = stderr }()

	for _, args := range [][]string{{"-h"}, {"--bogus"}, {"-t", "w"}} {
		if code := _main(args); code != 1 {
			t.Errorf("%v: expected exit code 1, got %d", args, code)
		}
	}
}

func TestStartLocked(t *testing.T) {
	_, cfg, err := parseArgs([]string{"-l", t.TempDir()})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	l, err := acquireLock(cfg.LockPath(), 0)
	if err != nil {
		t.Fatal("failed to acquire lock:", err)
	}
	defer l.Unlock()

	if _, err := acquireLock(cfg.LockPath(), 20*time.Millisecond); err == nil {
		t.Error("acquired a held lock")
	}

	if err := start(&options{}, cfg); err == nil {
		t.Error("started while another instance holds the lock")
	}
}
