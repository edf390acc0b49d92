package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.unix.lgbt/diamondburned/autospawn/autospawn"
	"git.unix.lgbt/diamondburned/autospawn/autospawn/exec"
	"git.unix.lgbt/diamondburned/autospawn/autospawn/journal"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// options are the command line flags. Pointer fields are nil unless given, so
// that they only override the configuration file when they are.
type options struct {
	Spawn     *int    `short:"s" long:"spawn" value-name:"n" description:"interval to wait after spawning, in time units"`
	Wait      *int    `short:"w" long:"wait" value-name:"n" description:"interval to wait while the previous process runs, in time units"`
	LogFolder *string `short:"l" long:"log-folder" value-name:"dir" description:"folder for the daemon log, command output and lock file"`
	Command   *string `short:"c" long:"command" value-name:"cmd" description:"shell command to spawn"`
	TimeUnit  *string `short:"t" long:"time-unit" value-name:"d|h|m|s" description:"unit of the spawn and wait intervals"`
	SizeUnit  *string `short:"k" long:"size-unit" value-name:"k|m|g" description:"unit of the log size limit"`
	LogLimit  *int    `short:"m" long:"log-limit" value-name:"n" description:"daemon log size past which it is rotated, in size units"`
	CPULimit  *int    `short:"p" long:"cpu-limit" value-name:"percent" description:"CPU percentage to throttle the spawned process to, 0 to disable"`

	WorkDir      *string `long:"workdir" value-name:"dir" description:"working directory of the spawned process"`
	ThrottleTool *string `long:"throttle-tool" value-name:"path" description:"CPU throttling tool"`

	Config   string        `short:"f" long:"config" value-name:"file" description:"YAML file with default values for every other flag"`
	LockWait time.Duration `long:"lock-wait" value-name:"duration" description:"how long to wait for another instance to release the log folder"`
	Fresh    bool          `long:"fresh" description:"do not take over the process tracked by a previous instance"`
	Verbose  bool          `short:"v" long:"verbose" description:"also write the daemon log to stderr"`
	Help     bool          `short:"h" long:"help" description:"show this help message"`
}

// apply overrides cfg with every flag that was given.
func (opts *options) apply(cfg *autospawn.Config) {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&cfg.SpawnInterval, opts.Spawn)
	setInt(&cfg.WaitInterval, opts.Wait)
	setInt(&cfg.LogLimit, opts.LogLimit)
	setInt(&cfg.CPULimit, opts.CPULimit)
	setString(&cfg.LogFolder, opts.LogFolder)
	setString(&cfg.Command, opts.Command)
	setString(&cfg.WorkDir, opts.WorkDir)
	setString(&cfg.ThrottleTool, opts.ThrottleTool)

	if opts.TimeUnit != nil {
		cfg.TimeUnit = autospawn.TimeUnit(*opts.TimeUnit)
	}
	if opts.SizeUnit != nil {
		cfg.SizeUnit = autospawn.SizeUnit(*opts.SizeUnit)
	}
}

var errHelp = errors.New("help requested")

// parseArgs builds the configuration from the defaults, the configuration file
// and the flags, in increasing order of precedence. errHelp is returned if the
// help flag is given.
func parseArgs(args []string) (*options, autospawn.Config, error) {
	var opts options

	p := flags.NewParser(&opts, flags.PassDoubleDash)

	rest, err := p.ParseArgs(args)
	if err != nil {
		return nil, autospawn.Config{}, errors.Wrap(err, "failed to parse arguments")
	}

	if opts.Help {
		return &opts, autospawn.Config{}, errHelp
	}

	if len(rest) > 0 {
		return nil, autospawn.Config{}, errors.Errorf("unexpected argument %q", rest[0])
	}

	cfg := autospawn.DefaultConfig()

	if opts.Config != "" {
		if err := autospawn.LoadConfigFile(opts.Config, &cfg); err != nil {
			return nil, autospawn.Config{}, err
		}
	}

	opts.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, autospawn.Config{}, err
	}

	return &opts, cfg, nil
}

func showHelp(w io.Writer) {
	p := flags.NewParser(&options{}, flags.None)
	p.Name = filepath.Base(os.Args[0])
	p.WriteHelp(w)
}

func main() {
	os.Exit(_main(os.Args[1:]))
}

func _main(args []string) int {
	opts, cfg, err := parseArgs(args)
	if err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		showHelp(os.Stderr)
		return 1
	}

	if err := start(opts, cfg); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func start(opts *options, cfg autospawn.Config) error {
	lock, err := acquireLock(cfg.LockPath(), opts.LockWait)
	if err != nil {
		if errors.Is(err, journal.ErrLockedElsewhere) {
			return errors.Errorf("autospawn is already running in %s", cfg.LogFolder)
		}
		return err
	}
	defer lock.Unlock()

	var prevPID int
	if !opts.Fresh {
		prevPID, err = journal.ReadPreviousPIDFromFile(cfg.DaemonLogPath())
		if err != nil {
			// Not fatal; the worst case is a duplicate process.
			log.Println("not taking over previous process:", err)
		}
	}

	sink, err := journal.OpenFile(cfg.DaemonLogPath())
	if err != nil {
		return errors.Wrap(err, "failed to open daemon log")
	}
	defer sink.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	j := autospawn.NewWriterJournaler(sink)
	if opts.Verbose {
		j = autospawn.MultiJournaler(j, autospawn.NewWriterJournaler(os.Stderr))
	}

	j.Write(autospawn.EventAcquired{LockFile: lock.Path()})

	if err := sink.Watch(ctx, j); err != nil {
		j.Write(autospawn.EventWarning{
			Component: "watcher",
			Error:     fmt.Sprintf("not watching %s because: %v", sink.Path(), err),
		})
	}

	s := autospawn.NewSupervisor(cfg, exec.ShellLauncher{}, exec.PSTable{}, sink, j)
	s.Takeover(prevPID)

	return s.Run(ctx)
}

func acquireLock(path string, wait time.Duration) (*journal.Lock, error) {
	if wait <= 0 {
		return journal.AcquireLock(path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	l, err := journal.AcquireLockWait(ctx, path)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, journal.ErrLockedElsewhere
	}

	return l, err
}
