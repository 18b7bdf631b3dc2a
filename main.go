package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git.sr.ht/~spc/go-log"
	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/ultrasev/cursor-reset/internal/conf"
	"github.com/ultrasev/cursor-reset/internal/cursor"
	"github.com/ultrasev/cursor-reset/internal/l10n"
	"github.com/ultrasev/cursor-reset/internal/reset"
)

func main() {
	app := &cli.App{
		Name:    ShortName,
		Version: Version,
		Usage:   l10n.T("Reset the telemetry and device identifiers in Cursor's storage file"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: l10n.T("Set the logging output `LEVEL` (trace, debug, info, warn, error)"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: l10n.T("Also write log output to `FILE`"),
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:   "reset",
				Usage:  l10n.T("Generate new identifiers and write them to the storage file"),
				Flags:  resetFlags(),
				Action: runReset,
			},
			{
				Name:   "show",
				Usage:  l10n.T("Print the current identifier values without modifying anything"),
				Flags:  resetFlags(),
				Action: runShow,
			},
		},
		// Running without a subcommand performs a reset, matching the
		// original interactive tool.
		Action: runReset,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupLogging configures the process logger from configuration, with
// command-line flags taking precedence. An optional log file receives a
// copy of everything written to the console.
func setupLogging(c *cli.Context) error {
	config := conf.Configuration

	level := config.LogLevel
	if c.IsSet("log-level") {
		parsed, err := log.ParseLevel(strings.ToLower(c.String("log-level")))
		if err != nil {
			return cli.Exit(l10n.T("error: invalid log level: %v", c.String("log-level")), 1)
		}
		level = parsed
	}

	out := io.Writer(os.Stderr)
	logFile := config.LogFile
	if c.IsSet("log-file") {
		logFile = c.String("log-file")
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return cli.Exit(l10n.T("error: cannot open log file: %v", err), 1)
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	log.SetOutput(out)
	log.SetLevel(level)
	log.SetPrefix(ShortName + ": ")
	return nil
}

func resetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "app-name",
			Usage: l10n.T("Application directory `NAME` in the storage path"),
		},
		&cli.IntFlag{
			Name:  "id-length",
			Usage: l10n.T("`LENGTH` of the generated hex machine identifiers"),
		},
		&cli.StringFlag{
			Name:  "key-schema",
			Usage: l10n.T("Identifier key convention, \"dotted\" or \"nested\""),
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: l10n.T("Operate on `PATH` instead of the platform default storage file"),
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: l10n.T("Run the pipeline without creating a backup or writing the file"),
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   l10n.T("Suppress progress and decorative output"),
		},
	}
}

// options assembles reset options from configuration overridden by flags.
func options(c *cli.Context) (reset.Options, error) {
	config := conf.Configuration

	opts := reset.Options{
		AppName:   config.AppName,
		HexLength: config.IDLength,
		Schema:    config.KeySchema,
		Path:      c.String("path"),
		DryRun:    c.Bool("dry-run"),
	}
	if c.IsSet("app-name") {
		opts.AppName = c.String("app-name")
	}
	if c.IsSet("id-length") {
		opts.HexLength = c.Int("id-length")
	}
	if c.IsSet("key-schema") {
		schema, err := cursor.ParseKeySchema(c.String("key-schema"))
		if err != nil {
			return opts, cli.Exit(l10n.T("error: %v", err), 1)
		}
		opts.Schema = schema
	}
	return opts, nil
}

func runReset(c *cli.Context) error {
	opts, err := options(c)
	if err != nil {
		return err
	}

	var s *spinner.Spinner
	if !c.Bool("quiet") && term.IsTerminal(int(os.Stdout.Fd())) {
		s = spinner.New(spinner.CharSets[9], 100*time.Millisecond)
		s.Suffix = " " + l10n.T("Resetting device identifiers...")
		s.Start()
	}
	result, runErr := reset.New(opts).Run()
	if s != nil {
		s.Stop()
	}
	if runErr != nil {
		return cli.Exit(l10n.T("error: %v", runErr), 1)
	}

	if !c.Bool("quiet") {
		if opts.DryRun {
			fmt.Println(l10n.T("Dry run, no changes were written."))
		} else {
			fmt.Println(l10n.T("Device identifiers have been reset."))
		}
		if result.BackupPath != "" {
			fmt.Println(l10n.T("Backup created at: %v", result.BackupPath))
		}
		fmt.Println(l10n.T("Previous identifiers:"))
		printIdentifiers(result.Previous)
		fmt.Println(l10n.T("New identifiers:"))
	}
	printIdentifiers(result.New)
	return nil
}

func runShow(c *cli.Context) error {
	opts, err := options(c)
	if err != nil {
		return err
	}
	result, inspectErr := reset.New(opts).Inspect()
	if inspectErr != nil {
		return cli.Exit(l10n.T("error: %v", inspectErr), 1)
	}
	if !c.Bool("quiet") {
		fmt.Println(l10n.T("Storage file: %v", result.Path))
	}
	printIdentifiers(result.Previous)
	return nil
}

// printIdentifiers writes an identifier set to stdout as indented JSON,
// substituting "not set" for missing values.
func printIdentifiers(ids cursor.IdentifierSet) {
	if ids.MachineID == "" {
		ids.MachineID = "not set"
	}
	if ids.MacMachineID == "" {
		ids.MacMachineID = "not set"
	}
	if ids.DevDeviceID == "" {
		ids.DevDeviceID = "not set"
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		log.Errorf("cannot format identifiers: %v", err)
		return
	}
	fmt.Println(string(data))
}
