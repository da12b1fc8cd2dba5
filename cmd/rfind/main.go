package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kk-code-lab/rfind/internal/config"
	"github.com/kk-code-lab/rfind/internal/engine"
	"github.com/kk-code-lab/rfind/internal/logging"
	"github.com/kk-code-lab/rfind/internal/search"
	"github.com/kk-code-lab/rfind/internal/ui"
)

var (
	// Version is injected at build time
	Version = "dev"
	// ProgramName is injected at build time
	ProgramName = "rfind"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, ProgramName, args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", ProgramName, err)
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, programName string, args []string, stdout, stderr io.Writer) error {
	rootCmd := &cobra.Command{
		Use:           programName + " [DIR]",
		Short:         "Interactive fuzzy file name and content finder",
		Long:          "Search a directory tree by fuzzy file name or by file content. Tab switches between the two modes.",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				settings.Root = args[0]
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), settings, stdout)
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)
	config.RegisterFlags(rootCmd.Flags())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	})

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

func run(ctx context.Context, settings *config.Settings, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, closeLog, err := logging.Init(logging.Config{File: settings.LogFile, Level: settings.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()
	logger.WithFields(logrus.Fields{
		"root":   settings.Root,
		"config": settings.ConfigFile,
		"mode":   settings.Mode,
	}).Info("starting")

	opts := engineOptions(settings, logger)
	if settings.List {
		return runList(ctx, settings, opts, stdout)
	}
	return runInteractive(ctx, settings, opts, stdout)
}

func engineOptions(settings *config.Settings, logger logrus.FieldLogger) engine.Options {
	opts := engine.DefaultOptions()
	opts.ShowHidden = settings.ShowHidden
	opts.MaxDepth = settings.MaxDepth
	opts.SyncThreshold = settings.SyncThreshold
	opts.Logger = logger
	opts.Scanner = search.ContentScannerOptions{
		Workers:         settings.Workers,
		MaxFileSize:     settings.MaxFileSize,
		MaxHitsPerFile:  settings.MaxHitsPerFile,
		MaxPreviewBytes: settings.MaxPreviewBytes,
	}
	return opts
}

// runList answers one query without a terminal UI and prints every result.
func runList(ctx context.Context, settings *config.Settings, opts engine.Options, stdout io.Writer) error {
	e, err := engine.New(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.SetRoot(ctx, settings.Root); err != nil {
		return err
	}
	e.Submit(settings.Query, settings.SearchMode())
	if err := e.Wait(ctx); err != nil {
		return err
	}

	size := settings.PageSize
	for page := 0; page < e.PageCount(size); page++ {
		for _, rec := range e.CurrentPage(page, size) {
			if err := printRecord(stdout, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func printRecord(w io.Writer, rec engine.Record) error {
	var err error
	if rec.Line > 0 {
		_, err = fmt.Fprintf(w, "%s:%d:%s\n", rec.Path, rec.Line, rec.Preview)
	} else {
		_, err = fmt.Fprintln(w, rec.Path)
	}
	return err
}

func runInteractive(ctx context.Context, settings *config.Settings, opts engine.Options, stdout io.Writer) error {
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	finished := false
	finish := func() {
		if !finished {
			finished = true
			screen.Fini()
		}
	}
	defer finish()

	opts.OnPublish = ui.WakeFunc(screen)
	e, err := engine.New(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.SetRoot(ctx, settings.Root); err != nil {
		return err
	}
	mode := settings.SearchMode()
	e.Submit(settings.Query, mode)

	app := ui.NewApplication(screen, e, ui.NewModel(settings.Query, mode, settings.PageSize))
	sel := app.Run()
	finish()

	if sel == nil {
		return nil
	}
	return printSelection(stdout, e.Root(), sel)
}

func printSelection(w io.Writer, root string, sel *ui.Selection) error {
	out := filepath.Join(root, filepath.FromSlash(sel.Path))
	if sel.Line > 0 {
		out += ":" + strconv.Itoa(sel.Line)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
