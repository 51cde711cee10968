package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cottand/duckcheck/duckcheck"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/cottand/duckcheck/internal/log"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check program.yaml|./folder",
	Short:        "Check a program tree for structural type errors",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

// ErrDiagnostics is returned when the checked program has diagnostics, so that the process exits with status 1
var ErrDiagnostics = errors.New("diagnostics found")

type readFileDirFS interface {
	fs.ReadFileFS
	fs.ReadDirFS
}

var (
	builtinsPath *string
	jobs         *int
	cacheDir     *string
	noCache      *bool
	colorMode    *string
	logLevel     *int
	logSections  *[]string
)

func init() {
	builtinsPath = CheckCmd.Flags().StringP("builtins", "b", "", "TOML table of built-in types, merged over the default one")
	jobs = CheckCmd.Flags().IntP("jobs", "j", 0, "maximum number of functions analyzed concurrently (0 means no limit)")
	cacheDir = CheckCmd.Flags().String("cache-dir", "", "directory for cached results (defaults to the user cache directory)")
	noCache = CheckCmd.Flags().Bool("no-cache", false, "do not read or write cached results")
	colorMode = CheckCmd.Flags().String("color", string(duckerr.ColorAuto), "colorize diagnostics: auto, always or never")
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	logSections = CheckCmd.Flags().StringSlice("log-sections", log.DefaultSections, "sections logged below warning level")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	log.SetSections(*logSections...)
	mode, err := duckerr.ParseColorMode(*colorMode)
	if err != nil {
		return err
	}

	target, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("could not stat target: %w", err)
	}

	settings := duckcheck.PkgLoadSettings{
		BuiltinsFile: *builtinsPath,
		Jobs:         *jobs,
	}
	rootDir := target
	if !stat.IsDir() {
		rootDir = filepath.Dir(target)
		settings.File = filepath.Base(target)
	}
	if !*noCache {
		settings.Cache, err = duckcheck.OpenDiskCache(*cacheDir)
		if err != nil {
			return fmt.Errorf("could not open cache: %w", err)
		}
	}

	pkg, err := duckcheck.LoadPackage(cmd.Context(), os.DirFS(rootDir).(readFileDirFS), settings)
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	for _, failure := range pkg.Failures() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: %v\n", pkg.Name(), failure)
	}

	printer := duckerr.NewPrinter(cmd.OutOrStdout(), mode)
	if err := printer.Print(pkg.Name(), pkg.Errors()); err != nil {
		return err
	}
	if pkg.Errors().HasError() {
		return ErrDiagnostics
	}
	return nil
}
