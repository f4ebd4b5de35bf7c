package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/NYTimes/logrotate"
	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"
	"github.com/mitchellh/colorstring"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/isoforge/isoforge/config"
	"github.com/isoforge/isoforge/loggers/cli"
	"github.com/isoforge/isoforge/system"
)

var (
	profiler    = ""
	configPath  = config.DefaultLocation
	debug       = false
	showVersion = false
)

var root = &cobra.Command{
	Use:   "isoforge",
	Short: "Build ISO9660 disk images from directory trees and inspect existing ones",
	Long:  ``,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.FromFile(configPath); err != nil {
			panic(err)
		}
		config.SetDebugViaFlag(debug)

		c := config.Get()
		if err := configureLogging(c.System.LogDirectory, c.Debug); err != nil {
			panic(err)
		}
		if c.Debug {
			log.Debug("running in debug mode")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(system.Version)
			os.Exit(0)
		}
		_ = cmd.Help()
	},
}

func init() {
	root.PersistentFlags().BoolVar(&showVersion, "version", false, "show the version and exit")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultLocation, "set the location for the configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "pass in order to run isoforge in debug mode")
	root.PersistentFlags().StringVar(&profiler, "profiler", "", "the profiler to run for this instance")

	root.AddCommand(buildCmd)
	root.AddCommand(listCmd)
}

// Execute calls cobra to handle cli commands.
func Execute() error {
	return root.Execute()
}

// startProfiler starts the requested profiler, if any, and returns a stop
// function for the caller to defer.
func startProfiler() func() {
	var p interface{ Stop() }
	switch profiler {
	case "cpu":
		p = profile.Start(profile.CPUProfile)
	case "mem":
		p = profile.Start(profile.MemProfile)
	case "alloc":
		p = profile.Start(profile.MemProfileAllocs)
	case "block":
		p = profile.Start(profile.BlockProfile)
	default:
		return func() {}
	}
	return p.Stop
}

// Configures the global logger so that it can be called from any location in
// the code without having to pass around a logger instance.
func configureLogging(logDir string, debug bool) error {
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return err
	}

	p := filepath.Join(logDir, "isoforge.log")
	w, err := logrotate.NewFile(p)
	if err != nil {
		return errors.WithMessage(err, "cmd: failed to open process log file")
	}

	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	log.SetHandler(multi.New(
		cli.Default,
		cli.New(w.File, false),
	))

	return nil
}

func printLogo() {
	fmt.Printf(colorstring.Color(`
 [blue][bold]isoforge[reset] %s
 ISO9660 image builder and inspector
`), system.Version)
}
