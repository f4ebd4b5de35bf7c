package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/isoforge/isoforge/config"
	"github.com/isoforge/isoforge/internal/iso9660"
	"github.com/isoforge/isoforge/internal/progress"
	"github.com/isoforge/isoforge/system"
)

var buildArgs struct {
	Source string
	Output string
	Label  string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Encode a source directory tree into an ISO9660 image",

	Run: buildCmdRun,
}

func init() {
	buildCmd.PersistentFlags().StringVarP(&buildArgs.Source, "source", "s", "", "the directory tree to encode into the image")
	buildCmd.PersistentFlags().StringVarP(&buildArgs.Output, "output", "o", "", "the path the image is written to")
	buildCmd.PersistentFlags().StringVarP(&buildArgs.Label, "label", "l", "", "the volume identifier stamped into the image")
}

func buildCmdRun(cmd *cobra.Command, args []string) {
	defer startProfiler()()

	questions := []*survey.Question{}
	if buildArgs.Source == "" {
		questions = append(questions, &survey.Question{
			Name:   "Source",
			Prompt: &survey.Input{Message: "Source directory: "},
			Validate: func(ans interface{}) error {
				if str, ok := ans.(string); ok {
					s, err := os.Stat(str)
					if err != nil {
						return err
					}
					if !s.IsDir() {
						return fmt.Errorf("%s is not a directory", str)
					}
				}
				return nil
			},
		})
	}
	if buildArgs.Output == "" {
		questions = append(questions, &survey.Question{
			Name:   "Output",
			Prompt: &survey.Input{Message: "Output image path: "},
		})
	}
	if err := survey.Ask(questions, &buildArgs); err != nil {
		if err == terminal.InterruptErr {
			return
		}
		log.WithField("error", err).Fatal("failed to read paths")
		return
	}

	printLogo()

	src, err := filepath.Abs(buildArgs.Source)
	if err != nil {
		log.WithField("error", err).Fatal("failed to resolve source path")
		return
	}
	if s, err := os.Stat(src); err != nil {
		log.WithField("error", err).Fatal("failed to stat source directory")
		return
	} else if !s.IsDir() {
		log.WithField("path", src).Fatal("source path is not a directory")
		return
	}

	f, err := os.OpenFile(buildArgs.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		log.WithField("error", err).Fatal("failed to open output image for writing")
		return
	}

	c := config.Get()
	p := progress.NewProgress(0)
	b := &iso9660.Builder{
		SourcePath:       src,
		VolumeIdentifier: system.FirstNotEmpty(buildArgs.Label, c.Volume.Identifier),
		SystemIdentifier: c.Volume.SystemIdentifier,
		ChunkSize:        c.System.ChunkSize,
		Progress:         p,
	}

	log.WithFields(log.Fields{
		"source": src,
		"image":  buildArgs.Output,
		"label":  b.VolumeIdentifier,
	}).Info("building image")

	// Render the write progress to the terminal once per second until the
	// build returns.
	done := make(chan struct{})
	go func(p *progress.Progress, tc *time.Ticker) {
		defer tc.Stop()

		for {
			select {
			case <-done:
				return
			case <-tc.C:
				fmt.Printf("\r%s %6.2f%%", p.Progress(25), p.Percentage())
			}
		}
	}(p, time.NewTicker(time.Second))

	err = b.Build(f)
	close(done)
	fmt.Println()

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Never leave a partial image behind looking like a valid one.
		_ = os.Remove(buildArgs.Output)
		log.WithField("error", err).Fatal("failed to build image")
		return
	}

	log.WithFields(log.Fields{
		"image": buildArgs.Output,
		"bytes": system.FormatBytes(p.Written()),
	}).Info("image built successfully")
}
