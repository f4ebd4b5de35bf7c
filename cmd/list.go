package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/isoforge/isoforge/config"
	"github.com/isoforge/isoforge/internal/iso9660"
	"github.com/isoforge/isoforge/system"
)

var listArgs struct {
	Image string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the directory hierarchy of an existing ISO9660 image",

	Run: listCmdRun,
}

func init() {
	listCmd.PersistentFlags().StringVarP(&listArgs.Image, "image", "i", "", "the path of the image to inspect")
}

func listCmdRun(cmd *cobra.Command, args []string) {
	if listArgs.Image == "" {
		err := survey.AskOne(&survey.Input{Message: "Image path: "}, &listArgs.Image)
		if err == terminal.InterruptErr {
			return
		} else if err != nil {
			log.WithField("error", err).Fatal("failed to read image path")
			return
		}
	}

	f, err := os.Open(listArgs.Image)
	if err != nil {
		log.WithField("error", err).Fatal("failed to open image")
		return
	}
	defer f.Close()

	r, err := iso9660.NewReader(f, config.Get().System.DescriptorScanLimit)
	if err != nil {
		log.WithFields(log.Fields{"image": listArgs.Image, "error": err}).Fatal("could not read the primary volume descriptor")
		return
	}

	d := r.Descriptor()
	log.WithFields(log.Fields{
		"volume": d.VolumeIdentifier,
		"blocks": d.VolumeSpaceSize,
		"size":   system.FormatBytes(int64(d.VolumeSpaceSize) * int64(d.LogicalBlockSize)),
	}).Info("decoded primary volume descriptor")

	err = r.Walk(func(depth int, rec *iso9660.DirectoryRecord) error {
		marker := ""
		if rec.IsDirectory {
			marker = "[DIR] "
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", depth*4), marker, rec.Identifier)
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{"image": listArgs.Image, "error": err}).Fatal("failed to walk image hierarchy")
	}
}
