package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tsync/internal/engine"
	"github.com/fakeyudi/tsync/internal/export"
	"github.com/fakeyudi/tsync/internal/session"
	"github.com/fakeyudi/tsync/internal/video"
)

var (
	exportFormat     string
	exportTranscript transcriptFlags
	exportStdout     bool
	exportFresh      bool
)

var exportCmd = &cobra.Command{
	Use:   "export <youtube-url|video-id>",
	Short: "Write a video's transcript as txt, json or vtt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := video.ParseID(args[0])
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := session.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer store.Close()

		tl, _, err := loadTimeline(ctx, store, videoID, args[0], exportTranscript, exportFresh)
		if err != nil {
			return err
		}

		var sink export.Sink = &export.WriterSink{W: cmd.OutOrStdout()}
		if !exportStdout {
			if sink, err = openSink(ctx, videoID); err != nil {
				return err
			}
		}

		dest, err := export.Export(ctx, sink, tl, codec(), format)
		if err != nil {
			return err
		}
		if !exportStdout {
			cmd.Printf("Transcript written to %s\n", dest)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "txt", "output format: txt, json or vtt")
	exportTranscript.register(exportCmd, "export this transcript file instead of the saved session")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "write to stdout instead of the configured sink")
	exportCmd.Flags().BoolVar(&exportFresh, "fresh", false, "ignore the saved session for this video")
	rootCmd.AddCommand(exportCmd)
}
