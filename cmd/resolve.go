package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tsync/internal/engine"
	"github.com/fakeyudi/tsync/internal/session"
	"github.com/fakeyudi/tsync/internal/transcript"
	"github.com/fakeyudi/tsync/internal/video"
)

var resolveTranscript transcriptFlags

var resolveCmd = &cobra.Command{
	Use:   "resolve <youtube-url|video-id> <time>",
	Short: "Print the segment playing at a given time",
	Long: "Print the segment playing at a given time. The time is either a\n" +
		"timestamp in the configured time format or a number of seconds.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := video.ParseID(args[0])
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}
		c := codec()
		at, err := c.Parse(args[1])
		if err != nil {
			secs, perr := strconv.ParseFloat(args[1], 64)
			if perr != nil || secs < 0 {
				return fmt.Errorf("time %q: want %s or seconds", args[1], c.Layout())
			}
			at = secs
		}

		ctx := cmd.Context()
		store, err := session.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer store.Close()

		tl, _, err := loadTimeline(ctx, store, videoID, args[0], resolveTranscript, false)
		if err != nil {
			return err
		}

		idx, ok := transcript.Resolve(at, tl.Segments)
		if !ok {
			cmd.Printf("No segment at %s.\n", c.Format(at))
			return nil
		}
		seg := tl.Segments[idx]
		cmd.Printf("#%d [%s - %s] %s\n", seg.ID, c.Format(seg.Start), c.Format(seg.End), seg.Payload.Text())
		if tr, ok := seg.Payload.Translation(); ok {
			cmd.Printf("    %s\n", tr)
		}
		return nil
	},
}

func init() {
	resolveTranscript.register(resolveCmd, "resolve against this transcript file")
	rootCmd.AddCommand(resolveCmd)
}
