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

var editTranscript transcriptFlags

var editCmd = &cobra.Command{
	Use:   "edit <youtube-url|video-id> <segment-id> <start|end|text|translation> <value>",
	Short: "Change one field of a segment in the saved session",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := video.ParseID(args[0])
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}
		segID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("segment id must be a number: %q", args[1])
		}
		field, err := transcript.ParseField(args[2])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := session.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer store.Close()

		tl, sess, err := loadTimeline(ctx, store, videoID, args[0], editTranscript, false)
		if err != nil {
			return err
		}

		segs := transcript.NewStore(codec())
		if err := segs.Load(tl); err != nil {
			return errors.New(engine.UserMessage(err))
		}
		index := -1
		for i, seg := range segs.All() {
			if seg.ID == segID {
				index = i
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("no segment with id %d", segID)
		}

		if err := segs.UpdateField(index, field, args[3]); err != nil {
			return errors.New(engine.UserMessage(err))
		}
		sess.Touch(segs.Timeline(), sess.LastPosition)
		if err := store.Save(ctx, sess); err != nil {
			return err
		}

		shown, _ := segs.Display(index, field)
		cmd.Printf("Segment %d %s set to %q.\n", segID, field, shown)
		return nil
	},
}

func init() {
	editTranscript.register(editCmd, "start from this transcript file instead of the saved session")
	rootCmd.AddCommand(editCmd)
}
