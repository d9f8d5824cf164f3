package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/tsync/internal/engine"
	"github.com/fakeyudi/tsync/internal/session"
	"github.com/fakeyudi/tsync/internal/video"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <youtube-url|video-id>",
	Short: "Delete the saved session for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := video.ParseID(args[0])
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}

		ctx := cmd.Context()
		store, err := session.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := store.Load(ctx, videoID); errors.Is(err, session.ErrNoSession) {
			cmd.Printf("No saved session for %s.\n", videoID)
			return nil
		}
		if err := store.Delete(ctx, videoID); err != nil {
			return err
		}
		log.Info("session deleted", zap.String("video_id", videoID))
		cmd.Printf("Saved session for %s deleted.\n", videoID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
