package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tsync/internal/engine"
	"github.com/fakeyudi/tsync/internal/video"
)

var idCmd = &cobra.Command{
	Use:   "id <youtube-url>",
	Short: "Print the video id and embed URL for a YouTube link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := video.ExtractID(args[0])
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}
		cmd.Println(id)
		cmd.Println(video.EmbedURL(id))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
}
