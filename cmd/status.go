package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tsync/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List saved transcript sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := session.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			cmd.Println("no saved sessions")
			return nil
		}

		c := codec()
		for _, s := range list {
			cmd.Printf("%s  %-9s  %3d segments  at %s  updated %s\n",
				s.VideoID,
				s.Timeline.Mode,
				len(s.Timeline.Segments),
				c.Format(s.LastPosition),
				s.UpdatedAt.Local().Format(time.DateTime),
			)
		}
		cmd.Printf("%d saved session(s) in the %s store\n", len(list), cfg.Store)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
