package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/tsync/internal/config"
	"github.com/fakeyudi/tsync/internal/export"
	"github.com/fakeyudi/tsync/internal/logger"
	"github.com/fakeyudi/tsync/internal/session"
	"github.com/fakeyudi/tsync/internal/source"
	"github.com/fakeyudi/tsync/internal/timecode"
	"github.com/fakeyudi/tsync/internal/transcript"
	"github.com/fakeyudi/tsync/internal/video"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// log is the command logger; a no-op until PersistentPreRunE runs.
var log = zap.NewNop()

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "tsync",
	Short:        "Watch a YouTube video with a synchronized, editable transcript",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// First run: no global config yet, offer the setup wizard when a
		// person is at the keyboard.
		if !config.GlobalExists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to tsync! Looks like this is your first time.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if _, err := c.Codec(); err != nil {
			return fmt.Errorf("config time_format: %w", err)
		}
		cfg = c

		lc := logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}
		// The TUI owns the terminal while watching.
		if verbose && cmd.Name() != "watch" {
			lc.Console = cmd.ErrOrStderr()
		}
		l, err := logger.New(lc)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func codec() timecode.Codec {
	c, _ := cfg.Codec()
	return c
}

// openSink returns the download sink named by the config. Objects uploaded
// to minio are keyed under the video id.
func openSink(ctx context.Context, videoID string) (export.Sink, error) {
	switch cfg.Sink {
	case "", "file":
		return &export.FileSink{Dir: cfg.OutputDir}, nil
	case "minio":
		return export.NewMinioSink(ctx, export.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			Prefix:    videoID,
		})
	}
	return nil, fmt.Errorf("unknown sink %q (want file or minio)", cfg.Sink)
}

// transcriptFlags are shared by every command that can read a transcript
// file.
type transcriptFlags struct {
	path string
	mode string
}

func (f *transcriptFlags) register(c *cobra.Command, usage string) {
	c.Flags().StringVarP(&f.path, "transcript", "t", "", usage)
	c.Flags().StringVar(&f.mode, "mode", "", "shape of a .txt transcript: single or bilingual (default: the saved session's, else inferred)")
}

// sourceOptions fixes the payload shape of a plain transcript file: the
// --mode flag first, then the shape of the saved session.
func (f *transcriptFlags) sourceOptions(saved *session.Session) ([]source.Option, error) {
	switch {
	case f.mode != "":
		var m transcript.Mode
		if err := m.UnmarshalText([]byte(f.mode)); err != nil {
			return nil, fmt.Errorf("--mode: %w", err)
		}
		return []source.Option{source.WithMode(m)}, nil
	case saved != nil:
		return []source.Option{source.WithMode(saved.Timeline.Mode)}, nil
	}
	return nil, nil
}

// sessionURL is the URL recorded for a new session: arg itself when it is
// a URL, the embed URL when arg is a bare video id.
func sessionURL(arg, videoID string) string {
	if _, err := video.ExtractID(arg); err == nil {
		return arg
	}
	return video.EmbedURL(videoID)
}

// loadTimeline picks the transcript for videoID: the file named by tf when
// set, otherwise the saved session unless fresh, otherwise the demo
// transcript. The returned session is the saved one, or a new one not yet
// stored.
func loadTimeline(ctx context.Context, store session.SessionStore, videoID, arg string, tf transcriptFlags, fresh bool) (transcript.Timeline, *session.Session, error) {
	saved, err := store.Load(ctx, videoID)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return transcript.Timeline{}, nil, err
	}

	var tl transcript.Timeline
	switch {
	case tf.path != "":
		opts, err := tf.sourceOptions(saved)
		if err != nil {
			return transcript.Timeline{}, nil, err
		}
		if tl, err = source.Load(tf.path, codec(), opts...); err != nil {
			return transcript.Timeline{}, nil, err
		}
	case saved != nil && !fresh:
		log.Info("resuming saved session", zap.String("video_id", videoID), zap.Time("updated", saved.UpdatedAt))
		return saved.Timeline, saved, nil
	default:
		tl = source.Demo()
	}

	if saved == nil {
		saved = session.New(videoID, sessionURL(arg, videoID), cfg.TimeFormat, tl)
	} else {
		saved.Touch(tl, saved.LastPosition)
	}
	return tl, saved, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}
