package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/tsync/internal/engine"
	"github.com/fakeyudi/tsync/internal/export"
	"github.com/fakeyudi/tsync/internal/player/bridge"
	"github.com/fakeyudi/tsync/internal/player/browser"
	"github.com/fakeyudi/tsync/internal/session"
	"github.com/fakeyudi/tsync/internal/source"
	"github.com/fakeyudi/tsync/internal/transcript"
	"github.com/fakeyudi/tsync/internal/tui"
	"github.com/fakeyudi/tsync/internal/video"
)

var (
	watchTranscript transcriptFlags
	watchFresh      bool
	watchOpen       bool
	watchAddr       string
	watchFormat     string
)

var watchCmd = &cobra.Command{
	Use:   "watch <youtube-url>",
	Short: "Play a video in the browser and follow its transcript in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdin.Fd()) {
			return errors.New("watch needs an interactive terminal")
		}
		url := args[0]
		videoID, err := video.ExtractID(url)
		if err != nil {
			return errors.New(engine.UserMessage(err))
		}
		format, err := export.ParseFormat(watchFormat)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		store, err := session.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer store.Close()

		tl, sess, err := loadTimeline(ctx, store, videoID, url, watchTranscript, watchFresh)
		if err != nil {
			return err
		}
		sink, err := openSink(ctx, videoID)
		if err != nil {
			return err
		}

		// Player bridge.
		addr := watchAddr
		if addr == "" {
			addr = cfg.BridgeAddr
		}
		br := bridge.New(log.Named("bridge"))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("starting player bridge: %w", err)
		}
		srv := &http.Server{Handler: br.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("player bridge stopped", zap.Error(err))
			}
		}()
		defer srv.Close()

		pageURL := "http://" + ln.Addr().String() + "/"
		if watchOpen {
			w, err := browser.Open(pageURL, browser.Options{})
			if err != nil {
				return err
			}
			defer w.Close()
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Open %s in a browser to start the player.\n", pageURL)
		}

		relay := &tui.Relay{}
		var eng *engine.Engine
		save := func(tl transcript.Timeline) {
			sess.Touch(tl, eng.Playback().CurrentTime)
			if err := store.Save(ctx, sess); err != nil {
				log.Warn("saving session failed", zap.String("video_id", videoID), zap.Error(err))
			}
		}
		eng = engine.New(codec(), engine.Options{
			Factory:           br,
			Send:              relay.Send,
			Interval:          cfg.PollInterval(),
			Logger:            log.Named("engine"),
			OnTimelineChanged: save,
		})

		if watchTranscript.path != "" {
			// Reloads keep the shape the file was first read with.
			reload := source.WithMode(tl.Mode)
			go func() {
				err := source.Watch(ctx, watchTranscript.path, codec(), func(tl transcript.Timeline, err error) {
					relay.Send(engine.TimelineReloadedMsg{Timeline: tl, Err: err})
				}, reload)
				if err != nil {
					log.Warn("transcript watch stopped", zap.Error(err))
				}
			}()
		}

		m := tui.New(eng, tui.Options{URL: url, Timeline: tl, Sink: sink, Format: format})
		runErr := tui.Run(m, relay)
		if eng.Store().Loaded() {
			save(eng.Timeline())
		}
		return runErr
	},
}

func init() {
	watchTranscript.register(watchCmd, "transcript file (.json, .vtt or .txt); reloaded when it changes")
	watchCmd.Flags().BoolVar(&watchFresh, "fresh", false, "ignore the saved session for this video")
	watchCmd.Flags().BoolVar(&watchOpen, "open", false, "launch a browser window for the player")
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "player bridge listen address (overrides config)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "txt", "download format: txt, json or vtt")
	rootCmd.AddCommand(watchCmd)
}
