package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/numberguess/internal/commentary"
	"github.com/robalobadob/numberguess/internal/config"
	"github.com/robalobadob/numberguess/internal/console"
	"github.com/robalobadob/numberguess/internal/daily"
	"github.com/robalobadob/numberguess/internal/httpserver"
	"github.com/robalobadob/numberguess/internal/session"
	"github.com/robalobadob/numberguess/internal/store"
)

const sweepInterval = time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}
	root := &cobra.Command{
		Use:           "guessd",
		Short:         "Guess the Number with an AI game show host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			c, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = c
			if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
			return nil
		},
	}
	serve := newServeCmd(cfg)
	root.RunE = serve.RunE
	root.AddCommand(serve, newPlayCmd(cfg))
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := newHost(ctx, *cfg)
			st := store.NewMemoryStore(func(id string) *session.Controller {
				return session.New(id, host)
			}, cfg.SessionTTL)
			defer st.Close()

			srv := httpserver.New(st, *cfg)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx, cfg.Addr()) })
			g.Go(func() error { return store.RunSweeper(gctx, st, sweepInterval) })

			log.Info().Str("port", cfg.Port).Dur("sessionTTL", cfg.SessionTTL).Msg("starting go-server")
			if err := g.Wait(); err != nil {
				log.Error().Err(err).Msg("server exited")
				return err
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}
}

func newPlayCmd(cfg *config.Config) *cobra.Command {
	var useDaily bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			ctrl := session.New("console", newHost(ctx, *cfg))
			errc := make(chan error, 1)
			go func() { errc <- ctrl.Run(ctx) }()

			secret := 0
			if useDaily {
				secret = daily.Secret(time.Now(), cfg.DailySalt)
			}
			err := console.Play(ctx, ctrl, secret, cmd.InOrStdin(), cmd.OutOrStdout())
			cancel()
			<-errc
			return err
		},
	}
	cmd.Flags().BoolVar(&useDaily, "daily", false, "play the number of the day")
	return cmd
}

// newHost builds the commentary client. Without an API key every guess
// gets the fallback line.
func newHost(ctx context.Context, cfg config.Config) *commentary.Client {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set; host will use fallback lines")
		return commentary.NewClient(commentary.Disabled(), cfg.CommentaryTimeout)
	}
	gen, err := commentary.NewGemini(ctx, commentary.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("gemini unavailable; host will use fallback lines")
		return commentary.NewClient(commentary.Disabled(), cfg.CommentaryTimeout)
	}
	log.Info().Str("model", gen.Model()).Msg("gemini host ready")
	return commentary.NewClient(gen, cfg.CommentaryTimeout)
}
