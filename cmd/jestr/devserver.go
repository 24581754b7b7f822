package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jestr-media/client/pkg/api"
	"github.com/jestr-media/client/pkg/api/devserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedMemes int

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Serve the in-memory backend for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := devserver.New(devserver.Options{
			Token:  cfg.Dev.Token,
			NodeId: cfg.Dev.NodeId,
			Logger: logger,
		})
		for i := 0; i < seedMemes; i++ {
			srv.SeedMeme(api.WireMeme{
				Caption:  fmt.Sprintf("meme #%d", i+1),
				URL:      fmt.Sprintf("https://cdn.jestr.dev/memes/%d.jpg", i+1),
				Username: "jestr",
				Email:    "jestr@jestr.dev",
			})
		}

		httpSrv := &http.Server{Addr: cfg.Dev.Addr, Handler: srv.Router()}
		go func() {
			<-cmd.Context().Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(ctx)
		}()

		logger.Info("Serving dev server", zap.String("addr", cfg.Dev.Addr), zap.Int("memes", seedMemes))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	devserverCmd.Flags().IntVar(&seedMemes, "seed", 25, "number of memes to seed the feed with")
}
