package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jestr-media/client/pkg/feed"
	"github.com/spf13/cobra"
)

var (
	feedPages int
	feedView  bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Page through the meme feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		ctx := cmd.Context()

		sink, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()

		client := newClient()
		pager := feed.NewPager(client, feed.Options{
			PageSize:             cfg.Feed.PageSize,
			MoreInterval:         cfg.Feed.MoreInterval,
			Logger:               logger,
			Sink:                 sink,
			UserEmail:            cfg.User,
			ResumeFromLastViewed: cfg.Feed.Resume,
			Views:                feed.NewViewBatch(client, cfg.Feed.ViewBatchSize, logger),
		})
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = pager.Close(ctx)
		}()

		if err := pager.FetchInitial(ctx); err != nil {
			return err
		}
		for i := 1; i < feedPages && !pager.State().Exhausted; i++ {
			if err := pager.FetchMore(ctx); err != nil {
				return err
			}
		}

		st := pager.State()
		for i, item := range st.Items {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d %s @%s %q likes=%d comments=%d\n",
				i+1, item.Id, item.Author.Username, item.Caption, item.LikeCount, item.CommentCount)
			if feedView {
				if err := pager.MarkViewed(ctx, item.Id); err != nil {
					return err
				}
			}
		}
		if st.Exhausted {
			fmt.Fprintln(cmd.OutOrStdout(), "end of feed")
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedPages, "pages", 1, "number of pages to load")
	feedCmd.Flags().BoolVar(&feedView, "view", false, "mark every listed meme as viewed")
}
