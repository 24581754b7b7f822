package main

import (
	"fmt"
	"strings"

	"github.com/jestr-media/client/pkg/comments"
	"github.com/spf13/cobra"
)

var (
	commentText   string
	commentParent string
	commentName   string
)

var commentsCmd = &cobra.Command{
	Use:   "comments <meme id>",
	Short: "Print the comment thread of a meme, optionally posting first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		threader := comments.NewThreader(newClient(), comments.Options{Logger: logger})

		if commentText != "" {
			if err := requireUser(); err != nil {
				return err
			}
			name := commentName
			if name == "" {
				name, _, _ = strings.Cut(cfg.User, "@")
			}
			author := comments.Author{Email: cfg.User, Username: name}
			if err := threader.Submit(ctx, args[0], commentText, author, commentParent); err != nil {
				return err
			}
		} else if err := threader.Load(ctx, args[0]); err != nil {
			return err
		}

		st := threader.State()
		fmt.Fprintf(cmd.OutOrStdout(), "%d comments\n", st.Count)
		printThread(cmd, st.Tree, 0)
		return nil
	},
}

func printThread(cmd *cobra.Command, tree []*comments.Comment, depth int) {
	for _, c := range tree {
		fmt.Fprintf(cmd.OutOrStdout(), "%s[%s] %s (%+d): %s\n",
			strings.Repeat("  ", depth), c.Id, c.AuthorUsername, c.Score(), c.Text)
		printThread(cmd, c.Replies, depth+1)
	}
}

func init() {
	commentsCmd.Flags().StringVar(&commentText, "post", "", "comment text to submit")
	commentsCmd.Flags().StringVar(&commentParent, "reply-to", "", "parent comment id")
	commentsCmd.Flags().StringVar(&commentName, "username", "", "display name, defaults to the local part of the user e-mail")
}
