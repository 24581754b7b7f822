package main

import (
	"fmt"
	"strings"

	"github.com/jestr-media/client/pkg/ids"
	"github.com/jestr-media/client/pkg/inbox"
	"github.com/spf13/cobra"
)

var inboxRefreshAll bool

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeStore, err := openInbox(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		if inboxRefreshAll {
			err = s.RefreshAll(cmd.Context(), cfg.User)
		} else {
			err = s.FetchConversations(cmd.Context(), cfg.User)
		}
		if err != nil {
			return err
		}

		st := s.State()
		out := cmd.OutOrStdout()
		for _, list := range [][]inbox.Conversation{st.Pinned, st.Conversations} {
			for _, c := range list {
				pin := " "
				if c.Pinned {
					pin = "*"
				}
				fmt.Fprintf(out, "%s %s %-24s unread=%d %s\n",
					pin, c.Id, c.Partner.Username, c.UnreadCount, c.LastMessage.Content.Preview())
			}
		}
		fmt.Fprintf(out, "%d unread\n", s.TotalUnread())
		return nil
	},
}

var inboxSendCmd = &cobra.Command{
	Use:   "send <conversation id | partner e-mail> <text>",
	Short: "Send a message, starting a conversation when needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeStore, err := openInbox(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := s.FetchConversations(cmd.Context(), cfg.User); err != nil {
			return err
		}

		target := args[0]
		convId := findConversation(s.State(), target)
		if convId == "" {
			if !strings.Contains(target, "@") {
				return fmt.Errorf("%w: %s", inbox.ErrConversationNotFound, target)
			}
			if convId, err = s.AddConversation(inbox.Partner{Email: target}); err != nil {
				return err
			}
		}

		msgId, err := s.SendMessage(convId, inbox.TextContent(strings.Join(args[1:], " ")))
		if err != nil {
			return err
		}
		s.Wait()

		// Delivered messages get their server id, so a local id left behind
		// means the send failed.
		if m, ok := findMessage(s.State(), msgId); ok {
			return fmt.Errorf("message %s: %s", m.Id, m.Status)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "sent")
		return nil
	},
}

func openInbox(cmd *cobra.Command) (*inbox.Store, func(), error) {
	if err := requireUser(); err != nil {
		return nil, nil, err
	}
	sink, err := openSink(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	s := inbox.NewStore(newClient(), inbox.Options{
		UserId:             cfg.User,
		Logger:             logger,
		Sink:               sink,
		RefreshConcurrency: cfg.Inbox.RefreshConcurrency,
	})
	if err := s.Restore(cmd.Context()); err != nil {
		logger.Warn("Failed to restore inbox snapshot")
	}
	return s, func() {
		_ = s.Close()
		_ = sink.Close()
	}, nil
}

func findConversation(st inbox.State, target string) ids.ID {
	for _, list := range [][]inbox.Conversation{st.Pinned, st.Conversations} {
		for _, c := range list {
			if c.Id.String() == target || strings.EqualFold(c.Partner.Email, target) {
				return c.Id
			}
		}
	}
	return ""
}

func findMessage(st inbox.State, id ids.ID) (inbox.Message, bool) {
	for _, list := range [][]inbox.Conversation{st.Pinned, st.Conversations} {
		for _, c := range list {
			for _, m := range c.Messages {
				if m.Id == id {
					return m, true
				}
			}
		}
	}
	return inbox.Message{}, false
}

func init() {
	inboxCmd.Flags().BoolVar(&inboxRefreshAll, "all", false, "also refresh the messages of every conversation")
	inboxCmd.AddCommand(inboxSendCmd)
}
