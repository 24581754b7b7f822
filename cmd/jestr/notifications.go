package main

import (
	"fmt"
	"strconv"

	"github.com/jestr-media/client/pkg/notifications"
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show stored notifications and settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotifications(cmd, func(s *notifications.Store) error {
			st := s.State()
			out := cmd.OutOrStdout()
			for _, n := range st.Notifications {
				mark := " "
				if !n.Read {
					mark = "•"
				}
				fmt.Fprintf(out, "%s %d %s %s: %s\n", mark, n.Id, n.Timestamp.Format("2006-01-02 15:04"), n.Title, n.Message)
			}
			fmt.Fprintf(out, "%d unread\n", s.UnreadCount())
			fmt.Fprintf(out, "settings: %+v\n", st.Settings)
			return nil
		})
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid notification id: %w", err)
		}
		return withNotifications(cmd, func(s *notifications.Store) error {
			return s.MarkAsRead(id)
		})
	},
}

var notificationsResetCmd = &cobra.Command{
	Use:   "reset-settings",
	Short: "Restore the default notification settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotifications(cmd, func(s *notifications.Store) error {
			s.ResetToDefaults()
			return nil
		})
	},
}

func withNotifications(cmd *cobra.Command, fn func(*notifications.Store) error) error {
	sink, err := openSink(cmd.Context())
	if err != nil {
		return err
	}
	defer sink.Close()

	s := notifications.NewStore(notifications.Options{Logger: logger, Sink: sink, NodeId: cfg.Dev.NodeId})
	defer s.Close()
	if err := s.Restore(cmd.Context()); err != nil {
		return err
	}
	return fn(s)
}

func init() {
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsResetCmd)
}
