package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carecost/carecost/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage saved sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a saved session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionStore(func(store session.Store) error {
			record, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved session IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionStore(func(store session.Store) error {
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		})
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessionStore(func(store session.Store) error {
			manager := session.NewManager(store)
			return manager.Clear(cmd.Context(), args[0])
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd, sessionListCmd, sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func withSessionStore(fn func(session.Store) error) error {
	store, closeStore, err := newSessionStore(&cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeStore()
	return fn(store)
}
