package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var errNoTokenStore = errors.New("no token store configured: set token.redis.addr in the config file")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bot tokens in the configured Redis store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if current.redis == nil {
			return errNoTokenStore
		}
		return current.redis.Ping(cmd.Context())
	},
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <project-id> <token>",
	Short: "Store the bot token of a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		if err := current.tokens.SetToken(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token stored for project %d\n", id)
		return nil
	},
}

var tokenGetCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Print the bot token of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		token, err := current.tokens.Token(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Remove the bot token of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		return current.tokens.DeleteToken(cmd.Context(), id)
	},
}

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenGetCmd, tokenDeleteCmd)
}
