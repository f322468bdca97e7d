package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"secdb/src/directors"
	"secdb/src/settings"
)

func userCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users allowed to call the server",
	}
	cmd.AddCommand(userAddCmd(c), userListCmd(c), userRemoveCmd(c))
	return cmd
}

func openUsers(c *cli) (*directors.UserService, error) {
	if c.args.UsersFile == "" {
		return nil, errors.New("--users-file is required")
	}
	return directors.NewUserService(c.args.UsersFile, nil)
}

// readPassword reads one line from stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}

func userAddCmd(c *cli) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a user; the password is read from stdin unless --user-password is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := openUsers(c)
			if err != nil {
				return err
			}
			if err := settings.EnsureDirs(c.args); err != nil {
				return err
			}
			if password == "" {
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}
			user, err := users.AddUser(args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created.\nID: %s\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "user-password", "", "password for the new user")
	return cmd
}

func userListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := openUsers(c)
			if err != nil {
				return err
			}
			for _, name := range users.ListUsers() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func userRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := openUsers(c)
			if err != nil {
				return err
			}
			if err := users.DeleteUser(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s removed.\n", args[0])
			return nil
		},
	}
}
