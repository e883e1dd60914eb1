package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"chatTracker/internal/db"
	"chatTracker/internal/tracker"
	"chatTracker/models"
)

// arg returns args[i] or def when it was not given.
func arg(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func (a *App) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Creates and initializes the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := db.Reset(a.db); err != nil {
				return fmt.Errorf("reset database: %w", err)
			}
			if _, err := a.svc.Signup(cmd.Context(), "bob", "bob@mail.com", "bobpass"); err != nil {
				return fmt.Errorf("seed bob: %w", err)
			}
			a.log.Info().Msg("database reset and seeded")
			cmd.Println("database intialized")
			return nil
		},
	}
}

func (a *App) userCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "User object commands",
	}

	var email string
	create := &cobra.Command{
		Use:   "create [username] [password]",
		Short: "Creates a user",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := arg(args, 0, "rob")
			password := arg(args, 1, "robpass")
			mail := email
			if mail == "" {
				mail = username + "@mail.com"
			}
			if _, err := a.svc.Signup(cmd.Context(), username, mail, password); err != nil {
				if errors.Is(err, tracker.ErrConflict) {
					cmd.Println("Username or Email already exists!")
					return nil
				}
				return err
			}
			cmd.Printf("%s created!\n", username)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address (default <username>@mail.com)")

	var adminEmail string
	createAdmin := &cobra.Command{
		Use:   "create-admin <username> <password> <admin-id>",
		Short: "Creates an admin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mail := adminEmail
			if mail == "" {
				mail = args[0] + "@mail.com"
			}
			if _, err := a.svc.CreateAdmin(cmd.Context(), args[0], mail, args[1], args[2]); err != nil {
				if errors.Is(err, tracker.ErrConflict) {
					cmd.Println("Username, Email or Admin ID already exists!")
					return nil
				}
				return err
			}
			cmd.Printf("%s created!\n", args[0])
			return nil
		},
	}
	createAdmin.Flags().StringVar(&adminEmail, "email", "", "email address (default <username>@mail.com)")

	list := &cobra.Command{
		Use:   "list [string|json]",
		Short: "Lists users in the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.svc.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if arg(args, 0, "string") == "string" {
				for i := range users {
					cmd.Println(users[i].String())
				}
				return nil
			}
			if users == nil {
				users = []models.User{}
			}
			b, err := json.MarshalIndent(users, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(b))
			return nil
		},
	}

	user.AddCommand(create, createAdmin, list, a.setActiveCmd("activate", true), a.setActiveCmd("deactivate", false))
	return user
}

// setActiveCmd builds `user activate|deactivate <username>`.
func (a *App) setActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: "Sets whether a regular user is active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			u, err := a.svc.UserByUsername(cmd.Context(), username)
			if err != nil {
				return err
			}
			if u == nil || !u.IsRegular() {
				cmd.Printf("%s not found!\n", username)
				return nil
			}
			if u, err = a.svc.SetUserActive(cmd.Context(), u.ID, active); err != nil {
				return err
			}
			if u == nil {
				cmd.Printf("%s not found!\n", username)
				return nil
			}
			state := "inactive"
			if u.Active {
				state = "active"
			}
			cmd.Printf("%s is now %s\n", username, state)
			return nil
		},
	}
}

func (a *App) testCmd() *cobra.Command {
	test := &cobra.Command{
		Use:   "test",
		Short: "Testing commands",
	}
	test.AddCommand(&cobra.Command{
		Use:       "user [all|unit|int]",
		Short:     "Run User tests",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all", "unit", "int"},
		RunE: func(cmd *cobra.Command, args []string) error {
			goArgs := []string{"./..."}
			switch arg(args, 0, "all") {
			case "unit":
				goArgs = append(goArgs, "-run", "UserUnit")
			case "int":
				goArgs = append(goArgs, "-run", "UserIntegration")
			}
			return a.goTest(cmd.Context(), goArgs, cmd.OutOrStdout())
		},
	})
	return test
}

// regularUser loads username and reports "<username> not found!" when it is not a regular user.
func (a *App) regularUser(cmd *cobra.Command, username string) (*tracker.RegularUserOps, error) {
	u, err := a.svc.UserByUsername(cmd.Context(), username)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsRegular() {
		cmd.Printf("%s not found!\n", username)
		return nil, nil
	}
	return a.svc.AsRegular(u)
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q", s)
	}
	return id, nil
}

func (a *App) toggleChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-chat [chat_id] [username]",
		Short: "Toggles the completion flag of a chat",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := parseChatID(arg(args, 0, "1"))
			if err != nil {
				return err
			}
			username := arg(args, 1, "bob")
			ops, err := a.regularUser(cmd, username)
			if err != nil || ops == nil {
				return err
			}
			chat, err := ops.ToggleChat(cmd.Context(), chatID)
			if err != nil {
				return err
			}
			if chat == nil {
				cmd.Printf("%s has no chat id %d\n", username, chatID)
				return nil
			}
			cmd.Printf("%s is %s!\n", chat.Text, chat.StateLabel())
			return nil
		},
	}
}

func (a *App) addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-category [username] [chat_id] [category]",
		Short: "Adds a category to a Chat",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := arg(args, 0, "bob")
			chatID, err := parseChatID(arg(args, 1, "6"))
			if err != nil {
				return err
			}
			ops, err := a.regularUser(cmd, username)
			if err != nil || ops == nil {
				return err
			}
			cat, added, err := ops.AddChatCategory(cmd.Context(), chatID, arg(args, 2, "groupChat"))
			if err != nil {
				return err
			}
			switch {
			case cat == nil:
				cmd.Printf("%s has no chat id %d\n", username, chatID)
			case added:
				cmd.Println("Category added!")
			default:
				cmd.Println("Category already added!")
			}
			return nil
		},
	}
}

func (a *App) listChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-chats",
		Short: "Lists every chat with its owner and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chats, err := a.svc.AllChats(cmd.Context())
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Text", "Active", "User", "Categories"})
			table.SetAutoFormatHeaders(false)
			for i := range chats {
				c := &chats[i]
				table.Append([]string{c.Text, strconv.FormatBool(c.Done), c.Owner, c.CategoryList()})
			}
			table.Render()
			return nil
		},
	}
}
