// ABOUTME: Admin CLI for the handoff gateway's user directory
// ABOUTME: Manages allowed users and prunes replay nonces directly in the database

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/handoff-gateway/internal/config"
	"github.com/2389/handoff-gateway/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "user":
		err = cmdUser(args)
	case "nonce":
		err = cmdNonce(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: handoff-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  user list                       List all users in the directory")
	fmt.Println("  user add --email <email>        Add or update a user")
	fmt.Println("  user suspend <email>            Suspend a user")
	fmt.Println("  user activate <email>           Reactivate a suspended user")
	fmt.Println("  user remove <email>             Remove a user from the directory")
	fmt.Println("  nonce prune [--older-than 24h]  Delete replay nonces older than the window")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  HANDOFF_DB        Database path (overrides the config file)")
	fmt.Println("  HANDOFF_CONFIG    Config file path (default: ./config.yaml)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  handoff-admin user add --email dev@example.com --external-id u_123 --roles developer,admin")
	fmt.Println("  handoff-admin user suspend dev@example.com")
	fmt.Println("  handoff-admin nonce prune --older-than 72h")
	fmt.Println()
}

// openStore resolves the database path and opens it. HANDOFF_DB wins;
// otherwise the gateway config file is consulted so both binaries agree
// on the same database.
func openStore() (*store.SQLiteStore, error) {
	dbPath := os.Getenv("HANDOFF_DB")
	if dbPath == "" {
		configPath := os.Getenv("HANDOFF_CONFIG")
		if configPath == "" {
			configPath = "./config.yaml"
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config %s (set HANDOFF_DB to skip): %w", configPath, err)
		}
		dbPath = cfg.Database.Path
	}

	return store.NewSQLiteStore(dbPath)
}

func cmdUser(args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	sub := args[0]
	args = args[1:]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch sub {
	case "list":
		return userList(ctx, st)
	case "add":
		return userAdd(ctx, st, args)
	case "suspend":
		return userSetStatus(ctx, st, args, store.UserStatusSuspended)
	case "activate":
		return userSetStatus(ctx, st, args, store.UserStatusActive)
	case "remove":
		return userRemove(ctx, st, args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

func userList(ctx context.Context, st *store.SQLiteStore) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("No users in the directory.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tEXTERNAL ID\tSTATUS\tROLES\tUPDATED")
	for _, u := range users {
		status := string(u.Status)
		if u.Suspended() {
			status = color.RedString(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			u.Email,
			u.ExternalID,
			status,
			strings.Join(u.Roles, ","),
			u.UpdatedAt.Format(time.RFC3339),
		)
	}
	return w.Flush()
}

func userAdd(ctx context.Context, st *store.SQLiteStore, args []string) error {
	fs := flag.NewFlagSet("user add", flag.ExitOnError)
	email := fs.String("email", "", "user email (required)")
	externalID := fs.String("external-id", "", "stable external user id")
	roles := fs.String("roles", "", "comma-separated roles")
	suspended := fs.Bool("suspended", false, "create the user in the suspended state")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	status := store.UserStatusActive
	if *suspended {
		status = store.UserStatusSuspended
	}

	err := st.UpsertUser(ctx, &store.User{
		Email:      *email,
		ExternalID: *externalID,
		Status:     status,
		Roles:      store.SplitRoles(*roles),
	})
	if err != nil {
		return err
	}

	color.Green("User %s saved (%s)\n", *email, status)
	return nil
}

func userSetStatus(ctx context.Context, st *store.SQLiteStore, args []string, status store.UserStatus) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one email argument")
	}

	if err := st.SetUserStatus(ctx, args[0], status); err != nil {
		return err
	}

	color.Green("User %s is now %s\n", args[0], status)
	return nil
}

func userRemove(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one email argument")
	}

	if err := st.DeleteUser(ctx, args[0]); err != nil {
		return err
	}

	color.Green("User %s removed\n", args[0])
	return nil
}

func cmdNonce(args []string) error {
	if len(args) == 0 || args[0] != "prune" {
		return fmt.Errorf("expected: nonce prune [--older-than <duration>]")
	}

	fs := flag.NewFlagSet("nonce prune", flag.ExitOnError)
	olderThan := fs.Duration("older-than", 24*time.Hour, "delete nonces first seen longer ago than this")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := st.DeleteNoncesBefore(ctx, time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}

	color.Green("Pruned %d nonce(s)\n", n)
	return nil
}
