package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/users"
	"github.com/mrlokans/librarium/internal/entities"
)

// CreateAdminCommand creates an administrator account for local auth mode.
type CreateAdminCommand struct {
	Username     string
	Email        string
	Password     string
	DatabasePath string
	IssueToken   bool
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the admin account (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email for the admin account (optional)")
	fs.StringVar(&cmd.Password, "password", "", "Password, minimum 12 characters (required, or set ADMIN_PASSWORD)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.BoolVar(&cmd.IssueToken, "with-token", false, "Also issue an API token and print it")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -username <name> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account for AUTH_MODE=local deployments.\n\n")
		fmt.Fprintf(os.Stderr, "The password may also be supplied via the ADMIN_PASSWORD environment\n")
		fmt.Fprintf(os.Stderr, "variable to keep it out of shell history.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		cmd.Password = os.Getenv("ADMIN_PASSWORD")
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("password not provided (use -password or ADMIN_PASSWORD)")
	}

	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	cfg := config.NewConfig()
	service := auth.NewService(users.NewRepository(db.DB), cfg.Auth)

	user, err := service.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	fmt.Printf("Created admin user %q (id %d)\n", user.Username, user.ID)

	if cmd.IssueToken {
		token, err := service.IssueToken(user.ID)
		if err != nil {
			return fmt.Errorf("failed to issue API token: %w", err)
		}
		fmt.Println("\nAPI token (shown once, store it now):")
		fmt.Printf("  %s\n", token)
	}

	return nil
}
