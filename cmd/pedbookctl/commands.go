package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"pedbook/internal/auth"
	"pedbook/internal/cache"
	"pedbook/internal/config"
	"pedbook/internal/db"
	"pedbook/internal/model"
	"pedbook/internal/repository"
	"pedbook/internal/seed"
	"pedbook/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pedbookctl",
		Short:        "Administrative tasks for a PedBook database",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newCreateUserCmd())
	return root
}

// openDB connects using the same environment as the server and migrates the schema.
func openDB(reset bool) (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if reset {
		db.Reset(gormDB)
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func newMigrateCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := openDB(reset); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database migrations completed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop all tables first")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file-or-url>",
		Short: "Import authors and books from a JSON catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := openDB(false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			catalog, err := seed.Fetch(ctx, args[0])
			if err != nil {
				return err
			}
			importer := seed.NewImporter(repository.NewAuthorRepository(gormDB), repository.NewBookRepository(gormDB))
			res, err := importer.Import(ctx, catalog)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var input service.RegisterInput
	var role string
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user, prompting for the password when --password is omitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := openDB(false)
			if err != nil {
				return err
			}
			input.Username = args[0]
			input.Role = model.Role(role)
			if input.Password == "" {
				if input.Password, err = promptPassword(cmd); err != nil {
					return err
				}
			}
			if len(input.Password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}
			return createUser(cmd.Context(), cmd, cfg, gormDB, input)
		},
	}
	cmd.Flags().StringVar(&input.Password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&input.DisplayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(model.RoleReader), "reader or librarian")
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func createUser(ctx context.Context, cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB, input service.RegisterInput) error {
	authService := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret),
		auth.NewTokenStore(cache.New("", "", 0)),
		nil,
	)
	user, err := authService.Register(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}
