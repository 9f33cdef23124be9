package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ruralsite/internal/auth"
	"ruralsite/internal/config"
	"ruralsite/internal/db"
	"ruralsite/internal/events"
	"ruralsite/internal/models"
	"ruralsite/internal/services"
	"ruralsite/internal/storage"
	"ruralsite/internal/utils/logger"
)

var console = logger.New("helper")

var rootCmd = &cobra.Command{
	Use:   "helper",
	Short: "helper runs one-off maintenance tasks for the site admin",
	Long: "helper manages admin principals and asset housekeeping outside the HTTP API. " +
		"It reads the same environment as the server.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

var (
	envFile string
	cfg     *config.Config
)

func loadConfig() error {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	return nil
}

func openDB(ctx context.Context) (*gorm.DB, error) {
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, err
	}
	return conn, nil
}

// readSecret falls back to a stdin prompt when the flag was left empty.
func readSecret(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("empty input")
	}
	return line, nil
}

func newCreateAdminCmd() *cobra.Command {
	var name, email, password, role string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Register a new admin or editor principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			conn, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close(conn)

			principal, err := models.CreatePrincipal(conn, auth.Hasher(cfg.Session.BcryptCost), name, email, secret, models.Role(role))
			if err != nil {
				return err
			}
			console.Success("Created %s %s (%s)", principal.Role, principal.Email, principal.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password, prompted for when empty")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin or editor")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newDeactivateAdminCmd() *cobra.Command {
	var email string
	var activate bool
	cmd := &cobra.Command{
		Use:   "deactivate-admin",
		Short: "Stop a principal from signing in, or re-enable it with --activate",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close(conn)

			if err := models.SetPrincipalActive(conn, email, activate); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("no principal with email %s", email)
				}
				return err
			}
			state := "deactivated"
			if activate {
				state = "activated"
			}
			console.Success("Principal %s %s", models.NormalizeEmail(email), state)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().BoolVar(&activate, "activate", false, "re-enable instead of disabling")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash of a password at the configured cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(secret, cfg.Session.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password, prompted for when empty")
	return cmd
}

func newBackfillCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "backfill-asset-handles",
		Short: "Derive missing asset handles from stored URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close(conn)

			baseURL := storage.PublicBaseURL(cfg.Storage.S3)
			reports, err := services.BackfillHandles(cmd.Context(), conn, baseURL, dryRun)
			for _, r := range reports {
				console.Info("%s: %d missing, %d filled, %d foreign", r.Table, r.Missing, r.Filled, len(r.Foreign))
				for _, id := range r.Foreign {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Table, id)
				}
			}
			if err != nil {
				return err
			}
			if dryRun {
				console.Warn("Dry run, nothing written")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without writing")
	return cmd
}

func newRetryStrandedCmd() *cobra.Command {
	var maxAttempts int
	var list bool
	cmd := &cobra.Command{
		Use:   "retry-stranded-assets",
		Short: "Retry deleting assets whose earlier delete failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close(conn)

			store, err := storage.NewS3Store(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			bus := events.NewEventBus()
			defer bus.Wait()
			cleanup := services.NewAssetCleanup(conn, store, bus)

			if list {
				pending, err := cleanup.Pending(ctx)
				if err != nil {
					return err
				}
				for _, a := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n", a.Handle, a.Resource, a.Attempts, a.LastError)
				}
				return nil
			}

			if !cmd.Flags().Changed("max-attempts") {
				maxAttempts = cfg.Worker.MaxRetryPasses
			}
			cleared, remaining, err := cleanup.Sweep(ctx, maxAttempts)
			if err != nil {
				return err
			}
			console.Info("Cleared %d stranded assets, %d remaining", cleared, remaining)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "skip assets already tried this often, 0 for no limit")
	cmd.Flags().BoolVar(&list, "list", false, "only list pending assets")
	return cmd
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file loaded before the process environment")
	rootCmd.AddCommand(
		newCreateAdminCmd(),
		newDeactivateAdminCmd(),
		newHashPasswordCmd(),
		newBackfillCmd(),
		newRetryStrandedCmd(),
	)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = console.Error("Command failed", err)
		os.Exit(1)
	}
}
