package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/app"
	"github.com/folio-space/core/internal/database"
	"github.com/folio-space/core/internal/modules/auth"
	jwtpkg "github.com/folio-space/core/internal/pkg/jwt"
	"github.com/folio-space/core/internal/pkg/session"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg, true)
		if err != nil {
			return err
		}
		defer database.Close(db)
		logger.Info("schema migrated")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the administrator account",
	Long: `Create the administrator account. Missing flags fall back to the admin
section of the config file (or ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dto := auth.SignUpDTO{
			Email:    firstNonEmpty(adminEmail, cfg.Admin.Email),
			Password: firstNonEmpty(adminPassword, cfg.Admin.Password),
			Name:     firstNonEmpty(adminName, cfg.Admin.Name),
		}
		if dto.Email == "" || dto.Password == "" {
			return fmt.Errorf("email and password are required (--email, --password)")
		}

		db, err := database.Connect(cfg, true)
		if err != nil {
			return err
		}
		defer database.Close(db)

		sessions := session.NewStore(db, jwtpkg.NewManager(cfg.JWTSecret))
		svc := auth.NewService(auth.NewUsers(db), sessions, app.SessionTTL, logger)
		user, err := svc.CreateAdmin(cmd.Context(), dto)
		if err != nil {
			return err
		}
		logger.Info("admin created", zap.String("id", user.ID), zap.String("email", user.Email))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo services and projects into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Seed(cmd.Context(), cfg, logger)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify database, Redis and storage connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := app.Check(cmd.Context(), cfg)
		for _, r := range results {
			status := "ok"
			if !r.OK {
				status = "FAIL " + r.Error
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %4dms  %s\n", r.Name, r.Latency, status)
		}
		return err
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin e-mail")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
