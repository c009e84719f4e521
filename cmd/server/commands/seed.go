package commands

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ecoloop/internal/apperr"
	"ecoloop/internal/services"
)

var (
	// Seed flags
	adminName     string
	adminEmail    string
	adminPassword string
)

// seedCmd fills the material catalog and optionally creates an admin
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the material catalog and an admin account",
	Long: `Create one catalog entry per known material type and, when --admin-email
is given, an admin account. Existing records are left alone.

Examples:
  ecoloop seed
  ecoloop seed --admin-email ops@example.com --admin-password '...'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer st.Close()

		deps := services.Deps{Store: st}
		created, err := services.New(deps, 0).Catalog.Seed(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("created", created).Msg("Material catalog ready")

		if adminEmail == "" {
			return nil
		}
		u, err := services.NewAuth(deps, cfg.JWTSecret, cfg.TokenTTL).RegisterAdmin(ctx, adminName, adminEmail, adminPassword)
		if errors.Is(err, apperr.ErrConflict) {
			log.Info().Str("email", adminEmail).Msg("Admin already exists")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().Str("user_id", u.UserID).Str("email", u.Email).Msg("Admin created")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminName, "admin-name", "Admin", "Display name of the admin account")
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "", "Create an admin with this email")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password of the admin account")
	rootCmd.AddCommand(seedCmd)
}
