package main

import (
	"strings"

	"github.com/spf13/cobra"

	"research-review-api/config"
	"research-review-api/models"
	"research-review-api/services"
	"research-review-api/utils"
)

func init() {
	CreateUserCommand.Flags().String("email", "", "login email (required)")
	CreateUserCommand.Flags().String("password", "", "initial password, at least 8 characters (required)")
	CreateUserCommand.Flags().String("role", string(models.RoleStudent), "student, faculty, staff or admin")
	CreateUserCommand.Flags().String("first", "", "first name")
	CreateUserCommand.Flags().String("last", "", "last name")
	_ = CreateUserCommand.MarkFlagRequired("email")
	_ = CreateUserCommand.MarkFlagRequired("password")

	RootCmd.AddCommand(&CreateUserCommand)
	RootCmd.AddCommand(&HashPasswordsCommand)
}

var CreateUserCommand = cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		email, _ := flags.GetString("email")
		password, _ := flags.GetString("password")
		role, _ := flags.GetString("role")
		first, _ := flags.GetString("first")
		last, _ := flags.GetString("last")

		db, err := config.InitDB(cfg)
		if err != nil {
			return err
		}

		user, err := services.RegisterUser(cmd.Context(), services.NewGormPaperStore(db), services.NewAccount{
			Email:     email,
			Password:  password,
			Role:      models.Role(strings.ToLower(strings.TrimSpace(role))),
			FirstName: first,
			LastName:  last,
		})
		if err != nil {
			return err
		}

		logger.Info().Int("user_id", user.UserID).Str("email", user.Email).
			Str("role", string(user.Role)).Msg("user created")
		return nil
	},
}

// HashPasswordsCommand re-hashes rows whose password is still stored in plaintext.
var HashPasswordsCommand = cobra.Command{
	Use:   "hash-passwords",
	Short: "Hash plaintext passwords with bcrypt",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := config.InitDB(cfg)
		if err != nil {
			return err
		}

		var users []models.User
		if err := db.WithContext(cmd.Context()).Find(&users).Error; err != nil {
			return err
		}

		updated := 0
		for _, user := range users {
			// Skip if already hashed (bcrypt hashes start with $2)
			if strings.HasPrefix(user.Password, "$2") {
				logger.Debug().Str("email", user.Email).Msg("password already hashed, skipping")
				continue
			}

			hashedPassword, err := utils.HashPassword(user.Password)
			if err != nil {
				logger.Warn().Err(err).Str("email", user.Email).Msg("failed to hash password")
				continue
			}

			if err := db.WithContext(cmd.Context()).Model(&user).Update("password", hashedPassword).Error; err != nil {
				logger.Warn().Err(err).Str("email", user.Email).Msg("failed to update password")
				continue
			}
			updated++
		}

		logger.Info().Int("updated", updated).Int("total", len(users)).Msg("password migration completed")
		return nil
	},
}
