package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/database"
)

var (
	tokenUser  string
	tokenEmail string
	tokenRole  string
	tokenTTL   time.Duration
)

// storefront token: issue a bearer token for local testing.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token",
	Long: "Issue a signed bearer token. Pass --user with a user id, or --email to\n" +
		"look the user up in the database. The role defaults to the user's role.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		userID, role := tokenUser, tokenRole
		if tokenEmail != "" {
			u, err := lookupUser(cmd.Context(), tokenEmail)
			if err != nil {
				return err
			}
			userID = u.ID.Hex()
			if role == "" {
				role = u.Role
			}
		}
		if _, err := primitive.ObjectIDFromHex(userID); err != nil {
			return fmt.Errorf("token: --user must be a 24-character hex id or use --email")
		}
		if role == "" {
			role = models.RoleUser
		}
		if role != models.RoleUser && role != models.RoleAdmin {
			return fmt.Errorf("token: unknown role %q", role)
		}

		tok, err := auth.GenerateToken(userID, role, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func lookupUser(ctx context.Context, email string) (*models.User, error) {
	closeDB, err := bootDB(ctx)
	defer closeDB()
	if err != nil {
		return nil, err
	}
	u, err := repositories.NewMongoStore(database.DB).Users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("token: no user with email %s", email)
	}
	return u, err
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id (hex ObjectID)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Look the user up by email")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "Role claim: user or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
