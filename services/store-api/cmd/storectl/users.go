package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/shared/pkg/models"
)

func newCreateAdminCmd(a *app) *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Register a user and grant the admin role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users := &repo.UsersPG{DB: a.pool}
			accounts := &service.AuthService{Users: users, Log: a.log}

			u, err := accounts.CreateUser(cmd.Context(), in)
			if errors.Is(err, service.ErrEmailTaken) {
				return fmt.Errorf("%s is already registered, use promote instead", service.NormalizeEmail(in.Email))
			}
			if err != nil {
				return err
			}
			if err := users.SetRole(cmd.Context(), u.Email, models.RoleAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password (min 8 characters)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "Store", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newPromoteCmd(a *app) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Change the role of an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			err := (&repo.UsersPG{DB: a.pool}).SetRole(cmd.Context(), service.NormalizeEmail(email), r)
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("no user with email %s", email)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "role to grant (admin or client)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
