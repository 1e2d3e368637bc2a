package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxemarket/storefront-backend/pkg/storeapi"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				email, _ = a.in.ask("Email")
			}
			if password == "" {
				password, _ = a.in.ask("Password")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("email and password are required")
			}

			resp, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			s := session{Email: email, AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
			if resp.User != nil {
				s.Email = resp.User.Email
			}
			if err := a.saveSession(cmd.Context(), s); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", s.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the server session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd.Context())
			if errors.Is(err, storeapi.ErrNotLoggedIn) {
				fmt.Fprintln(a.out, "Not signed in.")
				return nil
			}
			if err != nil {
				return err
			}
			// an already expired token still gets forgotten locally
			if err := a.api.Logout(cmd.Context(), s.AccessToken); err != nil && !storeapi.IsUnauthorized(err) {
				return err
			}
			if err := a.clearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}
