package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasirku/kasir/internal/auth"
	"github.com/kasirku/kasir/internal/config"
	"github.com/kasirku/kasir/internal/database"
)

var tokenUser string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for an existing user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		setupLogger(cfg.LogLevel)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := database.New(ctx, cfg.DatabaseURL, 1)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := auth.NewService(auth.NewRepository(db.Pool()), auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL), cfg.BcryptCost)
		res, err := svc.IssueFor(ctx, tokenUser)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", res.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "username to issue the token for")
	_ = tokenCmd.MarkFlagRequired("user")
}
