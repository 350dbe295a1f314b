package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oksasatya/auth2-service/config"
	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
	pginfra "github.com/oksasatya/auth2-service/internal/infrastructure/postgres"
	"github.com/oksasatya/auth2-service/pkg/helpers"
)

type seedOptions struct {
	email    string
	password string
	role     string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or promote an account",
		Long: "Creates a verified account with the given credentials, or changes the role of an " +
			"existing one. Admin and superadmin accounts can only be created this way.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "password for a new account")
	cmd.Flags().StringVar(&opts.role, "role", "admin", "basic, moderator, admin or superadmin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runSeed(ctx context.Context, opts *seedOptions) error {
	_ = godotenv.Load()

	role, err := entity.ParseRole(opts.role)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{DSN: cfg.PostgresDSN(), MaxConns: 2, MaxConnLife: cfg.DBMaxConnLife})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	u, err := users.GetByEmail(ctx, entity.NormalizeEmail(opts.email))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if len(opts.password) < 8 {
			return fmt.Errorf("--password of at least 8 characters is required for a new account")
		}
		hasher := helpers.NewArgon2idHasher(helpers.Argon2Params{
			Time:      cfg.Argon2Time,
			MemoryKiB: cfg.Argon2MemoryKiB,
			Threads:   cfg.Argon2Threads,
		}, 1)
		digest, err := hasher.Hash(ctx, opts.password)
		if err != nil {
			return err
		}
		u = &entity.User{Email: entity.NormalizeEmail(opts.email), PasswordHash: digest, Role: role, EmailVerified: true}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		fmt.Printf("created user id=%s email=%s role=%s\n", u.ID, u.Email, role)
		return nil
	case err != nil:
		return err
	}

	if err := users.UpdateRole(ctx, u.ID, role); err != nil {
		return err
	}
	if !u.EmailVerified {
		if err := users.SetEmailVerified(ctx, u.ID); err != nil {
			return err
		}
	}
	fmt.Printf("updated user id=%s email=%s role=%s\n", u.ID, u.Email, role)
	return nil
}
