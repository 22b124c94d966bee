package main

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/auth"
	"github.com/UkralStul/peacesync-blog/internal/config"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/seed"
	"github.com/spf13/cobra"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty blog with demo posts, likes and comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		if a.cfg.Storage.Driver == config.StorageInMemory {
			return fmt.Errorf("seeding in-memory storage has no effect; use --storage postgres or sqlite")
		}

		res, err := a.seeder(seedOpts).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d posts, %d likes, %d comments\n", res.Posts, res.Reactions, res.Comments)
		return nil
	},
}

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.RoleClaim)
		token, err := verifier.Issue(tokenUser, domain.ParseRole(tokenRole), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Posts, "posts", seedOpts.Posts, "Number of posts to create")
	seedCmd.Flags().IntVar(&seedOpts.MaxLikes, "max-likes", seedOpts.MaxLikes, "Maximum likes per post")
	seedCmd.Flags().IntVar(&seedOpts.MaxComments, "max-comments", seedOpts.MaxComments, "Maximum comments per post")
	seedCmd.Flags().Uint64Var(&seedOpts.Seed, "seed", 0, "Random seed (0 = random)")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "dev-user", "Subject (user ID)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleUser), "Role: user or moderator")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
