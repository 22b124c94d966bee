package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/feed"
	"github.com/spf13/cobra"
)

type feedOptions struct {
	User       string
	Role       string
	Search     string
	Tags       []string
	Moderation bool
	Approve    string
	Reject     string
}

var feedOpts feedOptions

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print the feed as a given user sees it, optionally moderating a post first",
	Example: `  blogd feed --storage sqlite --tag sleep --search rest
  blogd feed --storage postgres --user mod-1 --role moderator --moderation --approve <post-id>`,
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
		if err := a.seedOnStart(ctx); err != nil {
			return err
		}

		svc := blog.New(a.store, a.log, blog.WithProfiles(a.profiles))
		v := domain.Viewer{UserID: feedOpts.User, Role: domain.ParseRole(feedOpts.Role)}
		return runFeed(ctx, cmd.OutOrStdout(), feed.NewSession(svc, v, a.log), feedOpts)
	},
}

// runFeed загружает ленту в сессию, применяет модерацию и фильтры и печатает результат.
func runFeed(ctx context.Context, w io.Writer, s *feed.Session, o feedOptions) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if o.Moderation {
		if err := s.SetModerationView(true); err != nil {
			return err
		}
	}
	if o.Approve != "" {
		if err := s.Moderate(ctx, o.Approve, domain.ActionApprove); err != nil {
			return fmt.Errorf("approve %s: %w", o.Approve, err)
		}
	}
	if o.Reject != "" {
		if err := s.Moderate(ctx, o.Reject, domain.ActionReject); err != nil {
			return fmt.Errorf("reject %s: %w", o.Reject, err)
		}
	}
	s.SetSearchTerm(o.Search)
	for _, tag := range o.Tags {
		s.ToggleTag(tag)
	}

	posts := s.Visible()
	fmt.Fprintf(w, "%d posts | tags: %s\n", len(posts), strings.Join(s.Tags(), ", "))
	for _, p := range posts {
		fmt.Fprintf(w, "%s  %-8s  %q by %s  likes=%d comments=%d\n",
			p.ID, p.Status, p.Title, p.Author.DisplayName, p.LikeCount, p.CommentCount)
	}
	return nil
}

func init() {
	feedCmd.Flags().StringVar(&feedOpts.User, "user", "", "Viewer user ID (empty = anonymous)")
	feedCmd.Flags().StringVar(&feedOpts.Role, "role", string(domain.RoleUser), "Viewer role: user or moderator")
	feedCmd.Flags().StringVar(&feedOpts.Search, "search", "", "Case-insensitive text search in title and content")
	feedCmd.Flags().StringSliceVar(&feedOpts.Tags, "tag", nil, "Only posts having all of these tags (repeatable)")
	feedCmd.Flags().BoolVar(&feedOpts.Moderation, "moderation", false, "Moderation view: pending posts only (moderators)")
	feedCmd.Flags().StringVar(&feedOpts.Approve, "approve", "", "Approve this post ID before printing")
	feedCmd.Flags().StringVar(&feedOpts.Reject, "reject", "", "Reject this post ID before printing")
}
