package commands

import (
	"fmt"
	"time"

	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/tokens"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		ed  page.Editor
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an editor token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if ed.Nickname == "" {
				ed.Nickname = ed.Sub
			}
			tok, err := tokens.GenerateEditorToken(cfg.JWT.Secret, &ed, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&ed.Sub, "sub", "", "editor subject (required)")
	cmd.Flags().StringVar(&ed.Nickname, "name", "", "editor nickname (defaults to --sub)")
	cmd.Flags().StringVar(&ed.Email, "email", "", "editor email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
