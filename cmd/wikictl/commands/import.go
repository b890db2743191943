package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/internal/page/service"
	"github.com/gowiki/gowiki/internal/wiring"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/spf13/cobra"
)

const importComment = "imported"

func importCmd() *cobra.Command {
	var sub, nick string
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Save every <WikiName>.html file in dir as a new page revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := wiring.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if store.Backend == "memory" {
				return fmt.Errorf("import needs MONGODB_URI; the memory store would discard the pages")
			}

			var ed *page.Editor
			if sub != "" {
				ed = &page.Editor{Sub: sub, Nickname: nick}
				if ed.Nickname == "" {
					ed.Nickname = sub
				}
			}
			svc := service.New(store.Pages, service.Options{HistoryLimit: cfg.Wiki.HistoryLimit})
			n, err := importDir(ctx, svc, args[0], ed, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d page(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "editor subject to attribute the revisions to (anonymous when empty)")
	cmd.Flags().StringVar(&nick, "nickname", "", "editor nickname (defaults to --sub)")
	return cmd
}

// importDir saves each *.html file whose base name is a wiki name. Other
// files are reported and skipped.
func importDir(ctx context.Context, svc service.Service, dir string, ed *page.Editor, out io.Writer) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".html" {
			continue
		}
		name := page.CleanName(strings.TrimSuffix(e.Name(), ".html"))
		if !page.ValidName(name) || page.IsReserved(name) {
			fmt.Fprintf(out, "skip %s: not a wiki name\n", e.Name())
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, err
		}
		rev, err := svc.Save(ctx, service.SaveRequest{
			Name:    name,
			Content: string(content),
			Comment: importComment,
			Editor:  ed,
		})
		if err != nil {
			return n, fmt.Errorf("import %s: %w", e.Name(), err)
		}
		logger.Debugf("imported %s as version %d", name, rev.Version)
		fmt.Fprintf(out, "%s -> version %d\n", name, rev.Version)
		n++
	}
	return n, nil
}
