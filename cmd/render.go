package cmd

import (
	"fmt"

	appFeed "github.com/Zhima-Mochi/minishop-storefront/internal/application/feed"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	domFeed "github.com/Zhima-Mochi/minishop-storefront/internal/domain/feed"
	"github.com/spf13/cobra"
)

var renderDomain string

var renderCmd = &cobra.Command{
	Use:   "render <robots|sitemap|sitemap-main|sitemap-blog>",
	Short: "Print a crawler document to stdout",
	Long:  `Renders robots.txt or one of the sitemaps exactly as the server would, for static export.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domFeed.ParseKind(args[0])
		if err != nil {
			return err
		}

		domain := renderDomain
		if domain == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			domain = cfg.PublicDomain
		}

		doc, err := appFeed.NewService(config.NormalizeDomain(domain), nil).Render(cmd.Context(), kind)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(doc.Body)
		return err
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderDomain, "domain", "", "public domain (defaults to PUBLIC_DOMAIN)")
	rootCmd.AddCommand(renderCmd)
}
