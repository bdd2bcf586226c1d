package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Server-side edge of the WooCommerce storefront",
	Long: `storefront serves the storefront's API routes (logout, Stripe payment
intents) and crawler documents (robots.txt, sitemaps). Configuration is read
from the environment; see internal/config.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}
