package main

import (
	"os"

	"github.com/Zhima-Mochi/minishop-storefront/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
