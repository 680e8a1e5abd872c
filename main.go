package main

import (
	"fmt"
	"os"

	"github.com/bokwoon95/googlemaps/erro"
)

func main() {
	rootCmd := newRootCmd()
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, erro.Sdump(err))
		os.Exit(1)
	}
}
