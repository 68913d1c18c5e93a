package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"code.openwager.io/openwager/config"
)

var initHome string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := config.Write(initHome, config.NewDefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("configuration written under %s\n", initHome)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initHome, "home", ".", "directory to write the configuration to")
}
