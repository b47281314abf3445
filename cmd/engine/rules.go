package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"treasury-engine/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the rule tables (noise, gazetteer, signals, scoring)",
}

var rulesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default rules.yml into the data dir unless one exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "create data dir %s", cfg.Data.Dir)
		}
		path, err := config.EnsureUserRules(cfg.Data.Dir)
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective rules and report errors and warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := config.LoadRules(rulesPath())
		if err != nil {
			return err
		}
		_, v := config.NormalizeAndValidate(r)
		for _, w := range v.Warnings {
			cmd.Println("warning:", w)
		}
		for _, e := range v.Errors {
			cmd.Println("error:", e)
		}
		if err := v.Err(); err != nil {
			return err
		}
		cmd.Println("ok:", rulesPath())
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesInitCmd, rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}
