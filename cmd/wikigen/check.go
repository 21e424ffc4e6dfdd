package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"wikigen/app/internal/config"
)

func runCheck(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	failed := false

	if err := config.CheckConfigFile(cfg.ConfigFile); err != nil {
		fmt.Fprintf(out, "settings file %s: %v\n", cfg.ConfigFile, err)
		failed = true
	} else {
		fmt.Fprintf(out, "settings file %s: ok\n", cfg.ConfigFile)
	}

	if err := cfg.CheckEnvironment(); err != nil {
		fmt.Fprintf(out, "environment: %v\n", err)
		failed = true
	} else {
		fmt.Fprintf(out, "environment: ok (backend=%s, provider=%s)\n", cfg.WikiBackend, cfg.LLMProvider)
	}

	if failed {
		return eris.Wrap(config.ErrConfig, "configuration check failed")
	}
	return nil
}
