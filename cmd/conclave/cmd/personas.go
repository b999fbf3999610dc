package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/persona"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the personas available in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return listPersonas(cfg)
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}

func listPersonas(cfg *config.Config) error {
	personas, err := persona.LoadFile(cfg.Personas.File)
	if err != nil {
		fmt.Println(mutedStyle.Render(fmt.Sprintf(
			"No catalog at %s; sessions will generate or synthesize personas.", cfg.Personas.File)))
		return nil
	}

	fmt.Println(phaseStyle.Render(fmt.Sprintf("%d persona(s) in %s", len(personas), cfg.Personas.File)))
	for _, p := range personas {
		line := "  " + p.Name
		if p.Description != "" {
			line += " - " + p.Description
		}
		fmt.Println(line)
		if len(p.Expertise) > 0 {
			fmt.Println(mutedStyle.Render("    expertise: " + strings.Join(p.Expertise, ", ")))
		}
	}
	return nil
}
