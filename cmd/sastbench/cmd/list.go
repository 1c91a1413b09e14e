package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codesectools/sastbench/internal/infra/tools"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage datasets",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known datasets and their cache status",
	RunE:  runDatasetsList,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Manage tool adapters",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tool adapters and their availability",
	RunE:  runToolsList,
}

func init() {
	datasetsCmd.AddCommand(datasetsListCmd)
	toolsCmd.AddCommand(toolsListCmd)
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	if err := validateOutputFlag(); err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	type row struct {
		Name      string   `json:"name" yaml:"name"`
		Kind      string   `json:"kind" yaml:"kind"`
		Languages []string `json:"languages" yaml:"languages"`
		License   string   `json:"license" yaml:"license"`
		Cached    bool     `json:"cached" yaml:"cached"`
	}
	var rows []row
	for _, name := range a.datasets.Names() {
		loader, _ := a.datasets.Get(name)
		desc := loader.Descriptor()
		rows = append(rows, row{
			Name:      desc.Name,
			Kind:      string(desc.Kind),
			Languages: desc.Languages,
			License:   desc.License,
			Cached:    loader.IsAvailable(),
		})
	}

	switch flagOutput {
	case outputJSON:
		return printJSON(rows)
	case outputYAML:
		return printYAML(rows)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tLANGUAGES\tLICENSE\tCACHED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
			r.Name, r.Kind, strings.Join(r.Languages, ","), r.License, r.Cached)
	}
	return tw.Flush()
}

func runToolsList(cmd *cobra.Command, args []string) error {
	if err := validateOutputFlag(); err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	type row struct {
		Name      string   `json:"name" yaml:"name"`
		Languages []string `json:"languages" yaml:"languages"`
		Available bool     `json:"available" yaml:"available"`
	}
	var rows []row
	for _, name := range a.tools.Names() {
		adapter, _ := a.tools.Get(name)
		rows = append(rows, row{
			Name:      name,
			Languages: adapter.SupportedLanguages(),
			Available: tools.CheckRequirements(adapter.Requirements()) == nil,
		})
	}

	switch flagOutput {
	case outputJSON:
		return printJSON(rows)
	case outputYAML:
		return printYAML(rows)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANGUAGES\tAVAILABLE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", r.Name, strings.Join(r.Languages, ","), r.Available)
	}
	return tw.Flush()
}
