package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func validateOutputFlag() error {
	switch flagOutput {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (expected table, json, or yaml)", flagOutput)
	}
}
