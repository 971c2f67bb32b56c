package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nextstep/internal/config"
	"nextstep/internal/core/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage scraping sources",
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create or update sources from a YAML, TOML or JSON file",
	Long:  "Reads a document with a top-level \"sources\" list. Every entry is validated before anything is written; existing sources are matched by name and updated.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesImport,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources, newest first",
	RunE:  runSourcesList,
}

func init() {
	sourcesCmd.AddCommand(sourcesImportCmd, sourcesListCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func readImportFile(path string) (*source.ImportFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file source.ImportFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &file)
	case ".toml":
		err = toml.Unmarshal(content, &file)
	case ".json":
		err = json.Unmarshal(content, &file)
	default:
		return nil, fmt.Errorf("unsupported sources file extension %q (want .yaml, .toml or .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("%s defines no sources", path)
	}
	return &file, nil
}

func runSourcesImport(cmd *cobra.Command, args []string) error {
	file, err := readImportFile(args[0])
	if err != nil {
		return err
	}

	svc, err := buildServices(cmd.Context(), config.Load())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.sources.Import(cmd.Context(), file.Sources)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sources (%d created, %d updated)\n", res.Created+res.Updated, res.Created, res.Updated)
	return nil
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	svc, err := buildServices(cmd.Context(), config.Load())
	if err != nil {
		return err
	}
	defer svc.Close()

	list, err := svc.sources.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tENABLED\tLAST RUN")
	for _, s := range list {
		lastRun := "never"
		if s.LastRunAt != nil {
			lastRun = s.LastRunAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", s.ID, s.Name, s.ProviderType, s.Enabled, lastRun)
	}
	return w.Flush()
}
