package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentryscreen/sentryscreen/internal/catalog"
	"github.com/sentryscreen/sentryscreen/internal/catalogstate"
	"github.com/sentryscreen/sentryscreen/internal/config"
	"github.com/sentryscreen/sentryscreen/internal/ui"
)

// statusOutput is the JSON output shape of the status command.
type statusOutput struct {
	Manifest string              `json:"manifest"`
	DataDir  string              `json:"data_dir"`
	Datasets []statusDatasetLine `json:"datasets"`
}

type statusDatasetLine struct {
	Name     string `json:"name"`
	Declared string `json:"declared_version"`
	Synced   string `json:"synced_version,omitempty"`
	Index    string `json:"index,omitempty"`
	Current  bool   `json:"current"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dataset sync status",
		Long: `Compare every catalog dataset's declared version against the version
last synced into the local index, using the persisted state database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(ctx context.Context, jsonOutput bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cat, err := catalog.New(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	statePath := ":memory:"
	if cfg.DataDir != "" {
		statePath = filepath.Join(cfg.DataDir, "state.db")
	}
	state, err := catalogstate.Open(statePath)
	if err != nil {
		return err
	}
	defer state.Close()

	synced := map[string]catalogstate.DatasetState{}
	if states, err := state.All(ctx); err == nil {
		for _, st := range states {
			synced[st.Dataset] = st
		}
	}

	out := statusOutput{Manifest: cfg.Manifest, DataDir: cfg.DataDir}
	for _, ds := range cat.All() {
		line := statusDatasetLine{Name: ds.Name, Declared: ds.Version()}
		if st, ok := synced[ds.Name]; ok {
			line.Synced = st.Version
			line.Index = st.IndexName
			line.Current = st.Version >= ds.Version()
		}
		out.Datasets = append(out.Datasets, line)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	styles := ui.NewStyles()
	var b strings.Builder
	b.WriteString(styles.Header.Render("sentryscreen datasets") + "\n")
	b.WriteString(styles.Dim.Render("manifest: "+cfg.Manifest) + "\n\n")
	for _, line := range out.Datasets {
		marker := styles.Warning.Render("stale ")
		if line.Current {
			marker = styles.Success.Render("synced")
		} else if line.Synced == "" {
			marker = styles.Dim.Render("never ")
		}
		b.WriteString(fmt.Sprintf("%s  %-24s declared=%s", marker, line.Name, line.Declared))
		if line.Synced != "" {
			b.WriteString(styles.Dim.Render("  synced=" + line.Synced))
		}
		b.WriteString("\n")
	}
	fmt.Println(styles.Panel.Render(strings.TrimRight(b.String(), "\n")))
	return nil
}
