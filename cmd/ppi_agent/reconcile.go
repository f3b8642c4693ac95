package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/ppi-assistant/internal/config"
	"github.com/jonathan/ppi-assistant/internal/observability"
	"github.com/jonathan/ppi-assistant/internal/reconcile"
	"github.com/jonathan/ppi-assistant/internal/types"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge an extracted profile into a student profile offline",
	Long: `Merge the extracted profile in --extracted into the student profile in
--current and print the resulting patch, or the merged profile with --apply.
No network or database access is needed.`,
	RunE: runReconcile,
}

var (
	reconcileCurrent   string
	reconcileExtracted string
	reconcileOutput    string
	reconcileApply     bool
	reconcilePolicy    string
)

func init() {
	reconcileCmd.Flags().StringVar(&reconcileCurrent, "current", "", "Path to the current student profile JSON (required)")
	reconcileCmd.Flags().StringVar(&reconcileExtracted, "extracted", "", "Path to the extracted profile JSON (required)")
	reconcileCmd.Flags().StringVarP(&reconcileOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	reconcileCmd.Flags().BoolVar(&reconcileApply, "apply", false, "Print the merged profile instead of the patch")
	reconcileCmd.Flags().StringVar(&reconcilePolicy, "policy", "", "Administrative field policy: overwrite or fill-empty (default from config)")

	_ = reconcileCmd.MarkFlagRequired("current")
	_ = reconcileCmd.MarkFlagRequired("extracted")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(_ *cobra.Command, _ []string) error {
	policyName := reconcilePolicy
	if policyName == "" {
		cfg, err := config.Resolve(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		policyName = cfg.AdminFieldPolicy
	}
	policy, err := reconcile.ParseAdminPolicy(policyName)
	if err != nil {
		return err
	}

	output, patch, err := reconcileFiles(reconcileCurrent, reconcileExtracted, policy, reconcileApply)
	if err != nil {
		return err
	}

	if verbose {
		observability.NewPrinter(os.Stderr).PrintPatch("", patch)
	}
	return writeJSON(reconcileOutput, output)
}

// reconcileFiles merges the two JSON files. It returns the patch document,
// or the merged profile when apply is set, along with the patch itself.
func reconcileFiles(currentPath, extractedPath string, policy reconcile.AdminPolicy, apply bool) (any, *types.ProfilePatch, error) {
	var current types.StudentProfile
	if err := readJSONFile(currentPath, &current); err != nil {
		return nil, nil, err
	}
	var extracted types.ExtractedProfile
	if err := readJSONFile(extractedPath, &extracted); err != nil {
		return nil, nil, err
	}

	patch := reconcile.Engine{Policy: policy}.Reconcile(current, extracted)
	if apply {
		merged := reconcile.Apply(current, patch)
		return merged, &patch, nil
	}
	return patch.Document(), &patch, nil
}
