package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	Translators []TranslatorSummary `json:"translators,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Errors      []string            `json:"errors,omitempty"`
}

// TranslatorSummary describes one binding of a valid manifest.
type TranslatorSummary struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Types []string `json:"types"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <bindings>",
		Short: "Validate a translator binding manifest",
		Long: `Validate a CUE binding manifest (a .cue file or a directory holding a
CUE package) without running anything.

Reports schema errors with their source positions and warns when two
translators claim the same type; the later name wins.

Example:
  scenesync validate ./bindings.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Loading bindings from %s", path)
	bindings, errs := config.LoadBindings(path)
	if len(errs) > 0 {
		var loadErr *config.LoadError
		if len(errs) == 1 && errors.As(errs[0], &loadErr) && loadErr.Code == config.ErrCodeNotFound {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		return outputValidationErrors(formatter, errs)
	}

	result := ValidationResult{Valid: true, Warnings: errorStrings(bindings.Warnings)}
	for _, b := range bindings.Translators {
		formatter.VerboseLog("Validated translator: %s", b.Name)
		result.Translators = append(result.Translators, TranslatorSummary{Name: b.Name, Kind: b.Kind, Types: b.Types})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Bindings valid: %d translator(s)\n", len(result.Translators))
	for _, t := range result.Translators {
		fmt.Fprintf(w, "  %s (%s): %s\n", t.Name, t.Kind, strings.Join(t.Types, ", "))
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errorStrings(errs)},
			Error: &CLIError{
				Code:    errorCode(errs[0]),
				Message: errs[0].Error(),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// errorCode returns the config error code carried by err, or E001.
func errorCode(err error) string {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return "E001"
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
