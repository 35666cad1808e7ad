package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/okian/formfill/internal/domain/profile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the stored profile",
	Long:  `Import a résumé into the profile used for name, contact and link questions.`,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <resume.txt>",
	Short: "Parse a plain-text résumé and store it as the profile",
	Long: `Parse a plain-text résumé and store it as the profile.

Examples:
  formfill profile import resume.txt
  formfill profile import --backend http://localhost:8000 resume.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileImport,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileBackend string

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileShowCmd)

	profileCmd.PersistentFlags().StringVar(&profileBackend, "backend", "", "Answer backend URL (default: in-process store)")
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if profileBackend != "" {
		cfg.BackendURL = profileBackend
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read résumé: %w", err)
	}

	ctx := cmd.Context()
	answers, closeAnswers, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAnswers()

	p, err := answers.ParseResume(ctx, string(text))
	if err != nil {
		return fmt.Errorf("failed to import profile: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Imported profile:", profile.Summary(&p))
	return printJSON(cmd.OutOrStdout(), p)
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if profileBackend != "" {
		cfg.BackendURL = profileBackend
	}

	ctx := cmd.Context()
	answers, closeAnswers, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAnswers()

	p, err := answers.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return errors.New("no profile stored; run \"formfill profile import\" first")
	}
	return printJSON(cmd.OutOrStdout(), p)
}
