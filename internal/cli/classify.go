package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <question>...",
	Short: "Show which intent a question maps to",
	Long: `Classify question text with the intent rule table and print the tag and
the index of the rule that matched (-1 when none did).

Examples:
  formfill classify "Legal First Name"
  formfill classify --rules rules.yaml "What city do you live in?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

var classifyRules string

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyRules, "rules", "", "YAML intent rules replacing the built-in table")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if classifyRules != "" {
		cfg.RulesFile = classifyRules
	}
	classifier, err := loadClassifier(cfg)
	if err != nil {
		return err
	}

	tag, rule := classifier.Explain(strings.Join(args, " "))
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", tag, rule)
	return nil
}
