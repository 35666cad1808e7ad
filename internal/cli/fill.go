package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	service "github.com/okian/formfill/internal/app"
	"github.com/okian/formfill/internal/config"
	"github.com/okian/formfill/pkg/logger"
	"github.com/spf13/cobra"
)

var fillCmd = &cobra.Command{
	Use:   "fill <url|file>",
	Short: "Run an autofill pass over a form",
	Long: `Open a form and fill every control that has an answer.

http(s) targets open in Chromium; anything else is read as a local HTML file.
The pass summary is printed as JSON.

Examples:
  formfill fill https://jobs.example.com/apply/42
  formfill fill --watch --headed https://jobs.example.com/apply/42  # Keep learning from your picks
  formfill fill --backend http://localhost:8000 ./form.html`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

var saveCmd = &cobra.Command{
	Use:   "save <url|file>",
	Short: "Store the answers currently on a form",
	Long: `Read every answered control on a form and store it in the answer history.

For live pages, --wait opens the page and saves once you press Enter.

Examples:
  formfill save ./filled-form.html
  formfill save --headed --wait https://jobs.example.com/apply/42`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

// Flags
var (
	fillFlags pipelineFlags
	fillWatch bool
	saveFlags pipelineFlags
	saveWait  bool
)

func init() {
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(saveCmd)

	for _, c := range []struct {
		cmd   *cobra.Command
		flags *pipelineFlags
	}{{fillCmd, &fillFlags}, {saveCmd, &saveFlags}} {
		fs := c.cmd.Flags()
		fs.StringVar(&c.flags.backendURL, "backend", "", "Answer backend URL (default: in-process store)")
		fs.StringVar(&c.flags.rulesFile, "rules", "", "YAML intent rules replacing the built-in table")
		fs.BoolVar(&c.flags.headed, "headed", false, "Show the browser window")
		fs.StringVar(&c.flags.company, "company", "", "Company name passed to drafting")
		fs.StringVar(&c.flags.role, "role", "", "Role title passed to drafting")
		fs.StringVar(&c.flags.description, "job-description", "", "File with the job posting text")
	}
	fillCmd.Flags().BoolVar(&fillFlags.noDraft, "no-draft", false, "Do not draft open-ended answers")
	fillCmd.Flags().IntVar(&fillFlags.concurrency, "concurrency", 0, "Controls resolved in parallel (overrides config)")
	fillCmd.Flags().BoolVar(&fillWatch, "watch", false, "Keep the page open and store your picks until interrupted")
	saveCmd.Flags().BoolVar(&saveWait, "wait", false, "Wait for Enter before saving")
}

// session is one pipeline bound to one page.
type session struct {
	svc     *service.Service
	release func()
}

func (s *session) close(ctx context.Context) {
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.svc.Stop(stopCtx); err != nil {
		logger.Get().Warn(ctx, "pipeline stop failed", logger.Error(err))
	}
	s.release()
}

func startSession(ctx context.Context, cfg *config.Config, flags *pipelineFlags, target string) (*session, error) {
	flags.apply(cfg)
	job, err := flags.job()
	if err != nil {
		return nil, err
	}
	classifier, err := loadClassifier(cfg)
	if err != nil {
		return nil, err
	}

	answers, closeAnswers, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	doc, closePage, err := openPage(ctx, cfg, target)
	if err != nil {
		_ = closeAnswers()
		return nil, err
	}
	release := func() {
		closePage()
		if err := closeAnswers(); err != nil {
			logger.Get().Warn(ctx, "store close failed", logger.Error(err))
		}
	}

	svc := newPipeline(cfg, doc, answers, classifier, job)
	if err := svc.Start(ctx); err != nil {
		release()
		return nil, fmt.Errorf("failed to start pipeline: %w", err)
	}
	return &session{svc: svc, release: release}, nil
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	s, err := startSession(ctx, cfg, &fillFlags, args[0])
	if err != nil {
		return err
	}
	defer s.close(ctx)

	sum, err := s.svc.Autofill(ctx)
	if err != nil {
		return fmt.Errorf("autofill failed: %w", err)
	}
	if err := printJSON(cmd.OutOrStdout(), sum); err != nil {
		return err
	}

	if fillWatch {
		logger.Get().Info(ctx, "watching for answers; interrupt to stop")
		<-ctx.Done()
	}
	return nil
}

func runSave(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	s, err := startSession(ctx, cfg, &saveFlags, args[0])
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if saveWait {
		fmt.Fprintln(cmd.ErrOrStderr(), "Answer the form, then press Enter to save.")
		if err := waitForEnter(ctx, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	sum, err := s.svc.Save(ctx)
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), sum)
}

func waitForEnter(ctx context.Context, r io.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(r).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
