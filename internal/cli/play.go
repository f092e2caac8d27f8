package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/tui"
)

type playOptions struct {
	datasets  []string
	originals map[string]string
	count     int
	minutes   int
	wrongOnly bool
	userID    string
	seed      int64
	noColor   bool
}

// NewPlayCmd runs one session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a timed drill in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), cmd.OutOrStdout(), *configPath, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.datasets, "dataset", []string{"sample"}, "dataset ids to draw questions from")
	cmd.Flags().StringToStringVar(&opts.originals, "original", nil, "dataset=original pairs linking original-language banks")
	cmd.Flags().IntVar(&opts.count, "count", 0, "number of questions (defaults to config)")
	cmd.Flags().IntVar(&opts.minutes, "minutes", 0, "time limit in minutes (defaults to the exam's pace)")
	cmd.Flags().BoolVar(&opts.wrongOnly, "wrong-only", false, "only questions answered wrong before")
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id for history and wrong-answer tracking")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "shuffle seed for a reproducible drill")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colors")
	return cmd
}

func runPlay(ctx context.Context, out io.Writer, configPath string, opts playOptions) (err error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	service := app.NewSessionService(b.deps(cfg), settingsFromConfig(cfg))
	defer service.Close()

	view, err := service.Start(ctx, app.SetupRequest{
		UserID:             opts.userID,
		DatasetIDs:         opts.datasets,
		OriginalDatasetIDs: opts.originals,
		QuestionCount:      opts.count,
		TimeLimitMinutes:   opts.minutes,
		WrongOnly:          opts.wrongOnly,
		Seed:               opts.seed,
	})
	if err != nil {
		return err
	}
	session, err := service.Session(view.SessionID)
	if err != nil {
		return err
	}
	updates, unsubscribe, err := service.Subscribe(ctx, view.SessionID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	model := tui.NewModel(session, updates, tui.Options{NoColor: opts.noColor, Gestures: gesturesFromConfig(cfg)})
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	m, ok := final.(tui.Model)
	if !ok || m.Result() == nil {
		fmt.Fprintln(out, "Drill abandoned.")
		return service.Abandon(ctx, view.SessionID)
	}
	res := m.Result()
	verdict := "FAIL"
	if res.IsPass {
		verdict = "PASS"
	}
	fmt.Fprintf(out, "%s: score %d, %d/%d correct in %s\n",
		verdict, res.Score, res.CorrectCount, res.GradedQuestions, tui.FormatClock(res.TimeTakenSeconds))
	return nil
}
