package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/render"
)

var errNotJudged = errors.New("verdict pending")

type SubmitCmd struct {
	Problem  string        `help:"Problem id" required:""`
	Language string        `help:"Language (c, cpp, java, python, javascript)" required:""`
	File     string        `arg:"" help:"Source file, or - for stdin"`
	Wait     bool          `help:"Wait for the verdict"`
	Timeout  time.Duration `help:"Give up waiting after this long" default:"5m"`
}

func (s *SubmitCmd) Run(ctx context.Context, globals *Globals) error {
	lang, ok := api.ParseLanguage(s.Language)
	if !ok {
		return fmt.Errorf("unknown language %q", s.Language)
	}
	code, err := readSource(s.File)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return errors.New("source file is empty")
	}

	d, st, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	if !st.IsAuthenticated() {
		return ErrNotSignedIn
	}

	sub, err := d.Client.SubmitSolution(ctx, api.NewSubmission{Problem: s.Problem, Language: lang, Code: code})
	if err != nil {
		return fmt.Errorf("submitting: %w", err)
	}
	out := globals.out()
	fmt.Fprintf(out, "Submitted %s (%s, %s)\n", sub.ID, sub.Problem.Code, lang.DisplayName())

	if !s.Wait {
		// Let the TUI pick up the verdict later.
		if err := d.DB.Watch(cache.WatchedSubmission{
			SubmissionID: sub.ID,
			UserID:       st.User().ID,
			ProblemCode:  sub.Problem.Code,
			LastChecked:  time.Now(),
		}); err != nil {
			log.Warn().Err(err).Msg("watching submission")
		}
		return nil
	}

	judged, err := WaitForVerdict(ctx, d.Client, sub.ID, d.Config.MonitorInterval, d.Config.MonitorMaxInterval, s.Timeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, VerdictLine(judged))
	if judged.ErrorMessage != "" {
		fmt.Fprintln(out, judged.ErrorMessage)
	}
	return nil
}

func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(b), nil
}

// SubmissionGetter loads one submission.
type SubmissionGetter interface {
	GetSubmission(ctx context.Context, id string) (*api.Submission, error)
}

// WaitForVerdict polls id with exponential backoff until the judge reports a
// final verdict or timeout elapses. A missing submission stops polling.
func WaitForVerdict(ctx context.Context, c SubmissionGetter, id string, interval, maxInterval, timeout time.Duration) (*api.Submission, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.Multiplier = 1.5

	op := func() (*api.Submission, error) {
		s, err := c.GetSubmission(ctx, id)
		switch {
		case api.StatusCode(err) == http.StatusNotFound, api.IsUnauthorized(err):
			return nil, backoff.Permanent(err)
		case err != nil:
			return nil, err
		case !s.Verdict.IsFinal():
			return nil, errNotJudged
		}
		return s, nil
	}

	s, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("submission", id).Dur("next", next).Msg("waiting for verdict")
		}),
	)
	if errors.Is(err, errNotJudged) {
		return nil, fmt.Errorf("no verdict for %s after %s", id, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("waiting for verdict: %w", err)
	}
	return s, nil
}

// VerdictLine summarizes a judged submission on one line.
func VerdictLine(s *api.Submission) string {
	line := fmt.Sprintf("%s: %s", s.Problem.Code, s.Verdict.Text())
	if s.TotalTestCases > 0 {
		line += fmt.Sprintf("  tests %d/%d", s.TestCasesPassed, s.TotalTestCases)
	}
	if s.Verdict != api.VerdictCompilationError {
		line += fmt.Sprintf("  %s  %s", render.Duration(s.TimeUsedMs), render.Memory(s.MemoryUsedKb))
	}
	return line
}
