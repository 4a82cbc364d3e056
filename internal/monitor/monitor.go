// Package monitor polls the judge for verdicts on the user's pending
// submissions and turns final verdicts into notifications.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/config"
	"github.com/fragmede/ojterm/internal/ui/messages"
)

// staleAfter is how long a watch survives while its submission cannot be fetched.
const staleAfter = 24 * time.Hour

// Sender delivers messages to the UI. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Fetcher loads submissions by id. Missing or failed entries are nil.
type Fetcher interface {
	BatchGetSubmissions(ctx context.Context, ids []string) ([]*api.Submission, error)
}

// Monitor polls watched submissions until the judge reports a final verdict.
type Monitor struct {
	fetcher Fetcher
	cache   *cache.DB
	cfg     config.Config
	wake    chan struct{}

	mu     sync.Mutex
	userID string
	stopCh chan struct{}
	done   chan struct{}
}

// New creates a stopped monitor.
func New(cfg config.Config, fetcher Fetcher, db *cache.DB) *Monitor {
	return &Monitor{
		fetcher: fetcher,
		cache:   db,
		cfg:     cfg,
		wake:    make(chan struct{}, 1),
	}
}

// Start begins polling on behalf of userID. Starting again for another user
// stops the previous loop first.
func (m *Monitor) Start(sender Sender, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopCh != nil {
		if m.userID == userID {
			return
		}
		m.stopLocked()
	}
	m.userID = userID
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop(sender, userID, m.stopCh, m.done)
	log.Debug().Str("user", userID).Msg("verdict monitor started")
}

// Stop halts polling and waits for the loop to exit. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.done
	m.stopCh, m.done, m.userID = nil, nil, ""
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCh != nil
}

// Watch starts tracking a freshly created submission and restarts the
// polling schedule at its shortest interval.
func (m *Monitor) Watch(s *api.Submission) error {
	if s == nil || s.Verdict.IsFinal() {
		return nil
	}
	err := m.cache.Watch(cache.WatchedSubmission{
		SubmissionID: s.ID,
		UserID:       s.User.ID,
		ProblemCode:  s.Problem.Code,
		ProblemTitle: s.Problem.Title,
		CreatedAt:    s.CreatedAt,
	})
	if err != nil {
		return err
	}
	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

func (m *Monitor) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.MonitorInterval
	b.MaxInterval = m.cfg.MonitorMaxInterval
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2
	b.Reset()
	return b
}

func (m *Monitor) loop(sender Sender, userID string, stop, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	b := m.newBackOff()
	timer := time.NewTimer(m.next(b))
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-m.wake:
			// A new submission is rarely judged instantly; wait one short interval.
			b.Reset()
			timer.Reset(m.next(b))
			continue
		case <-timer.C:
		}

		judged, err := m.poll(ctx, sender, userID)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("verdict poll failed")
		}
		if judged > 0 {
			b.Reset()
		}
		timer.Reset(m.next(b))
	}
}

func (m *Monitor) next(b *backoff.ExponentialBackOff) time.Duration {
	d := b.NextBackOff()
	if d == backoff.Stop || d <= 0 {
		return m.cfg.MonitorMaxInterval
	}
	return d
}

// poll checks one batch of watched submissions and returns how many of them
// reached a final verdict.
func (m *Monitor) poll(ctx context.Context, sender Sender, userID string) (int, error) {
	watched, err := m.cache.Watched(userID, m.cfg.MonitorBatchSize)
	if err != nil {
		return 0, fmt.Errorf("reading watched submissions: %w", err)
	}
	if len(watched) == 0 {
		return 0, nil
	}

	ids := make([]string, len(watched))
	for i, w := range watched {
		ids[i] = w.SubmissionID
	}
	subs, err := m.fetcher.BatchGetSubmissions(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("fetching watched submissions: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now()
	judged := 0
	for i, w := range watched {
		s := subs[i]
		switch {
		case s == nil:
			if now.Sub(w.CreatedAt) > staleAfter {
				log.Info().Str("submission", w.SubmissionID).Msg("dropping stale watch")
				if err := m.cache.Unwatch(w.SubmissionID); err != nil {
					log.Warn().Err(err).Send()
				}
				continue
			}
			m.markChecked(w.SubmissionID, now)

		case !s.Verdict.IsFinal():
			m.markChecked(w.SubmissionID, now)

		default:
			n := cache.Notification{
				SubmissionID: s.ID,
				UserID:       userID,
				ProblemCode:  firstNonEmpty(s.Problem.Code, w.ProblemCode),
				ProblemTitle: firstNonEmpty(s.Problem.Title, w.ProblemTitle),
				Verdict:      s.Verdict,
				TimeUsedMs:   s.TimeUsedMs,
				MemoryUsedKb: s.MemoryUsedKb,
				CreatedAt:    now,
			}
			if err := m.cache.AddNotification(n); err != nil {
				log.Warn().Err(err).Str("submission", s.ID).Msg("storing verdict notification")
				continue
			}
			if err := m.cache.Unwatch(s.ID); err != nil {
				log.Warn().Err(err).Send()
			}
			judged++
			log.Debug().Str("submission", s.ID).Str("verdict", string(s.Verdict)).Msg("verdict received")
			deliver(ctx, sender, messages.VerdictMsg{
				Submission: s,
				Unread:     m.cache.UnreadNotificationCount(userID),
			})
		}
	}
	return judged, nil
}

// deliver sends msg unless ctx ends first. Program.Send blocks until the
// event loop reads the message, and the event loop may itself be waiting in
// Stop.
func deliver(ctx context.Context, sender Sender, msg tea.Msg) {
	if sender == nil || ctx.Err() != nil {
		return
	}
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		sender.Send(msg)
	}()
	select {
	case <-sent:
	case <-ctx.Done():
		log.Debug().Msg("monitor stopped before verdict was delivered")
	}
}

func (m *Monitor) markChecked(id string, t time.Time) {
	if err := m.cache.MarkChecked(id, t); err != nil {
		log.Warn().Err(err).Str("submission", id).Msg("marking watch checked")
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
