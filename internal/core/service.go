package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ClassifyTimeout bounds a one-shot run outside the HTTP server, parse
// and export included. The server uses UPLOAD_TIMEOUT instead.
var ClassifyTimeout = 2 * time.Minute

// TableReader parses an uploaded spreadsheet into a Table. Every cell comes
// back as text and every row is padded to the header width.
type TableReader interface {
	ReadTable(name string, r io.Reader) (*Table, error)
}

// TableExporter serializes one partition into a downloadable file.
// Implementations work on a copy and never modify t.
type TableExporter interface {
	Export(t *Table, phoneMarkers []string) ([]byte, error)
}

// Observer receives run and export outcomes, typically for metrics.
type Observer interface {
	RunCompleted(s Summary, elapsed time.Duration)
	RunFailed(err error)
	Exported(c Category, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) RunCompleted(Summary, time.Duration) {}
func (nopObserver) RunFailed(error)                     {}
func (nopObserver) Exported(Category, time.Duration)    {}

// ServiceConfig wires a Service. Classifier, Reader and Exporter are
// required; everything else has an in-memory default.
type ServiceConfig struct {
	Classifier *Classifier
	Reader     TableReader
	Exporter   TableExporter
	History    RunStore
	Limiter    *RunLimiter
	SessionTTL time.Duration
	Observer   Observer
}

// Service runs the load → classify → export pipeline for browser sessions
// and one-shot API/CLI callers.
type Service struct {
	classifier *Classifier
	reader     TableReader
	exporter   TableExporter
	history    RunStore
	limiter    *RunLimiter
	sessions   *SessionStore
	results    *ResultCache
	observer   Observer
	now        func() time.Time
}

// NewService validates cfg and fills in defaults.
func NewService(cfg ServiceConfig) (*Service, error) {
	var errs []error
	if cfg.Classifier == nil {
		errs = append(errs, errors.New("classifier is required"))
	}
	if cfg.Reader == nil {
		errs = append(errs, errors.New("table reader is required"))
	}
	if cfg.Exporter == nil {
		errs = append(errs, errors.New("table exporter is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}

	if cfg.History == nil {
		cfg.History = NewMemoryRunStore()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	return &Service{
		classifier: cfg.Classifier,
		reader:     cfg.Reader,
		exporter:   cfg.Exporter,
		history:    cfg.History,
		limiter:    cfg.Limiter,
		sessions:   NewSessionStore(cfg.SessionTTL),
		results:    NewResultCache(cfg.SessionTTL),
		observer:   cfg.Observer,
		now:        time.Now,
	}, nil
}

// Rules returns the active rule set.
func (s *Service) Rules() RuleSet {
	return s.classifier.Rules()
}

// LimiterStatus reports classify concurrency for health checks.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for in-flight classify actions to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LoadInput parses a file into the session's working table and evicts any
// earlier result. On error the session keeps its previous state.
func (s *Service) LoadInput(ctx context.Context, sessionID, name string, r io.Reader) (*Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := s.reader.ReadTable(name, r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	in := &Input{FileName: name, Table: table, LoadedAt: s.now()}

	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	if sess.RunID != "" {
		s.results.Delete(sess.RunID)
		sess.RunID = ""
	}
	sess.Input = in
	return in, nil
}

// Classify labels the session's working table and caches the run.
func (s *Service) Classify(ctx context.Context, sessionID string) (*Run, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		s.observer.RunFailed(err)
		return nil, err
	}
	defer s.limiter.Release()

	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	if sess.Input == nil {
		s.observer.RunFailed(ErrNoInput)
		return nil, ErrNoInput
	}

	run, err := s.classify(sess.Input)
	if err != nil {
		s.observer.RunFailed(err)
		return nil, err
	}

	if sess.RunID != "" {
		s.results.Delete(sess.RunID)
	}
	sess.RunID = run.ID
	s.results.Put(run)
	s.record(ctx, run)
	return run, nil
}

// ClassifyFile is the one-shot path: parse, classify and cache in one call
// without touching any session.
func (s *Service) ClassifyFile(ctx context.Context, name string, r io.Reader) (*Run, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		s.observer.RunFailed(err)
		return nil, err
	}
	defer s.limiter.Release()

	table, err := s.reader.ReadTable(name, r)
	if err != nil {
		err = fmt.Errorf("load %s: %w", name, err)
		s.observer.RunFailed(err)
		return nil, err
	}

	run, err := s.classify(&Input{FileName: name, Table: table, LoadedAt: s.now()})
	if err != nil {
		s.observer.RunFailed(err)
		return nil, err
	}

	s.results.Put(run)
	s.record(ctx, run)
	return run, nil
}

// SessionView is a snapshot of a session for rendering.
type SessionView struct {
	Input *Input
	Run   *Run
}

// Current returns the session's input and latest run, either of which may
// be nil. Unknown sessions yield an empty view.
func (s *Service) Current(sessionID string) SessionView {
	sess, ok := s.sessions.Peek(sessionID)
	if !ok {
		return SessionView{}
	}
	sess.Lock()
	defer sess.Unlock()

	view := SessionView{Input: sess.Input}
	if sess.RunID != "" {
		run, err := s.results.Get(sess.RunID)
		if err != nil {
			sess.RunID = ""
		} else {
			view.Run = run
		}
	}
	return view
}

// Run returns a cached run by ID.
func (s *Service) Run(id string) (*Run, error) {
	return s.results.Get(id)
}

// Export serializes one category of a cached run.
func (s *Service) Export(ctx context.Context, runID string, c Category) ([]byte, error) {
	run, err := s.results.Get(runID)
	if err != nil {
		return nil, err
	}
	return s.exportPartition(ctx, run, c)
}

// ExportAll serializes every category of run in parallel.
func (s *Service) ExportAll(ctx context.Context, run *Run) (map[Category][]byte, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	files := make(map[Category][]byte, len(Categories))

	for _, c := range Categories {
		g.Go(func() error {
			data, err := s.exportPartition(gctx, run, c)
			if err != nil {
				return err
			}
			mu.Lock()
			files[c] = data
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// History returns up to limit run records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]RunRecord, error) {
	return s.history.Recent(ctx, limit)
}

func (s *Service) exportPartition(ctx context.Context, run *Run, c Category) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, ok := run.Partitions[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}

	start := time.Now()
	data, err := s.exporter.Export(part, s.classifier.Rules().PhoneColumnMarkers)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", c, err)
	}
	s.observer.Exported(c, time.Since(start))
	return data, nil
}

// classify resolves the address column, labels every row and partitions
// the result. The input table is left untouched.
func (s *Service) classify(in *Input) (*Run, error) {
	start := time.Now()

	idx, err := ResolveColumn(in.Table.Header, s.classifier.Rules().Matchers())
	if err != nil {
		return nil, err
	}

	labeled, err := Label(in.Table, idx, s.classifier)
	if err != nil {
		return nil, err
	}

	parts, err := Partition(labeled)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:            uuid.NewString(),
		FileName:      in.FileName,
		AddressColumn: in.Table.Header[idx],
		Labeled:       labeled,
		Partitions:    parts,
		Summary:       Summarize(parts),
		CreatedAt:     s.now(),
	}
	s.observer.RunCompleted(run.Summary, time.Since(start))
	return run, nil
}

// record saves the run's history entry. A storage failure is logged and
// does not fail the classify action.
func (s *Service) record(ctx context.Context, run *Run) {
	if err := s.history.Save(ctx, NewRunRecord(ctx, run)); err != nil {
		slog.Warn("save run history failed", "run_id", run.ID, "error", err)
	}
}
