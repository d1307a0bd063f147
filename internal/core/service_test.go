package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// lineReader parses "a|b|c" lines; the first line is the header.
type lineReader struct{}

func (lineReader) ReadTable(name string, r io.Reader) (*Table, error) {
	if !strings.HasSuffix(name, ".txt") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, ErrEmptyFile
	}
	t := &Table{Header: strings.Split(lines[0], "|")}
	for _, l := range lines[1:] {
		t.Rows = append(t.Rows, strings.Split(l, "|"))
	}
	return t, nil
}

// recordingExporter returns the header line and records phone values it saw.
type recordingExporter struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (e *recordingExporter) Export(t *Table, _ []string) ([]byte, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail != nil {
		return nil, e.fail
	}
	return []byte(fmt.Sprintf("%s:%d", strings.Join(t.Header, ","), t.Len())), nil
}

type countingObserver struct {
	mu        sync.Mutex
	completed int
	failed    []error
	exported  int
}

func (o *countingObserver) RunCompleted(Summary, time.Duration) {
	o.mu.Lock()
	o.completed++
	o.mu.Unlock()
}

func (o *countingObserver) RunFailed(err error) {
	o.mu.Lock()
	o.failed = append(o.failed, err)
	o.mu.Unlock()
}

func (o *countingObserver) Exported(Category, time.Duration) {
	o.mu.Lock()
	o.exported++
	o.mu.Unlock()
}

const shipments = `單號|收件人地址|電話
A1|新竹縣竹北市中正路1號|912345678
A2|澎湖縣馬公市中正路1號|
A3|中正路1號|`

func newTestService(t *testing.T) (*Service, *recordingExporter, *countingObserver) {
	t.Helper()
	exp := &recordingExporter{}
	obs := &countingObserver{}
	svc, err := NewService(ServiceConfig{
		Classifier: MustClassifier(DefaultRuleSet()),
		Reader:     lineReader{},
		Exporter:   exp,
		Observer:   obs,
		SessionTTL: time.Minute,
	})
	require.NoError(t, err)
	return svc, exp, obs
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "classifier is required")
	require.Contains(t, err.Error(), "table exporter is required")
}

func TestService_SessionLifecycle(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	svc, _, obs := newTestService(t)

	// empty
	view := svc.Current("s1")
	r.Nil(view.Input)
	r.Nil(view.Run)

	_, err := svc.Classify(ctx, "s1")
	r.ErrorIs(err, ErrNoInput)

	// loaded
	in, err := svc.LoadInput(ctx, "s1", "orders.txt", strings.NewReader(shipments))
	r.NoError(err)
	r.Equal(3, in.Table.Len())
	r.Nil(svc.Current("s1").Run)

	// classified
	run, err := svc.Classify(ctx, "s1")
	r.NoError(err)
	r.Equal("收件人地址", run.AddressColumn)
	r.Equal(Summary{Total: 3, PostOffice: 1, HasDistrict: 1, NoDistrict: 1}, run.Summary)
	r.Equal(run.ID, svc.Current("s1").Run.ID)

	cached, err := svc.Run(run.ID)
	r.NoError(err)
	r.Same(run, cached)

	// a new input clears the result
	_, err = svc.LoadInput(ctx, "s1", "next.txt", strings.NewReader(shipments))
	r.NoError(err)
	r.Nil(svc.Current("s1").Run)
	_, err = svc.Run(run.ID)
	r.ErrorIs(err, ErrRunNotFound)

	r.Equal(1, obs.completed)
	r.Len(obs.failed, 1)
}

func TestService_LoadFailureKeepsPriorState(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.LoadInput(ctx, "s1", "orders.txt", strings.NewReader(shipments))
	r.NoError(err)
	run, err := svc.Classify(ctx, "s1")
	r.NoError(err)

	_, err = svc.LoadInput(ctx, "s1", "orders.pdf", strings.NewReader("x"))
	r.ErrorIs(err, ErrUnsupportedFormat)

	view := svc.Current("s1")
	r.Equal("orders.txt", view.Input.FileName)
	r.NotNil(view.Run)
	r.Equal(run.ID, view.Run.ID)
}

func TestService_MissingColumnHaltsRun(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	svc, exp, obs := newTestService(t)

	_, err := svc.LoadInput(ctx, "s1", "orders.txt", strings.NewReader("姓名|電話\n王|0912"))
	r.NoError(err)

	_, err = svc.Classify(ctx, "s1")
	r.ErrorIs(err, ErrMissingColumn)
	r.Equal("COL001", MapError(err).Code)
	r.Nil(svc.Current("s1").Run)
	r.Zero(exp.calls)
	r.Len(obs.failed, 1)
}

func TestService_ClassifyFileAndExport(t *testing.T) {
	r := require.New(t)
	ctx := WithClient(context.Background(), "10.0.0.9", "test-agent")
	svc, exp, obs := newTestService(t)

	run, err := svc.ClassifyFile(ctx, "orders.txt", strings.NewReader(shipments))
	r.NoError(err)

	data, err := svc.Export(ctx, run.ID, PostOffice)
	r.NoError(err)
	r.Equal("單號,收件人地址,電話,_category:1", string(data))

	_, err = svc.Export(ctx, run.ID, Category("ELSEWHERE"))
	r.ErrorIs(err, ErrUnknownCategory)

	_, err = svc.Export(ctx, "missing", PostOffice)
	r.ErrorIs(err, ErrRunNotFound)

	files, err := svc.ExportAll(ctx, run)
	r.NoError(err)
	r.Len(files, len(Categories))
	r.Equal(4, exp.calls)
	r.Equal(4, obs.exported)

	history, err := svc.History(ctx, 10)
	r.NoError(err)
	r.Len(history, 1)
	r.Equal(run.ID, history[0].ID)
	r.Equal("10.0.0.9", history[0].ClientIP)
}

func TestService_ExportAllPropagatesError(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	svc, exp, _ := newTestService(t)

	run, err := svc.ClassifyFile(ctx, "orders.txt", strings.NewReader(shipments))
	r.NoError(err)

	exp.fail = errors.New("disk full")
	_, err = svc.ExportAll(ctx, run)
	r.ErrorContains(err, "disk full")
}

func TestService_BusyLimiter(t *testing.T) {
	r := require.New(t)
	limiter := NewRunLimiter(1, 20*time.Millisecond)
	svc, err := NewService(ServiceConfig{
		Classifier: MustClassifier(DefaultRuleSet()),
		Reader:     lineReader{},
		Exporter:   &recordingExporter{},
		Limiter:    limiter,
	})
	r.NoError(err)

	r.True(limiter.TryAcquire())
	defer limiter.Release()

	_, err = svc.ClassifyFile(context.Background(), "orders.txt", strings.NewReader(shipments))
	r.ErrorIs(err, ErrTooManyRuns)
	r.Equal(1, svc.LimiterStatus().Active)
}
