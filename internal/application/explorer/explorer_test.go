package explorer

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/application/resolver"
	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/pubchem"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage"
	"github.com/turtacn/molexplorer/internal/testutil"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// ---------------------------------------------------------------------------
// doubles
// ---------------------------------------------------------------------------

type mockViewer struct {
	mock.Mock
}

func (m *mockViewer) Clear() { m.Called() }
func (m *mockViewer) AddModel(record, format string) error {
	return m.Called(record, format).Error(0)
}
func (m *mockViewer) SetStyle(spec render.StyleSpec) { m.Called(spec) }
func (m *mockViewer) ZoomTo()                        { m.Called() }
func (m *mockViewer) Render() error                  { return m.Called().Error(0) }

// newViewer accepts every call. AddModel fails for each record in failOn.
func newViewer(failOn ...string) *mockViewer {
	v := &mockViewer{}
	for _, rec := range failOn {
		v.On("AddModel", rec, render.FormatSDF).Return(stderrors.New("unparseable record"))
	}
	v.On("AddModel", mock.Anything, render.FormatSDF).Return(nil)
	v.On("Clear").Return()
	v.On("SetStyle", mock.Anything).Return()
	v.On("ZoomTo").Return()
	v.On("Render").Return(nil)
	return v
}

type recordingDisplay struct {
	mu       sync.Mutex
	statuses []string
	toasts   []Toast
	infos    []Info
	loading  []bool
	started  chan struct{}
}

func (d *recordingDisplay) SetStatus(s string) {
	d.mu.Lock()
	d.statuses = append(d.statuses, s)
	d.mu.Unlock()
}

func (d *recordingDisplay) ShowCompound(info Info) {
	d.mu.Lock()
	d.infos = append(d.infos, info)
	d.mu.Unlock()
}

func (d *recordingDisplay) Notify(t Toast) {
	d.mu.Lock()
	d.toasts = append(d.toasts, t)
	d.mu.Unlock()
}

func (d *recordingDisplay) SetLoading(b bool) {
	d.mu.Lock()
	d.loading = append(d.loading, b)
	started := d.started
	d.mu.Unlock()
	if b && started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
}

func (d *recordingDisplay) reset() {
	d.mu.Lock()
	d.statuses, d.toasts, d.infos, d.loading = nil, nil, nil, nil
	d.mu.Unlock()
}

func (d *recordingDisplay) snapshot() ([]string, []Toast, []Info) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.statuses...), append([]Toast(nil), d.toasts...), append([]Info(nil), d.infos...)
}

func (d *recordingDisplay) errorToasts() []Toast {
	_, toasts, _ := d.snapshot()
	var out []Toast
	for _, t := range toasts {
		if t.Severity == SeverityError {
			out = append(out, t)
		}
	}
	return out
}

type stubSuggester func(string) []compound.Suggestion

func (f stubSuggester) Suggest(raw string) []compound.Suggestion { return f(raw) }

type fixture struct {
	explorer *Explorer
	fake     *testutil.FakePubChem
	viewer   *mockViewer
	display  *recordingDisplay
}

func newFixture(t *testing.T, viewer *mockViewer, opts ...Option) *fixture {
	t.Helper()
	fake := testutil.NewFakePubChem(t)
	fake.Add(testutil.Aspirin())
	fake.Add(testutil.Caffeine())

	client, err := pubchem.NewClient(fake.URL(), pubchem.WithRateLimit(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	if viewer == nil {
		viewer = newViewer()
	}
	display := &recordingDisplay{}
	opts = append([]Option{WithLogger(testutil.NewMockLogger())}, opts...)
	return &fixture{
		explorer: New(resolver.New(client, nil), nil, viewer, display, opts...),
		fake:     fake,
		viewer:   viewer,
		display:  display,
	}
}

// ---------------------------------------------------------------------------
// search
// ---------------------------------------------------------------------------

func TestSearch_Success(t *testing.T) {
	loadedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFixture(t, nil, WithClock(func() time.Time { return loadedAt }))

	s, err := f.explorer.Search(context.Background(), "  Aspirin ")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), s.Version)
	assert.Equal(t, compound.CID(2244), s.CID)
	assert.Equal(t, "Aspirin", s.Query)
	assert.Equal(t, "aspirin", s.DisplayName)
	assert.Equal(t, compound.Dim3D, s.Structure.Dim)
	assert.Equal(t, loadedAt, s.LoadedAt)
	assert.Same(t, s, f.explorer.Current())
	assert.False(t, f.explorer.Loading())

	statuses, toasts, infos := f.display.snapshot()
	assert.Equal(t, []string{StatusSearching, StatusLoadingProps, StatusLoadingStructure, "Loaded: aspirin"}, statuses)
	assert.Equal(t, []Toast{{Severity: SeveritySuccess, Message: "Successfully loaded aspirin"}}, toasts)
	require.Len(t, infos, 1)
	assert.Equal(t, Info{
		CommonName: "aspirin",
		IUPACName:  "2-acetyloxybenzoic acid",
		Formula:    "C9H8O4",
		Mass:       "180.160 g/mol",
		CID:        "2244",
		ShowIUPAC:  true,
	}, infos[0])
	assert.Equal(t, []bool{true, false}, f.display.loading)

	f.viewer.AssertCalled(t, "AddModel", testutil.Aspirin().SDF3D, render.FormatSDF)
	f.viewer.AssertCalled(t, "SetStyle", render.Preset(render.StyleStick))
}

func TestSearch_FallbackNoticeBecomesWarningToast(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.SetStatus(testutil.FakeStructure3D, 404)

	s, err := f.explorer.Search(context.Background(), "caffeine")
	require.NoError(t, err)
	assert.Equal(t, compound.Dim2D, s.Structure.Dim)

	_, toasts, _ := f.display.snapshot()
	assert.Equal(t, []Toast{
		{Severity: SeverityWarning, Message: resolver.NoticeFallback2D},
		{Severity: SeveritySuccess, Message: "Successfully loaded caffeine"},
	}, toasts)
}

func TestSearch_SynonymNoticeIsInfo(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.SetStatus(testutil.FakeSynonyms, 500)

	_, err := f.explorer.Search(context.Background(), "caffeine")
	require.NoError(t, err)

	_, toasts, _ := f.display.snapshot()
	assert.Contains(t, toasts, Toast{Severity: SeverityInfo, Message: resolver.NoticeNoSynonyms})
}

func TestSearch_FailureKeepsPreviousSession(t *testing.T) {
	f := newFixture(t, nil)
	prev, err := f.explorer.Search(context.Background(), "aspirin")
	require.NoError(t, err)
	f.display.reset()

	_, err = f.explorer.Search(context.Background(), "unobtainium")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCompoundNotFound))

	assert.Same(t, prev, f.explorer.Current())
	assert.Equal(t, []Toast{{
		Severity: SeverityError,
		Message:  `Compound "unobtainium" not found. Try checking the spelling or use a different name.`,
	}}, f.display.errorToasts())
	statuses, _, infos := f.display.snapshot()
	assert.Equal(t, StatusReady, statuses[len(statuses)-1])
	assert.Empty(t, infos, "a failed search must not touch the info panel")
}

func TestSearch_TimeoutSurfacesTimeoutMessage(t *testing.T) {
	fake := testutil.NewFakePubChem(t)
	fake.Add(testutil.Aspirin())
	fake.SetDelay(testutil.FakeProperties, time.Second)
	client, err := pubchem.NewClient(fake.URL(), pubchem.WithRateLimit(0), pubchem.WithLookupTimeout(30*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	display := &recordingDisplay{}
	e := New(resolver.New(client, nil), nil, newViewer(), display)

	_, err = e.Search(context.Background(), "aspirin")
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.Len(t, display.errorToasts(), 1)
	assert.False(t, e.Current().Loaded())
}

func TestSearch_RenderFailureRestoresPreviousStructure(t *testing.T) {
	viewer := newViewer(testutil.Caffeine().SDF3D)
	f := newFixture(t, viewer)

	prev, err := f.explorer.Search(context.Background(), "aspirin")
	require.NoError(t, err)

	_, err = f.explorer.Search(context.Background(), "caffeine")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRender))
	assert.Same(t, prev, f.explorer.Current())

	addCalls := 0
	for _, c := range viewer.Calls {
		if c.Method == "AddModel" && c.Arguments.String(0) == testutil.Aspirin().SDF3D {
			addCalls++
		}
	}
	assert.Equal(t, 2, addCalls, "aspirin is re-rendered after the failed load")
}

func TestSearch_RenderFailureWithNothingLoadedBlanks(t *testing.T) {
	viewer := newViewer(testutil.Caffeine().SDF3D)
	f := newFixture(t, viewer)

	_, err := f.explorer.Search(context.Background(), "caffeine")
	require.Error(t, err)
	assert.False(t, f.explorer.Current().Loaded())
	assert.Equal(t, uint64(0), f.explorer.Current().Version)
	assert.Len(t, f.display.errorToasts(), 1)
	// Apply clears once, Blank clears again.
	viewer.AssertNumberOfCalls(t, "Clear", 2)
}

func TestSearch_EmptyQueryIsIgnored(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.explorer.Search(context.Background(), "   ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	statuses, toasts, _ := f.display.snapshot()
	assert.Empty(t, statuses)
	assert.Empty(t, toasts)
	assert.Equal(t, 0, f.fake.Hits(testutil.FakeCIDs))
}

func TestSearch_RejectsWhileLoading(t *testing.T) {
	f := newFixture(t, nil)
	f.display.started = make(chan struct{}, 1)
	f.fake.SetDelay(testutil.FakeCIDs, 200*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := f.explorer.Search(context.Background(), "aspirin")
		done <- err
	}()
	<-f.display.started
	assert.True(t, f.explorer.Loading())

	_, err := f.explorer.Search(context.Background(), "caffeine")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchInProgress))

	require.NoError(t, <-done)
	assert.Equal(t, compound.CID(2244), f.explorer.Current().CID)
	assert.Equal(t, uint64(1), f.explorer.Current().Version)
	assert.Empty(t, f.display.errorToasts())
	assert.Equal(t, 1, f.fake.Hits(testutil.FakeCIDs))
}

// ---------------------------------------------------------------------------
// other operations
// ---------------------------------------------------------------------------

func TestRandom(t *testing.T) {
	f := newFixture(t, nil, WithSamples(compound.NewSampleSet("caffeine")), WithRand(rand.New(rand.NewPCG(1, 2))))

	s, err := f.explorer.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, compound.CID(2519), s.CID)
}

func TestRandomName_DrawsFromSamples(t *testing.T) {
	e := New(nil, nil, newViewer(), nil, WithRand(rand.New(rand.NewPCG(7, 7))))
	names := compound.DefaultSamples.Names()
	for i := 0; i < 50; i++ {
		assert.Contains(t, names, e.RandomName())
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.explorer.Search(context.Background(), "aspirin")
	require.NoError(t, err)
	f.display.reset()

	f.explorer.Clear()

	cur := f.explorer.Current()
	assert.Equal(t, uint64(2), cur.Version)
	assert.False(t, cur.Loaded())
	assert.Equal(t, compound.CID(0), cur.CID)

	statuses, toasts, infos := f.display.snapshot()
	assert.Equal(t, []string{StatusReady}, statuses)
	assert.Equal(t, []Toast{{Severity: SeverityInfo, Message: "Viewer cleared"}}, toasts)
	assert.Equal(t, []Info{EmptyInfo()}, infos)

	_, err = f.explorer.Export()
	assert.True(t, errors.IsCode(err, errors.ErrCodeNothingLoaded))
}

func TestSetStyle(t *testing.T) {
	viewer := newViewer()
	f := newFixture(t, viewer)

	require.NoError(t, f.explorer.SetStyle(render.StyleSphere))
	assert.Equal(t, render.StyleSphere, f.explorer.Style())
	viewer.AssertNotCalled(t, "SetStyle", mock.Anything)

	_, err := f.explorer.Search(context.Background(), "aspirin")
	require.NoError(t, err)
	viewer.AssertCalled(t, "SetStyle", render.Preset(render.StyleSphere))

	require.NoError(t, f.explorer.SetStyle(render.StyleWire))
	viewer.AssertCalled(t, "SetStyle", render.Preset(render.StyleWire))
}

func TestResetView(t *testing.T) {
	viewer := newViewer()
	f := newFixture(t, viewer)

	require.NoError(t, f.explorer.ResetView())
	viewer.AssertNotCalled(t, "ZoomTo")

	_, err := f.explorer.Search(context.Background(), "aspirin")
	require.NoError(t, err)
	f.display.reset()

	require.NoError(t, f.explorer.ResetView())
	_, toasts, _ := f.display.snapshot()
	assert.Equal(t, []Toast{{Severity: SeveritySuccess, Message: "View reset"}}, toasts)
	viewer.AssertNumberOfCalls(t, "ZoomTo", 2)
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.explorer.Export()
	require.Error(t, err)
	assert.Equal(t, "No molecule loaded to download", errors.Message(err))
	assert.Equal(t, []Toast{{Severity: SeverityError, Message: "No molecule loaded to download"}}, f.display.errorToasts())

	_, err = f.explorer.Search(context.Background(), "aspirin")
	require.NoError(t, err)

	exp, err := f.explorer.Export()
	require.NoError(t, err)
	assert.Equal(t, "aspirin.sdf", exp.FileName)
	assert.Equal(t, storage.SDFContentType, exp.ContentType)
	assert.Equal(t, []byte(testutil.Aspirin().SDF3D), exp.Data)
}

func TestDownload(t *testing.T) {
	f := newFixture(t, nil)
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = f.explorer.Search(context.Background(), "caffeine")
	require.NoError(t, err)
	f.display.reset()

	loc, err := f.explorer.Download(context.Background(), store)
	require.NoError(t, err)
	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, testutil.Caffeine().SDF3D, string(data))

	_, toasts, _ := f.display.snapshot()
	assert.Equal(t, []Toast{{Severity: SeveritySuccess, Message: "SDF file downloaded"}}, toasts)
}

func TestShareLink(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.explorer.ShareLink("http://localhost:8080/")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNothingLoaded))
	assert.Equal(t, "No compound loaded to share", f.display.errorToasts()[0].Message)

	_, err = f.explorer.Search(context.Background(), "Aspirin")
	require.NoError(t, err)
	link, err := f.explorer.ShareLink("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/?search=Aspirin", link)
}

func TestSuggestDelegates(t *testing.T) {
	e := New(nil, stubSuggester(func(raw string) []compound.Suggestion {
		return []compound.Suggestion{{Text: raw + "!"}}
	}), newViewer(), nil)
	assert.Equal(t, "caf!", e.Suggest("caf")[0].Text)

	assert.Nil(t, New(nil, nil, newViewer(), nil).Suggest("caf"))
}

func TestInfoFor(t *testing.T) {
	res := &resolver.Result{
		CID:        5793,
		Query:      "glucose",
		CommonName: "D-Glucose",
		Properties: compound.Properties{IUPACName: "d-glucose", MolecularFormula: "C6H12O6"},
	}
	info := InfoFor(res)
	assert.False(t, info.ShowIUPAC, "names equal ignoring case")
	assert.Equal(t, compound.Placeholder, info.Mass)
	assert.Equal(t, "5793", info.CID)

	res.Properties.IUPACName = ""
	info = InfoFor(res)
	assert.Equal(t, IUPACUnavailable, info.IUPACName)
	assert.False(t, info.ShowIUPAC)
}
