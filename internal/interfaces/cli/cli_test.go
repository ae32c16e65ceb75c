package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molexplorer/internal/application/explorer"
	"github.com/turtacn/molexplorer/internal/config"
	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/testutil"
	"github.com/turtacn/molexplorer/pkg/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type cliEnv struct {
	fake      *testutil.FakePubChem
	config    string
	exportDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	fake := testutil.NewFakePubChem(t)
	fake.Add(testutil.Aspirin())
	fake.Add(testutil.Caffeine())

	dir := t.TempDir()
	env := &cliEnv{fake: fake, exportDir: filepath.Join(dir, "exports"), config: filepath.Join(dir, "molexplorer.yaml")}
	yaml := fmt.Sprintf(`pubchem:
  base_url: %q
  retry_max: 0
explorer:
  style: stick
  export_dir: %q
metrics:
  enabled: false
log:
  level: info
  format: json
`, fake.URL(), env.exportDir)
	require.NoError(t, os.WriteFile(env.config, []byte(yaml), 0o600))
	return env
}

func (e *cliEnv) run(args ...string) (stdout, stderr string, err error) {
	return runCLI(append([]string{"--config", e.config}, args...)...)
}

func runCLI(args ...string) (stdout, stderr string, err error) {
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

// ---------------------------------------------------------------------------
// root command
// ---------------------------------------------------------------------------

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "molexplorer", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"search", "random", "suggest", "styles", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	pf := cmd.PersistentFlags()
	require.NotNil(t, pf.Lookup("config"))
	assert.Equal(t, "c", pf.Lookup("config").Shorthand)
	assert.Equal(t, "warn", pf.Lookup("log-level").DefValue)
	assert.Equal(t, "text", pf.Lookup("output").DefValue)
	assert.Equal(t, "o", pf.Lookup("output").Shorthand)
	assert.Equal(t, "false", pf.Lookup("no-color").DefValue)
}

func TestRoot_RejectsUnknownOutputFormat(t *testing.T) {
	_, _, err := runCLI("-o", "xml", "version")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, _, err := runCLI("--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)

	cmd.SetContext(context.Background())
	_, err = GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	PrintError(cmd, nil)
	assert.Empty(t, buf.String())

	PrintError(cmd, reportedError{errors.New(errors.ErrCodeCompoundNotFound, "")})
	assert.Empty(t, buf.String(), "already shown as a toast")

	PrintError(cmd, fmt.Errorf("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestPrintResult_FallsBackToText(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, &CLIContext{OutputFormat: OutputTable}))

	require.NoError(t, PrintResult(cmd, "plain"))
	assert.Equal(t, "plain\n", buf.String())
}

// ---------------------------------------------------------------------------
// search and random
// ---------------------------------------------------------------------------

func TestSearch_Text(t *testing.T) {
	env := newCLIEnv(t)

	stdout, stderr, err := env.run("search", "aspirin")
	require.NoError(t, err)

	assert.Contains(t, stdout, "CID:      2244")
	assert.Contains(t, stdout, "Atoms:    21")
	assert.Contains(t, stdout, "Bonds:    21")
	assert.Contains(t, stdout, "Style:    stick r=0.15")

	assert.Contains(t, stderr, "Searching PubChem...")
	assert.Contains(t, stderr, "rendered 21 atoms, 21 bonds (stick r=0.15)")
	assert.Contains(t, stderr, "[ok] Successfully loaded aspirin")
	assert.NotContains(t, stderr, "[error]")
}

func TestSearch_JSONWithStyle(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("-o", "json", "search", "aspirin", "--style", "spacefill")
	require.NoError(t, err)

	var view compoundView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "aspirin", view.DisplayName)
	assert.Equal(t, "2244", view.Info.CID)
	assert.Equal(t, "sphere scale=0.40", view.Style)
	assert.Equal(t, 21, view.Atoms)
	assert.Empty(t, view.Export)
}

func TestSearch_TableOutput(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("-o", "table", "search", "caffeine")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2519")
	assert.Contains(t, stdout, "caffeine")
}

func TestSearch_MultiWordQuery(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("-o", "json", "search", "acetylsalicylic", "acid")
	require.NoError(t, err)

	var view compoundView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "2244", view.Info.CID)
}

func TestSearch_ExportAndShare(t *testing.T) {
	env := newCLIEnv(t)

	stdout, stderr, err := env.run("-o", "json", "search", "aspirin", "--export", "--share-base", "https://example.test/view")
	require.NoError(t, err)

	var view compoundView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.NotEmpty(t, view.Export)
	assert.Equal(t, "https://example.test/view?search=aspirin", view.ShareLink)
	assert.Contains(t, stderr, "[ok] SDF file downloaded")

	data, err := os.ReadFile(filepath.Join(env.exportDir, "aspirin.sdf"))
	require.NoError(t, err)
	assert.Equal(t, testutil.Aspirin().SDF3D, string(data))
}

func TestSearch_NotFound(t *testing.T) {
	env := newCLIEnv(t)

	stdout, stderr, err := env.run("search", "unobtainium")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCompoundNotFound))
	assert.Empty(t, stdout)
	assert.Equal(t, 1, strings.Count(stderr, "[error]"))
}

func TestSearch_UnknownStyleFailsBeforeLookup(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("search", "aspirin", "--style", "cartoon")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
	assert.Equal(t, 0, env.fake.Hits(testutil.FakeCIDs))
}

func TestSearch_RequiresQuery(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("search")
	assert.Error(t, err)
}

func TestRandom(t *testing.T) {
	env := newCLIEnv(t)
	for i, name := range compound.DefaultSamples.Names() {
		env.fake.Add(testutil.FakeCompound{
			CID:      int64(90000 + i),
			Names:    []string{name},
			IUPAC:    name,
			Formula:  "C1",
			Weight:   "12.01",
			Synonyms: []string{name},
			SDF3D:    testutil.SampleSDF(name, 3, 2),
		})
	}

	stdout, _, err := env.run("-o", "json", "random")
	require.NoError(t, err)

	var view compoundView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Contains(t, compound.DefaultSamples.Names(), view.Query)
	assert.NotEmpty(t, view.Info.CID)
}

// ---------------------------------------------------------------------------
// suggest, styles, version
// ---------------------------------------------------------------------------

func TestSuggest_Table(t *testing.T) {
	stdout, _, err := newCLIEnv(t).run("-o", "table", "suggest", "caf")
	require.NoError(t, err)
	assert.Contains(t, stdout, "caffeine")
	assert.Contains(t, stdout, "direct")
}

func TestSuggest_Text(t *testing.T) {
	stdout, _, err := newCLIEnv(t).run("suggest", "caf")
	require.NoError(t, err)
	assert.Equal(t, "caffeine\n", stdout)
}

func TestSuggest_ShortInputIsEmptyList(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("-o", "json", "suggest", "c")
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"c","suggestions":[]}`, stdout)

	stdout, _, err = env.run("suggest", "c")
	require.NoError(t, err)
	assert.Equal(t, "No suggestions for \"c\"\n", stdout)
	assert.Equal(t, 0, env.fake.Hits(testutil.FakeCIDs))
}

func TestStyles(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("styles")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* stick")
	assert.Contains(t, stdout, "sphere scale=0.40")
	assert.Contains(t, stdout, "O   #ff0000")
	assert.Contains(t, stdout, "other #cccccc")

	stdout, _, err = env.run("-o", "json", "styles")
	require.NoError(t, err)
	var list styleList
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	assert.Equal(t, "stick", string(list.Default))
	assert.Len(t, list.Styles, 4)
	assert.Equal(t, "#f8fafc", list.Background)
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCLI("version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "molexplorer dev (commit: unknown"), stdout)

	stdout, _, err = runCLI("-o", "json", "version")
	require.NoError(t, err)
	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

// ---------------------------------------------------------------------------
// terminal adapters
// ---------------------------------------------------------------------------

func TestSDFCounts(t *testing.T) {
	tests := []struct {
		name         string
		record       string
		atoms, bonds int
		wantErr      bool
	}{
		{name: "sample", record: testutil.SampleSDF("x", 21, 21), atoms: 21, bonds: 21},
		{name: "three digit", record: testutil.SampleSDF("x", 120, 131), atoms: 120, bonds: 131},
		{name: "crlf", record: "x\r\n  prog\r\n\r\n  5  4  0  0  0  0  0  0  0  0999 V2000\r\n", atoms: 5, bonds: 4},
		{name: "too few lines", record: "x\n\n", wantErr: true},
		{name: "short counts", record: "x\n\n\n 5\n", wantErr: true},
		{name: "not numeric", record: "x\n\n\nabcdef\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atoms, bonds, err := sdfCounts(tt.record)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.atoms, atoms)
			assert.Equal(t, tt.bonds, bonds)
		})
	}
}

func TestTerminalViewer(t *testing.T) {
	var buf bytes.Buffer
	v := newTerminalViewer(&buf)

	require.NoError(t, v.Render())
	assert.Empty(t, buf.String(), "nothing loaded, nothing drawn")

	assert.Error(t, v.AddModel("x", "pdb"))
	require.NoError(t, v.AddModel(testutil.SampleSDF("x", 3, 2), "sdf"))
	require.NoError(t, v.Render())
	assert.Equal(t, "rendered 3 atoms, 2 bonds (stick r=0.15)\n", buf.String())

	v.Clear()
	assert.Zero(t, v.atoms)
	assert.False(t, v.loaded)
}

func TestTerminalDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := newTerminalDisplay(&buf)

	assert.Equal(t, compound.Placeholder, d.Info().CID)
	d.SetStatus("Searching PubChem...")
	d.Notify(explorer.Toast{Severity: explorer.SeveritySuccess, Message: "loaded"})
	d.Notify(explorer.Toast{Severity: explorer.SeverityWarning, Message: "no 3D"})
	d.Notify(explorer.Toast{Severity: explorer.SeverityError, Message: "failed"})
	d.Notify(explorer.Toast{Severity: explorer.SeverityInfo, Message: "cleared"})

	assert.Equal(t, "Searching PubChem...\n[ok] loaded\n[warn] no 3D\n[error] failed\n[info] cleared\n", buf.String())
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var servingRE = regexp.MustCompile(`Serving on (http://\S+)`)

func TestServe_GracefulStop(t *testing.T) {
	env := newCLIEnv(t)
	cfg, err := config.Load(env.config)
	require.NoError(t, err)

	cliCtx := &CLIContext{Config: cfg, Logger: logging.NewNopLogger(), OutputFormat: OutputText}
	defer cliCtx.close()

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, cliCtx))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cmd, "127.0.0.1:0") }()

	var base string
	require.Eventually(t, func() bool {
		m := servingRE.FindStringSubmatch(out.String())
		if m == nil {
			return false
		}
		base = m[1]
		return true
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
