package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	goruntime "runtime"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/testutils"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const houseSynth = `Output of the synthesis run
x, y, and z extents
2 1 2

1
0

0
2
<Objects>
house.blend
1
$Wall
#
2
$Roof
#
`

const houseScene = `objects:
  - name: Wall
    ref: mesh/wall
  - Roof
`

type fixture struct {
	app    *App
	dir    string
	synth  string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newFixture(t *testing.T, withScene bool, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	files := map[string]string{"house.synth": houseSynth}
	if withScene {
		files["house.yaml"] = houseScene
	}
	dir := testutils.TempFiles(t, files)
	synth := filepath.Join(dir, "house.synth")

	cfg := config.Default()
	cfg.SceneDir = dir
	cfg.Unit = 2
	cfg.LogLevel = "error"
	for _, m := range mutate {
		m(cfg)
	}

	f := &fixture{dir: dir, synth: synth, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	app, err := NewApp(cfg, f.stdout, f.stderr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	f.app = app
	return f
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Unit = 0
	_, err := NewApp(cfg, nil, nil)
	assert.Error(t, err)
}

func TestPlan_Stdout(t *testing.T) {
	f := newFixture(t, true)

	report, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Placed)
	assert.True(t, report.Reloaded)

	cmds, err := file.ReadJSONL(f.stdout)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "Wall", cmds[0].Object.Name)
	assert.Equal(t, "mesh/wall", cmds[0].Object.Ref)
	assert.Equal(t, [3]int{1, 0, 1}, cmds[1].Cell)
	assert.Equal(t, 2.0, cmds[1].Position.X)

	assert.Contains(t, f.stderr.String(), "2 placements to stdout")
}

func TestPlan_TextFile(t *testing.T) {
	f := newFixture(t, true)
	out := filepath.Join(f.dir, "out", "placements.txt")

	_, err := f.app.Plan(context.Background(), PlanOptions{
		Path:        f.synth,
		SinkOptions: SinkOptions{Out: out, Format: file.FormatText},
		Quiet:       true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Wall @ (0, 0, 0)\nRoof @ (2, 0, 2)\n", string(data))
	assert.Empty(t, f.stderr.String())
}

func TestPlan_NothingFound(t *testing.T) {
	f := newFixture(t, false)
	out := filepath.Join(f.dir, "placements.jsonl")

	report, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth, SinkOptions: SinkOptions{Out: out}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoObjectsFound)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Placed)

	assert.Contains(t, f.stderr.String(), `Open "house.blend" and run again`)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "aborted run must not leave output")
	leftovers, _ := filepath.Glob(filepath.Join(f.dir, "tmp-*"))
	assert.Empty(t, leftovers)
}

func TestPlan_SomeMissing(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "house.yaml"), []byte("objects:\n  - Wall\n"), 0644))

	report, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Placed)
	assert.Equal(t, []string{"Roof"}, report.Missing)
	assert.Contains(t, f.stderr.String(), "Roof not found")
}

func TestPlan_InitialScene(t *testing.T) {
	f := newFixture(t, true, func(c *config.Config) {
		c.Fallback = false
	})
	require.NoError(t, os.Rename(filepath.Join(f.dir, "house.yaml"), filepath.Join(f.dir, "base.yaml")))
	f.app.Config.Scene = "base.yaml"

	report, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth, Quiet: true})
	require.NoError(t, err)
	assert.False(t, report.Reloaded)
	assert.Equal(t, 2, report.Placed)
}

func TestPlan_InitialSceneOutsideSceneDir(t *testing.T) {
	f := newFixture(t, true, func(c *config.Config) {
		c.Fallback = false
	})
	elsewhere := filepath.Join(t.TempDir(), "base.yaml")
	require.NoError(t, os.Rename(filepath.Join(f.dir, "house.yaml"), elsewhere))
	f.app.Config.Scene = elsewhere

	report, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Placed)
}

func TestPlan_MissingInitialScene(t *testing.T) {
	f := newFixture(t, true, func(c *config.Config) {
		c.Scene = "nowhere.yaml"
	})
	_, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere.yaml")
}

func TestOpenSink_SQLite(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	dbPath := filepath.Join(f.dir, "placements.db")

	eng, err := f.app.Engine(ctx)
	require.NoError(t, err)
	doc, err := eng.ParseFile(ctx, f.synth)
	require.NoError(t, err)

	sink, err := f.app.OpenSink(ctx, SinkOptions{Spec: "sqlite:" + dbPath}, doc)
	require.NoError(t, err)
	require.NotEmpty(t, sink.RunID)

	_, err = eng.Execute(ctx, doc, sink.Instantiator)
	require.NoError(t, err)
	require.NoError(t, sink.Finish(nil))

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	placements, err := store.Placements(ctx, sink.RunID)
	require.NoError(t, err)
	require.Len(t, placements, 2)
	assert.Equal(t, "Roof", placements[1].Command.Object.Name)
}

func TestPlan_RedisQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	f := newFixture(t, true, func(c *config.Config) {
		c.Redis.Addr = mr.Addr()
	})
	ctx := context.Background()

	_, err := f.app.Plan(ctx, PlanOptions{Path: f.synth, SinkOptions: SinkOptions{Spec: "redis"}})
	require.NoError(t, err)
	assert.Contains(t, f.stderr.String(), `redis queue "house"`)

	msgs, err := f.app.Registry().Messages(ctx, "house")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Wall", msgs[0].Command.Object.Name)
	assert.Equal(t, msgs[0].RunID, msgs[1].RunID)
}

func TestOpenSink_Errors(t *testing.T) {
	f := newFixture(t, false)
	doc := &domain.Document{SceneFile: "house.blend"}

	ctx := context.Background()
	for _, spec := range []string{"kafka:topic", "sqlite:", "redis", "exec:unknown"} {
		_, err := f.app.OpenSink(ctx, SinkOptions{Spec: spec}, doc)
		assert.Error(t, err, spec)
	}
}

func TestPlan_HostProcess(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("host script uses sh")
	}
	f := newFixture(t, true)
	f.app.Config.Hosts = filepath.Join(f.dir, "hosts.yaml")
	require.NoError(t, os.WriteFile(f.app.Config.Hosts, []byte(`hosts:
  - name: counter
    command: sh
    args: ["-c", "echo \"$LATTICE_SCENE $LATTICE_EXTENTS $LATTICE_UNIT\"; wc -l | tr -d ' '"]
`), 0644))

	report, err := f.app.Plan(context.Background(), PlanOptions{Path: f.synth, SinkOptions: SinkOptions{Spec: "exec:counter"}})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Placed)
	assert.Equal(t, "house.blend 2 1 2 2\n2\n", f.stdout.String())
	assert.Contains(t, f.stderr.String(), "to host counter")
}

func TestQueueName(t *testing.T) {
	assert.Equal(t, "house", queueName(&domain.Document{SceneFile: "scenes/house.blend\r\n"}))
	assert.Equal(t, "", queueName(&domain.Document{SceneFile: "  "}))
}

func TestValidate(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.app.Validate(context.Background(), ValidateOptions{Path: f.synth, Resolve: true})
	require.NoError(t, err)
	assert.Len(t, result.Warnings(), 2, "both names are missing from the empty scene")
	assert.Contains(t, f.stdout.String(), "valid")
	assert.Contains(t, f.stdout.String(), "missing-object")
}

func TestValidate_Errors(t *testing.T) {
	f := newFixture(t, false)
	bad := strings.Replace(houseSynth, "\n0\n2\n<Objects>", "\n0\n7\n<Objects>", 1)
	require.NoError(t, os.WriteFile(f.synth, []byte(bad), 0644))

	result, err := f.app.Validate(context.Background(), ValidateOptions{Path: f.synth, JSON: true})
	require.Error(t, err)
	require.NotEmpty(t, result.Errors())
	assert.Contains(t, f.stdout.String(), `"code": "index-out-of-range"`)
}

func TestValidate_ParseError(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, os.WriteFile(f.synth, []byte("nothing here\n"), 0644))

	_, err := f.app.Validate(context.Background(), ValidateOptions{Path: f.synth})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingExtentsMarker)
}

func TestInspect(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.app.Inspect(context.Background(), InspectOptions{Path: f.synth}))
	out := f.stdout.String()
	assert.Contains(t, out, "# "+f.synth)
	assert.Contains(t, out, "All objects found.")
	assert.Contains(t, out, "| Unit | 2 |")

	f.stdout.Reset()
	require.NoError(t, f.app.Inspect(context.Background(), InspectOptions{Path: f.synth, Mermaid: true}))
	assert.True(t, strings.HasPrefix(f.stdout.String(), "graph LR\n"))
	assert.Contains(t, f.stdout.String(), "o_Wall")
}

func TestFormat(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.app.Format(ctx, FormatOptions{Path: f.synth}))
	formatted := f.stdout.String()
	assert.Contains(t, formatted, "x, y, and z extents\n2 1 2\n")

	require.NoError(t, f.app.Format(ctx, FormatOptions{Path: f.synth, Write: true}))
	data, err := os.ReadFile(f.synth)
	require.NoError(t, err)
	assert.Equal(t, formatted, string(data))
}

func TestNewServer_Metrics(t *testing.T) {
	f := newFixture(t, true)

	srv, err := f.app.NewServer(context.Background())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/plan", "text/plain", strings.NewReader(houseSynth))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "lattice_")
	assert.Contains(t, body.String(), "go_goroutines")
}

func TestNewServer_WithoutMetrics(t *testing.T) {
	f := newFixture(t, true, func(c *config.Config) { c.Metrics = false })

	srv, err := f.app.NewServer(context.Background())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMCP_UnknownTransport(t *testing.T) {
	f := newFixture(t, false)
	err := f.app.ServeMCP(context.Background(), MCPOptions{Transport: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown transport")
}

func TestServe_StopsOnCancel(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.app.Serve(ctx, "127.0.0.1:0"))
}
