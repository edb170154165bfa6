package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbtup/internal/crawler"
	"sbtup/internal/depmap"
	"sbtup/internal/extractor"
	"sbtup/internal/git"
	"sbtup/internal/index"
	"sbtup/internal/registry"
	"sbtup/internal/storage"
	"sbtup/internal/version"
)

const buildSbt = `ThisBuild / scalaVersion := "3.3.1"

val zioVersion = "2.0.0"

libraryDependencies ++= Seq(
  "dev.zio" %% "zio" % zioVersion,
  "dev.zio" %% "zio-test" % zioVersion % Test,
  "org.postgresql" % "postgresql" % "42.5.1"
)
`

const depsScala = `object Deps {
  val circe = "0.14.1"
}
`

const pluginsSbt = `addSbtPlugin("io.circe" %% "circe-core" % Deps.circe)
`

type fakeVersions map[depmap.Key][]string

func (f fakeVersions) VersionsForAll(_ context.Context, keys []depmap.Key, _ *version.Version) (map[depmap.Key][]version.Version, error) {
	out := make(map[depmap.Key][]version.Version)
	for _, k := range keys {
		for _, raw := range f[k] {
			out[k] = append(out[k], version.Parse(raw))
		}
	}
	return out, nil
}

var (
	zio      = depmap.Key{Organization: "dev.zio", Artifact: "zio"}
	zioTest  = depmap.Key{Organization: "dev.zio", Artifact: "zio-test"}
	postgres = depmap.Key{Organization: "org.postgresql", Artifact: "postgresql"}
	circe    = depmap.Key{Organization: "io.circe", Artifact: "circe-core"}
	scala3   = depmap.Key{Organization: extractor.LanguageOrganization, Artifact: extractor.Scala3Library}
)

func available() fakeVersions {
	return fakeVersions{
		zio:      {"2.0.0", "2.0.5", "2.1.0", "3.0.0"},
		zioTest:  {"2.0.0", "2.0.5", "2.1.0", "3.0.0"},
		postgres: {"42.5.1", "42.7.3"},
		circe:    {"0.14.1", "0.14.6", "0.15.0-M1"},
		scala3:   {"3.3.1"},
	}
}

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"build.sbt":           buildSbt,
		"project/plugins.sbt": pluginsSbt,
		"project/Deps.scala":  depsScala,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func noChanges(context.Context, string) ([]git.ChangedFile, error) { return nil, nil }

func newPipeline(t *testing.T, versions VersionSource, opts Options) *Pipeline {
	t.Helper()
	ext, err := extractor.NewExtractor("sbt")
	require.NoError(t, err)
	opts.Indexer = index.NewIndexer(crawler.NewCrawler(ext, crawler.Options{}))
	opts.Versions = versions
	if opts.Changes == nil {
		opts.Changes = noChanges
	}
	return New(opts)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_Check(t *testing.T) {
	root := writeProject(t)
	var out bytes.Buffer
	p := newPipeline(t, available(), Options{Out: &out})

	res, err := p.Check(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Snapshot.Map.Len())
	var keys []depmap.Key
	for _, e := range res.Entries.WithUpdates() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []depmap.Key{zio, zioTest, circe, postgres}, keys)

	e, _ := res.Entries.Get(circe)
	assert.Equal(t, "0.14.6", e.Options.Patch.Raw())
	assert.Equal(t, "0.15.0-M1", e.Options.PreRelease.Raw())
	assert.Contains(t, out.String(), "dependencies have updates")

	require.NotNil(t, res.Report)
	fetch, ok := res.Report.Stage("fetch")
	require.True(t, ok)
	assert.Equal(t, float64(5), fetch.Counters["requested"])
	assert.Empty(t, res.Report.Signals)
}

func TestPipeline_Update_Auto(t *testing.T) {
	root := writeProject(t)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	p := newPipeline(t, available(), Options{History: store})
	res, err := p.Update(context.Background(), UpdateRequest{Root: root, Tier: TierAuto})
	require.NoError(t, err)

	// zio and zio-test share the constant; both pick 3.0.0 so one edit lands there.
	assert.Empty(t, res.Plan.Conflicts)
	assert.Equal(t, 3, res.Plan.ChangeCount())
	assert.Equal(t, 3, res.Write.Applied)
	assert.NotZero(t, res.RunID)

	assert.Equal(t, strings.NewReplacer(`"2.0.0"`, `"3.0.0"`, `"42.5.1"`, `"42.7.3"`).Replace(buildSbt),
		readFile(t, filepath.Join(root, "build.sbt")))
	assert.Equal(t, strings.Replace(depsScala, `"0.14.1"`, `"0.14.6"`, 1),
		readFile(t, filepath.Join(root, "project", "Deps.scala")))
	assert.Equal(t, pluginsSbt, readFile(t, filepath.Join(root, "project", "plugins.sbt")))

	history, err := store.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	var stages []string
	for _, st := range res.Report.Stages {
		stages = append(stages, st.Name)
	}
	assert.Equal(t, []string{"scan", "fetch", "options", "plan", "guard", "write"}, stages)
	write, _ := res.Report.Stage("write")
	assert.Equal(t, float64(3), write.Counters["applied"])
}

func TestPipeline_Update_TierAndOnly(t *testing.T) {
	root := writeProject(t)
	p := newPipeline(t, available(), Options{})

	res, err := p.Update(context.Background(), UpdateRequest{
		Root: root,
		Tier: "minor",
		Only: []depmap.Key{zio, circe},
	})
	require.NoError(t, err)

	// circe offers only patch and pre-release updates, so only zio moves.
	require.Equal(t, 1, res.Plan.ChangeCount())
	assert.Equal(t, zio, res.Plan.Files[0].Changes[0].Key)
	assert.Equal(t, strings.Replace(buildSbt, `"2.0.0"`, `"2.1.0"`, 1),
		readFile(t, filepath.Join(root, "build.sbt")))
	assert.Equal(t, depsScala, readFile(t, filepath.Join(root, "project", "Deps.scala")))

	circeEntry, ok := res.Check.Entries.Get(circe)
	require.True(t, ok)
	assert.False(t, circeEntry.Selected)
}

func TestPipeline_Update_DryRun(t *testing.T) {
	root := writeProject(t)
	p := newPipeline(t, available(), Options{})

	res, err := p.Update(context.Background(), UpdateRequest{Root: root, DryRun: true})
	require.NoError(t, err)
	assert.False(t, res.Plan.IsEmpty())
	assert.Empty(t, res.Write.Written)
	assert.Equal(t, buildSbt, readFile(t, filepath.Join(root, "build.sbt")))
	write, ok := res.Report.Stage("write")
	require.True(t, ok)
	assert.Equal(t, "skipped", write.Status)
}

func TestPipeline_Update_RequireClean(t *testing.T) {
	root := writeProject(t)
	dirty := func(context.Context, string) ([]git.ChangedFile, error) {
		return []git.ChangedFile{{Path: filepath.Join(root, "build.sbt"), ChangedLines: []int{3}}}, nil
	}
	p := newPipeline(t, available(), Options{Changes: dirty})

	res, err := p.Update(context.Background(), UpdateRequest{Root: root, RequireClean: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirty))
	require.NotNil(t, res.Impact)
	require.Len(t, res.Impact.TouchedChanges, 1)
	assert.Equal(t, 3, res.Impact.TouchedChanges[0].Line)
	assert.Equal(t, buildSbt, readFile(t, filepath.Join(root, "build.sbt")))

	// Without the flag the run proceeds.
	_, err = p.Update(context.Background(), UpdateRequest{Root: root})
	require.NoError(t, err)
	assert.NotEqual(t, buildSbt, readFile(t, filepath.Join(root, "build.sbt")))
}

func TestPipeline_Update_NoGit(t *testing.T) {
	root := writeProject(t)
	failing := func(context.Context, string) ([]git.ChangedFile, error) {
		return nil, errors.New("not a git repository")
	}
	p := newPipeline(t, available(), Options{Changes: failing})

	res, err := p.Update(context.Background(), UpdateRequest{Root: root, RequireClean: true})
	require.NoError(t, err)
	assert.Nil(t, res.Impact)
	guard, ok := res.Report.Stage("guard")
	require.True(t, ok)
	assert.Equal(t, "skipped", guard.Status)
	assert.Equal(t, []string{"not a git repository"}, guard.Notes)
}

func TestPipeline_Update_BadTier(t *testing.T) {
	p := newPipeline(t, available(), Options{})
	_, err := p.Update(context.Background(), UpdateRequest{Root: t.TempDir(), Tier: "huge"})
	assert.Error(t, err)
}

func TestPipeline_Update_NothingToDo(t *testing.T) {
	root := writeProject(t)
	var out bytes.Buffer
	p := newPipeline(t, fakeVersions{}, Options{Out: &out})

	res, err := p.Update(context.Background(), UpdateRequest{Root: root})
	require.NoError(t, err)
	assert.True(t, res.Plan.IsEmpty())
	assert.Contains(t, out.String(), "Nothing to update")
	require.Len(t, res.Report.Signals, 1)
	assert.Equal(t, "versions_unavailable", res.Report.Signals[0].Code)
	assert.Equal(t, float64(5), res.Report.Signals[0].Value)
}

func TestPipeline_WithRegistryClient(t *testing.T) {
	pages := map[string]string{
		"/dev/zio/":                         `<a href="zio_3/">zio_3/</a><a href="zio-test_3/">zio-test_3/</a>`,
		"/dev/zio/zio_3/":                   `<a href="../">../</a><a href="2.0.0/">2.0.0/</a><a href="2.0.21/">2.0.21/</a>`,
		"/dev/zio/zio-test_3/":              `<a href="2.0.0/">2.0.0/</a><a href="2.0.21/">2.0.21/</a>`,
		"/org/postgresql/":                  `<a href="postgresql/">postgresql/</a>`,
		"/org/postgresql/postgresql/":       `<a href="42.5.1/">42.5.1/</a>`,
		"/org/scala-lang/":                  `<a href="scala3-library_3/">scala3-library_3/</a>`,
		"/org/scala-lang/scala3-library_3/": `<a href="3.3.1/">3.3.1/</a><a href="3.4.0/">3.4.0/</a>`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	root := writeProject(t)
	p := newPipeline(t, registry.NewClient(server.URL), Options{})

	res, err := p.Update(context.Background(), UpdateRequest{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Write.Applied)

	got := readFile(t, filepath.Join(root, "build.sbt"))
	assert.Contains(t, got, `ThisBuild / scalaVersion := "3.4.0"`)
	assert.Contains(t, got, `val zioVersion = "2.0.21"`)
	assert.Contains(t, got, `"42.5.1"`)
}
