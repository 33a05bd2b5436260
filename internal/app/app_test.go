package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetnorm/internal/config"
	"tweetnorm/internal/news"
	"tweetnorm/internal/sink"
)

func testApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Processing.TryExpand = false

	a, err := New(cfg)
	require.NoError(t, err)

	return a
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	a, err := Load("")
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 2, a.Config.Processing.SkipRows)
}

func TestNew_FileLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()

	a, err := New(cfg)
	require.NoError(t, err)

	a.Logger.Info("hello")
	require.NoError(t, a.Close())

	data, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, "tweetnorm.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestApp_Exit(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()

	a, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, a.Exit(errors.New("processing failed: boom")))

	data, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, "tweetnorm.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "processing failed: boom")

	ok, err := New(config.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, ok.Exit(nil))
}

func TestApp_Pipeline(t *testing.T) {
	a := testApp(t)
	a.Config.Processing.Dedupe = true
	a.Config.Processing.DedupeCapacity = 10

	header := `{"query":"q"}` + "\n\n"
	line := `{"id":"1","author_id":"2","created_at":"2021-01-01T00:00:00.000Z","lang":"en","text":"What a great day!","author":{"username":"u","public_metrics":{"followers_count":1,"tweet_count":2}}}`

	var out strings.Builder

	s := sink.NewNDJSON(&out)

	stats, err := a.Pipeline().Run(context.Background(), strings.NewReader(header+line+"\n"+line+"\n"), s)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Contains(t, out.String(), `"sentiment":"positive"`)
}

func TestApp_OpenSinks(t *testing.T) {
	a := testApp(t)

	sinks, err := a.OpenSinks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sinks)

	a.Config.Sinks.SQLite.Enabled = true
	a.Config.Sinks.SQLite.Path = filepath.Join(t.TempDir(), "tweets.db")

	sinks, err = a.OpenSinks(context.Background())
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	require.NoError(t, sinks.Close())
}

func TestApp_Filter(t *testing.T) {
	a := testApp(t)

	table := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, os.WriteFile(table, []byte("domain,type\nnytimes,mainstream\n"), 0644))

	f, err := a.Filter(table, nil)
	require.NoError(t, err)

	reduced, ok := f.Apply(news.Record{"domain": []byte(`["nytimes"]`), "username": []byte(`"a"`)})
	require.True(t, ok)
	assert.Len(t, reduced, len(config.LightweightAttributes))

	_, err = a.Filter(table, []string{"nope"})
	assert.True(t, errors.Is(err, news.ErrUnknownAttribute))

	_, err = a.Filter(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}

func TestApp_Collector(t *testing.T) {
	a := testApp(t)
	a.Config.Search.CredentialsFile = filepath.Join(t.TempDir(), "none.yaml")
	a.Config.Search.EnvFile = ""

	t.Setenv(config.BearerTokenEnv, "")

	_, err := a.Collector()
	assert.True(t, errors.Is(err, config.ErrMissingBearerToken))

	t.Setenv(config.BearerTokenEnv, "token")

	c, err := a.Collector()
	require.NoError(t, err)
	assert.NotNil(t, c)
}
