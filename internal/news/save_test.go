package news

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetnorm/internal/pipeline"
	"tweetnorm/pkg/utils"
)

func TestReduceAndSave_File(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "tweets_processed.json", processedLines)

	f := newTestFilter(t, defaultAttributes)

	targets, stats, err := f.ReduceAndSave(input)
	require.NoError(t, err)
	require.Len(t, targets, 1)

	want := filepath.Join(dir, "tweets_processed_lightweight.json")
	assert.Equal(t, want, targets[0].Output)
	assert.Equal(t, 2, stats.Kept)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	// A second run refuses to overwrite.
	_, _, err = f.ReduceAndSave(input)
	assert.True(t, errors.Is(err, utils.ErrOutputExists))
}

func TestReduceAndSave_Folder(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "climate")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	writeFile(t, dir, "a.json", processedLines)
	writeFile(t, dir, "b.json", processedLines)
	writeFile(t, dir, ".DS_Store", "junk")

	f := newTestFilter(t, defaultAttributes)

	targets, stats, err := f.ReduceAndSave(dir + string(filepath.Separator))
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, Stats{Read: 8, Kept: 4}, stats)

	for _, name := range []string{"a.json", "b.json"} {
		_, err := os.Stat(filepath.Join(root, "climate_lightweight", name))
		assert.NoError(t, err, name)
	}

	_, err = os.Stat(filepath.Join(root, "climate_lightweight", ".DS_Store"))
	assert.True(t, os.IsNotExist(err), "hidden files are skipped")
}

func TestReduceAndSave_FolderChecksAllTargetsFirst(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "climate")
	outDir := filepath.Join(root, "climate_lightweight")

	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.MkdirAll(outDir, 0755))

	writeFile(t, dir, "a.json", processedLines)
	writeFile(t, dir, "b.json", processedLines)
	writeFile(t, outDir, "b.json", "already reduced\n")

	f := newTestFilter(t, defaultAttributes)

	_, _, err := f.ReduceAndSave(dir)
	require.True(t, errors.Is(err, utils.ErrOutputExists))

	_, err = os.Stat(filepath.Join(outDir, "a.json"))
	assert.True(t, os.IsNotExist(err), "no file is written when any target exists")

	data, err := os.ReadFile(filepath.Join(outDir, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, "already reduced\n", string(data))
}

func TestReduceFile_Exclusive(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.json", processedLines)
	output := writeFile(t, dir, "out.json", "keep me\n")

	f := newTestFilter(t, defaultAttributes)

	_, err := f.ReduceFile(input, output)
	assert.True(t, errors.Is(err, utils.ErrOutputExists))
}

func TestReduceAndSave_RemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "x_processed.json", processedLines+"not json\n")
	output := filepath.Join(dir, "x_processed_lightweight.json")

	f := newTestFilter(t, defaultAttributes)

	_, _, err := f.ReduceAndSave(input)
	require.True(t, errors.Is(err, pipeline.ErrMalformedLine))

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))

	// Once the input is fixed the run can be repeated.
	writeFile(t, dir, "x_processed.json", processedLines)

	_, stats, err := f.ReduceAndSave(input)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Kept)
}

func TestReduceAndSave_FolderRemovesEarlierOutputs(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "climate")
	outDir := filepath.Join(root, "climate_lightweight")
	require.NoError(t, os.MkdirAll(dir, 0755))

	writeFile(t, dir, "a.json", processedLines)
	writeFile(t, dir, "b.json", "not json\n")

	f := newTestFilter(t, defaultAttributes)

	_, _, err := f.ReduceAndSave(dir)
	require.Error(t, err)

	for _, name := range []string{"a.json", "b.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.True(t, os.IsNotExist(err), name)
	}

	writeFile(t, dir, "b.json", processedLines)

	targets, _, err := f.ReduceAndSave(dir)
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}
