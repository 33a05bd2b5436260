package news

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tweetnorm/pkg/utils"
)

// Output naming for reduced files.
const (
	LightweightSuffix = "_lightweight"
	OutputExt         = ".json"
)

// Target pairs an input file with the reduced file it produces.
type Target struct {
	Input  string
	Output string
}

// Targets plans the reduction of path. A file maps to
// <name>_lightweight.json next to it; a directory maps every non-hidden
// regular file to the same name inside the sibling <dir>_lightweight.
func Targets(path string) ([]Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []Target{{Input: path, Output: utils.DerivedPath(path, LightweightSuffix, OutputExt)}}, nil
	}

	dir := strings.TrimRight(path, string(filepath.Separator))
	outDir := dir + LightweightSuffix

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var targets []Target

	for _, e := range entries {
		if e.IsDir() || utils.IsHidden(e.Name()) {
			continue
		}

		targets = append(targets, Target{
			Input:  filepath.Join(dir, e.Name()),
			Output: filepath.Join(outDir, e.Name()),
		})
	}

	return targets, nil
}

// ReduceAndSave reduces a processed file, or every file of a folder. Every
// output is checked before any input is read; an existing output aborts the
// whole run with utils.ErrOutputExists. A failed run removes every output it
// wrote, so it can be repeated once the input is fixed.
func (f *Filter) ReduceAndSave(path string) ([]Target, Stats, error) {
	var total Stats

	targets, err := Targets(path)
	if err != nil {
		return nil, total, err
	}

	outputs := make([]string, len(targets))
	for i, t := range targets {
		outputs[i] = t.Output
	}

	if err := utils.EnsureAbsent(outputs...); err != nil {
		return nil, total, err
	}

	for i, t := range targets {
		stats, err := f.ReduceFile(t.Input, t.Output)
		total.Read += stats.Read
		total.Kept += stats.Kept

		if err != nil {
			f.removeOutputs(targets[:i])

			return nil, total, err
		}

		f.logger.Debug("reduced file", "input", t.Input, "output", t.Output, "read", stats.Read, "kept", stats.Kept)
	}

	return targets, total, nil
}

// ReduceFile reduces one file. The output is created exclusively, so an
// existing file is never overwritten, and removed again when the reduction
// fails.
func (f *Filter) ReduceFile(input, output string) (stats Stats, err error) {
	in, err := os.Open(input)
	if err != nil {
		return stats, fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.OpenFile(output, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		return stats, fmt.Errorf("%w: %s", utils.ErrOutputExists, output)
	}

	if err != nil {
		return stats, fmt.Errorf("failed to create %s: %w", output, err)
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", output, closeErr)
		}

		if err != nil {
			f.removeOutputs([]Target{{Input: input, Output: output}})
		}
	}()

	w := bufio.NewWriter(out)

	stats, err = f.Reduce(in, w)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", input, err)
	}

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write %s: %w", output, err)
	}

	return stats, nil
}

func (f *Filter) removeOutputs(targets []Target) {
	for _, t := range targets {
		if err := os.Remove(t.Output); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("failed to remove partial output", "path", t.Output, "error", err)
		}
	}
}
