package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/toejough/go-reorder"
)

// Exported variables.
var (
	ErrStaleBindings = errors.New("generated bindings are out of date")
)

// Reader interface for reading previously generated code.
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

// Writer interface for writing generated code.
type Writer interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Check compares the generated files with what is already on disk under dir.
// Every stale or missing file gets a unified diff on out, and the result wraps ErrStaleBindings.
func Check(files map[string]string, dir string, fileReader Reader, out io.Writer) error {
	var stale []string

	for _, name := range sortedNames(files) {
		path := filepath.Join(dir, name)
		want := reordered(name, files[name], out)

		current, err := fileReader.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading %s: %w", path, err)
		}

		if string(current) == want {
			continue
		}

		stale = append(stale, path)
		_, _ = fmt.Fprint(out, textdiff.Unified(path+" (current)", path+" (generated)", string(current), want))
	}

	if len(stale) > 0 {
		return fmt.Errorf("%w: %s", ErrStaleBindings, strings.Join(stale, ", "))
	}

	_, _ = fmt.Fprintf(out, "%d files up to date.\n", len(files))

	return nil
}

// Write reorders each generated file according to project conventions and writes it under dir.
func Write(files map[string]string, dir string, fileWriter Writer, out io.Writer) error {
	const generatedFilePermissions = 0o600

	for _, name := range sortedNames(files) {
		path := filepath.Join(dir, name)

		err := fileWriter.WriteFile(path, []byte(reordered(name, files[name], out)), generatedFilePermissions)
		if err != nil {
			return fmt.Errorf("error writing %s: %w", path, err)
		}

		_, _ = fmt.Fprintf(out, "%s written successfully.\n", path)
	}

	return nil
}

// reordered returns code with its declarations reordered, or code itself when reordering fails.
func reordered(name, code string, out io.Writer) string {
	result, err := reorder.Source(code)
	if err != nil {
		_, _ = fmt.Fprintf(out, "Warning: failed to reorder %s: %v\n", name, err)

		return code
	}

	return result
}

func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
