package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sobulik/fundec/types"
)

// File reads whitespace-separated integers from a file on every Load.
type File struct {
	path string
}

var _ types.WorkloadSource = (*File)(nil)

// NewFile creates a source backed by the file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Load parses the file. Reading stops at the first token that is not an integer,
// so trailing garbage is ignored while a malformed leading token yields an error.
//
// Returns:
//   - []int: Parsed items
//   - error: wraps os.ErrNotExist when the file is missing
func (f *File) Load(ctx context.Context) ([]int, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open workload: %w", err)
	}
	defer fh.Close()

	sc := bufio.NewScanner(fh)
	sc.Split(bufio.ScanWords)

	var items []int
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			if len(items) == 0 {
				return nil, fmt.Errorf("parse workload %s: %w", f.path, err)
			}

			break
		}
		items = append(items, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read workload %s: %w", f.path, err)
	}

	return items, nil
}
