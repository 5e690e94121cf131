// Package trialdata loads trial category sequences from data files.
//
// The format is chosen by file extension. Each file holds one or more named
// arrays; the variable name selects the array holding the trial codes.
package trialdata

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sarchlab/trialgrid/phasegrid"
)

// DefaultVariable is the name of the trial type array.
const DefaultVariable = "trial_types"

var (
	// ErrUnsupportedFormat is returned for files without a registered loader.
	ErrUnsupportedFormat = errors.New("unsupported trial data format")

	// ErrMalformed is returned when a file cannot be decoded or holds values
	// that are not integer category codes.
	ErrMalformed = errors.New("malformed trial data")

	// ErrVariableNotFound is returned when the file has no array with the
	// requested name.
	ErrVariableNotFound = errors.New("variable not found")
)

// A Loader reads the named array of category codes from a file.
type Loader interface {
	Load(path, variable string) (phasegrid.Sequence, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path, variable string) (phasegrid.Sequence, error)

// Load calls f.
func (f LoaderFunc) Load(path, variable string) (phasegrid.Sequence, error) {
	return f(path, variable)
}

// decodeFunc decodes the named array from an open file.
type decodeFunc func(r io.Reader, variable string) ([]float64, error)

// fromReader turns a decoder into a Loader that opens the file itself.
func fromReader(decode decodeFunc) Loader {
	return LoaderFunc(func(path, variable string) (phasegrid.Sequence, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		values, err := decode(f, variable)
		if err != nil {
			return nil, err
		}

		return ToSequence(values)
	})
}

var loaders = map[string]Loader{}

// Register installs the loader for a file extension, such as ".mat". Later
// registrations replace earlier ones.
func Register(ext string, l Loader) {
	loaders[strings.ToLower(ext)] = l
}

// Formats returns the registered extensions in sorted order.
func Formats() []string {
	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}

	sort.Strings(exts)

	return exts
}

// ForPath returns the loader registered for the extension of path.
func ForPath(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	l, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)",
			ErrUnsupportedFormat, ext, strings.Join(Formats(), ", "))
	}

	return l, nil
}

// Load reads the named array from the file at path.
func Load(path, variable string) (phasegrid.Sequence, error) {
	if variable == "" {
		variable = DefaultVariable
	}

	l, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	seq, err := l.Load(path, variable)
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", variable, path, err)
	}

	return seq, nil
}

// ToSequence converts numeric values into category codes. Every value must
// be a whole number.
func ToSequence(values []float64) (phasegrid.Sequence, error) {
	seq := make(phasegrid.Sequence, len(values))

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: value %g at index %d is not an integer",
				ErrMalformed, v, i)
		}

		if v > math.MaxInt32 || v < math.MinInt32 {
			return nil, fmt.Errorf("%w: value %g at index %d is out of range",
				ErrMalformed, v, i)
		}

		seq[i] = int(v)
	}

	return seq, nil
}

func init() {
	Register(".mat", fromReader(decodeMAT))
	Register(".csv", fromReader(decodeCSV))
	Register(".json", fromReader(decodeJSON))
	Register(".yaml", fromReader(decodeYAML))
	Register(".yml", fromReader(decodeYAML))
	Register(".sqlite", LoaderFunc(loadSQLite))
	Register(".sqlite3", LoaderFunc(loadSQLite))
	Register(".db", LoaderFunc(loadSQLite))
}
