package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when no file is given and the fallback reader is an
// interactive terminal.
var ErrNoInput = errors.New("no input provided; use -f or pipe JSON on stdin")

// FileReader decodes a JSON document of type T from the file named by its
// --file flag, or from a fallback reader when the flag is empty or "-".
type FileReader[T any] struct {
	path string
}

// Flag returns the --file/-f flag bound to this reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (\"-\" or empty reads stdin)",
		Destination: &fr.path,
	}
}

// Read decodes T from the flagged file, or from stdin when no file was given.
func (fr *FileReader[T]) Read(stdin io.Reader) (T, error) {
	var input T

	src := stdin
	if fr.path != "" && fr.path != "-" {
		f, err := os.Open(fr.path)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		src = f
	} else if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return input, ErrNoInput
	}

	if src == nil {
		return input, ErrNoInput
	}

	if err := json.NewDecoder(src).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}
	return input, nil
}
