package feed

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// TailSource follows a growing CSV file. Rows already in the file are fed first,
// then every complete line appended later. Feed returns nil when ctx is done.
type TailSource struct {
	*CSVSource
}

// OpenTail reads the header of path and prepares to follow it.
func OpenTail(path string) (*TailSource, error) {
	src, err := OpenCSV(path)
	if err != nil {
		return nil, err
	}
	return &TailSource{CSVSource: src}, nil
}

// Feed implements Source.
func (s *TailSource) Feed(ctx context.Context, emit EmitFunc) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(s.path); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}

	lines := &lineReader{r: bufio.NewReader(f), skip: 1}
	drain := func() error {
		for {
			line, ok, err := lines.next()
			if err != nil || !ok {
				return err
			}
			row, err := csv.NewReader(strings.NewReader(line)).Read()
			if err != nil {
				return fmt.Errorf("parse line %q: %w", line, err)
			}
			if err := emit(s.fields(row)); err != nil {
				return err
			}
		}
	}

	if err := drain(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				return fmt.Errorf("%s was removed while following it", s.path)
			}
			if event.Has(fsnotify.Write) {
				if err := drain(); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", s.path, err)
		}
	}
}

// lineReader yields complete, non-blank lines and holds back a trailing partial line.
type lineReader struct {
	r       *bufio.Reader
	pending strings.Builder
	skip    int
}

// next returns the next complete line, or ok=false when only a partial line is buffered.
func (lr *lineReader) next() (string, bool, error) {
	for {
		chunk, err := lr.r.ReadString('\n')
		lr.pending.WriteString(chunk)
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}

		line := strings.TrimRight(lr.pending.String(), "\r\n")
		lr.pending.Reset()
		if lr.skip > 0 {
			lr.skip--
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, true, nil
	}
}
