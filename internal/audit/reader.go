package audit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

type Record struct {
	At     time.Time
	Source string
	Raw    string
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Each calls fn for every record in order. Blank lines and lines starting
// with '#' are skipped.
func (rr *Reader) Each(fn func(Record) error) error {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for s.Scan() {
		n++
		line := strings.TrimRight(s.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return s.Err()
}

func (rr *Reader) ReadAll() ([]Record, error) {
	recs := make([]Record, 0, 1024)
	err := rr.Each(func(r Record) error {
		recs = append(recs, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// ParseLine parses one audit line.
func ParseLine(line string) (Record, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 {
		return Record{}, fmt.Errorf("invalid audit line (want ts,source,raw): %q", line)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid audit timestamp %q: %w", parts[0], err)
	}
	if ts < 0 {
		return Record{}, fmt.Errorf("invalid audit timestamp (negative): %d", ts)
	}
	return Record{At: time.Unix(ts, 0).UTC(), Source: parts[1], Raw: parts[2]}, nil
}
