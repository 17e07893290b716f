package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"luftraum/internal/audit"
	"luftraum/internal/sbs"
)

type auditSummary struct {
	Records   int
	Decoded   int
	First     time.Time
	Last      time.Time
	Sources   map[string]int
	TxCounts  map[int]int
	Rejects   map[string]int
	Addresses map[string]struct{}
}

func summarizeAudit(records []audit.Record) auditSummary {
	s := auditSummary{
		Sources:   map[string]int{},
		TxCounts:  map[int]int{},
		Rejects:   map[string]int{},
		Addresses: map[string]struct{}{},
	}
	for _, r := range records {
		s.Records++
		if s.First.IsZero() || r.At.Before(s.First) {
			s.First = r.At
		}
		if r.At.After(s.Last) {
			s.Last = r.At
		}
		s.Sources[r.Source]++

		m, err := sbs.Decode(r.Raw)
		if err != nil {
			s.Rejects[sbs.Reason(err)]++
			continue
		}
		s.Decoded++
		s.TxCounts[m.TransmissionType]++
		s.Addresses[m.Address] = struct{}{}
	}
	return s
}

func printAuditSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := audit.NewReader(f).ReadAll()
	if err != nil {
		return err
	}
	s := summarizeAudit(recs)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "records: %d\n", s.Records)
	fmt.Fprintf(w, "decoded: %d\n", s.Decoded)
	fmt.Fprintf(w, "aircraft: %d\n", len(s.Addresses))
	if s.Records > 0 {
		fmt.Fprintf(w, "first: %s\n", s.First.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "last: %s\n", s.Last.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "span: %s\n", s.Last.Sub(s.First))
	}

	fmt.Fprintf(w, "sources:\n")
	for _, k := range sortedKeys(s.Sources) {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Sources[k])
	}

	tx := make([]int, 0, len(s.TxCounts))
	for k := range s.TxCounts {
		tx = append(tx, k)
	}
	sort.Ints(tx)
	fmt.Fprintf(w, "transmission_types:\n")
	for _, k := range tx {
		fmt.Fprintf(w, "  %d: %d\n", k, s.TxCounts[k])
	}

	if len(s.Rejects) > 0 {
		fmt.Fprintf(w, "rejected:\n")
		for _, k := range sortedKeys(s.Rejects) {
			fmt.Fprintf(w, "  %s: %d\n", k, s.Rejects[k])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
