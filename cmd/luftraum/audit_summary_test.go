package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"luftraum/internal/audit"
)

const (
	pos3 = "MSG,3,1,1,4CA1C2,1,2024/01/01,12:00:00.000,2024/01/01,12:00:00.000,,35000,,,53.5500,9.9900,,,,,,0"
	vel4 = "MSG,4,1,1,4CA1C2,1,2024/01/01,12:00:01.000,2024/01/01,12:00:01.000,,,450,270,,,-64,,,,,0"
	id5  = "MSG,5,1,1,3C6DD5,1,2024/01/01,12:00:02.000,2024/01/01,12:00:02.000,DLH4AB,,,,,,,,,,,0"
)

func TestSummarizeAudit(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	recs := []audit.Record{
		{At: t0, Source: "local", Raw: pos3},
		{At: t0.Add(time.Second), Source: "local", Raw: vel4},
		{At: t0.Add(2 * time.Second), Source: "adsb/feed", Raw: id5},
		{At: t0.Add(3 * time.Second), Source: "adsb/feed", Raw: "MSG,3,1"},
	}

	s := summarizeAudit(recs)
	if s.Records != 4 {
		t.Fatalf("records=%d want 4", s.Records)
	}
	if s.Decoded != 3 {
		t.Fatalf("decoded=%d want 3", s.Decoded)
	}
	if len(s.Addresses) != 2 {
		t.Fatalf("addresses=%d want 2", len(s.Addresses))
	}
	if s.Sources["local"] != 2 || s.Sources["adsb/feed"] != 2 {
		t.Fatalf("sources=%v", s.Sources)
	}
	if s.TxCounts[3] != 1 || s.TxCounts[4] != 1 || s.TxCounts[5] != 1 {
		t.Fatalf("tx counts=%v", s.TxCounts)
	}
	if s.Rejects["field_count"] != 1 {
		t.Fatalf("rejects=%v", s.Rejects)
	}
	if got := s.Last.Sub(s.First); got != 3*time.Second {
		t.Fatalf("span=%s want 3s", got)
	}
}

func TestPrintAuditSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_messages.log")
	body := strings.Join([]string{
		"1700000000,local," + pos3,
		"1700000001,local," + vel4,
		"",
		"1700000005,local,garbage",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var out bytes.Buffer
	if err := printAuditSummary(&out, path); err != nil {
		t.Fatalf("printAuditSummary: %v", err)
	}
	for _, want := range []string{
		"records: 3\n",
		"decoded: 2\n",
		"aircraft: 1\n",
		"span: 5s\n",
		"  local: 3\n",
		"  3: 1\n",
		"  4: 1\n",
		"rejected:\n",
		"  field_count: 1\n",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestPrintAuditSummary_Errors(t *testing.T) {
	var out bytes.Buffer
	if err := printAuditSummary(&out, "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := printAuditSummary(&out, filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
