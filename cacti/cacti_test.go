package cacti

import "testing"

func TestParseExport(t *testing.T) {
	rows := [][]string{
		{"Title", "acme - border traffic"},
		{"Vertical Label", "bits per second"},
		{"Start Date", "2026-03-01 00:00:00"},
		{""},
		{"Date", "Inbound", "Outbound"},
		{"2026-03-01 00:00:00", "120000.5", "340000"},
		{"2026-03-01 00:05:00", "NaN", "350000"},
		{"summary row", "x"}, // short row, skipped
	}

	g, err := ParseExport(rows)
	if err != nil {
		t.Fatal(err)
	}
	if g.Title != "acme - border traffic" {
		t.Fatalf("title = %q", g.Title)
	}
	if len(g.Columns) != 3 || g.Columns[2].Label != "Outbound" {
		t.Fatalf("columns = %+v", g.Columns)
	}
	if len(g.Samples) != 2 {
		t.Fatalf("samples = %d", len(g.Samples))
	}

	s := g.Samples[0]
	if s.Time.Format("2006-01-02 15:04:05") != "2026-03-01 00:00:00" {
		t.Fatalf("sample time = %v", s.Time)
	}
	if s.Values[1] != 120000.5 || s.Values[2] != 340000 {
		t.Fatalf("sample values = %v", s.Values)
	}
	// unparsable values read as zero, matching how gaps are exported
	if g.Samples[1].Values[1] != 0 {
		t.Fatalf("NaN should decode as 0, got %v", g.Samples[1].Values[1])
	}
}

func TestParseExportErrors(t *testing.T) {
	if _, err := ParseExport(nil); err == nil {
		t.Fatal("empty export should fail")
	}
	noSep := [][]string{
		{"Title", "t"},
		{"Date", "In"},
	}
	if _, err := ParseExport(noSep); err == nil {
		t.Fatal("export without separator row should fail")
	}
}
