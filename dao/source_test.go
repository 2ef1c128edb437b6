package dao

import (
	"testing"
	"time"
)

func TestCleanNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"6561234567", "526561234567"},       // Juarez national
		{"6141234567", "526141234567"},       // Chihuahua national
		{"5512345678", "525512345678"},       // D.F. national
		{"0441234567890", "520441234567890"}, // mobile dialing prefix
		{"0451234567890", "520451234567890"},
		{"9154002903", "19154002903"}, // El Paso area number
		{"9191234567", "19191234567"},
		{"9561234567", "19561234567"},
		{"0019154002903", "19154002903"}, // international dialing prefix
		{"19154002903", "19154002903"},   // already canonical
		{"442071234567", "442071234567"}, // untouched
		{" 9154002903 ", "19154002903"},
	}
	for _, c := range cases {
		if got := CleanNumber(c.in); got != c.want {
			t.Errorf("CleanNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSourceCDRClean(t *testing.T) {
	date := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	r := &SourceCDR{
		CdrID:               991,
		SrcName:             " EP-GW1 ",
		RemoteSrcSigAddress: "10.20.30.44:5060",
		InANI:               "9154002903",
		OutDNIS:             "6561234567",
		CdrDate:             date,
		ElapsedTime:         61001, // milliseconds
	}

	rec := r.Clean()
	if rec.ID != 991 || rec.Gateway != "EP-GW1" || rec.Host != "10.20.30.44" {
		t.Fatalf("got %+v", rec)
	}
	if rec.Identifier != "9154002903" {
		t.Fatalf("identifier should keep the raw ANI: %q", rec.Identifier)
	}
	if rec.Source != "19154002903" || rec.Destination != "526561234567" {
		t.Fatalf("numbers not cleaned: %+v", rec)
	}
	if !rec.CallDate.Equal(date) {
		t.Fatalf("call date = %v", rec.CallDate)
	}
	if rec.Duration != 62 {
		t.Fatalf("duration = %d, want ceil(61001ms) = 62s", rec.Duration)
	}
}

func TestTableNames(t *testing.T) {
	if got := SourceTableName(2026, 3); got != "mvts_cdr_202603" {
		t.Fatalf("source table = %q", got)
	}
	if got := CDRTableName(2026, 11); got != "call_detail_records_202611" {
		t.Fatalf("billing table = %q", got)
	}
}
