package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTort() Tort {
	return Tort{
		Version: APIVersion,
		ID:      "tort-001",
		UndisputedFacts: []UndisputedFact{
			{ID: "f1", Description: "原告は被告の店舗で転倒した。"},
		},
		PlaintiffClaims: []PlaintiffClaim{
			{ID: "p1", Description: "床が濡れていた", IsAccepted: Bool(true)},
		},
		DefendantClaims: []DefendantClaim{
			{ID: "d1", Description: "注意書きを掲示していた", IsAccepted: Bool(false)},
		},
		CourtDecision: Bool(true),
	}
}

func TestTort_JSONRoundTrip(t *testing.T) {
	want := sampleTort()

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Tort
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTort_SourceRecordOmitsDecisions(t *testing.T) {
	src := Tort{
		Version:         APIVersion,
		ID:              "tort-002",
		PlaintiffClaims: []PlaintiffClaim{{ID: "p1", Description: "x"}},
		DefendantClaims: []DefendantClaim{{ID: "d1", Description: "y"}},
	}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "court_decision") || strings.Contains(s, "is_accepted") {
		t.Errorf("Expected undecided fields to be omitted, got %s", s)
	}
}

func TestParseTorts_SkipsBlankLines(t *testing.T) {
	input := `{"version":"1.0.0","id":"a","undisputed_facts":[],"plaintiff_claims":[],"defendant_claims":[]}

{"version":"1.0.0","id":"b","undisputed_facts":[],"plaintiff_claims":[{"id":"p1","description":"x"}],"defendant_claims":[]}
`
	torts, err := ParseTorts([]byte(input))
	if err != nil {
		t.Fatalf("ParseTorts: %v", err)
	}
	if len(torts) != 2 {
		t.Fatalf("Expected 2 torts, got %d", len(torts))
	}
	if torts[1].PlaintiffClaims[0].IsAccepted != nil {
		t.Error("Expected source claim to have no decision")
	}
}

func TestParseTorts_Empty(t *testing.T) {
	torts, err := ParseTorts(nil)
	if err != nil {
		t.Fatalf("ParseTorts: %v", err)
	}
	if len(torts) != 0 {
		t.Errorf("Expected no torts, got %d", len(torts))
	}
}

func TestParseTorts_BadLine(t *testing.T) {
	_, err := ParseTorts([]byte("{\"id\":\"a\"}\nnot json\n"))
	if err == nil {
		t.Fatal("Expected error for malformed line")
	}
	if !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("Expected error to name line 2, got %v", err)
	}
}

func TestEncodeTorts(t *testing.T) {
	data, err := EncodeTorts([]Tort{sampleTort(), sampleTort()})
	if err != nil {
		t.Fatalf("EncodeTorts: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "床が濡れていた") {
		t.Errorf("Expected non-ASCII text unescaped, got %s", lines[0])
	}

	back, err := ParseTorts(data)
	if err != nil {
		t.Fatalf("ParseTorts: %v", err)
	}
	if diff := cmp.Diff([]Tort{sampleTort(), sampleTort()}, back); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeTorts_Empty(t *testing.T) {
	data, err := EncodeTorts(nil)
	if err != nil {
		t.Fatalf("EncodeTorts: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty output, got %q", data)
	}
}

func TestVerifyPrediction(t *testing.T) {
	source := []Tort{sampleTort()}

	tests := []struct {
		name    string
		mutate  func(*Tort)
		wantErr bool
	}{
		{name: "echoed ids", mutate: func(*Tort) {}},
		{name: "renamed tort", mutate: func(tt *Tort) { tt.ID = "other" }, wantErr: true},
		{name: "renamed plaintiff claim", mutate: func(tt *Tort) { tt.PlaintiffClaims[0].ID = "p9" }, wantErr: true},
		{name: "dropped defendant claim", mutate: func(tt *Tort) { tt.DefendantClaims = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleTort()
			tt.mutate(&p)
			err := VerifyPrediction(source, []Tort{p})
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyPrediction() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := VerifyPrediction(source, nil); err == nil {
		t.Error("Expected error for missing torts")
	}
}
