package model

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// APIVersion is the schema tag carried by case records
const APIVersion = "1.0.0"

// Tort is one legal dispute from the test set.
// CourtDecision is nil in source data and set by a predictor.
type Tort struct {
	Version         string           `json:"version"`
	ID              string           `json:"id"`
	UndisputedFacts []UndisputedFact `json:"undisputed_facts"`
	PlaintiffClaims []PlaintiffClaim `json:"plaintiff_claims"`
	DefendantClaims []DefendantClaim `json:"defendant_claims"`
	CourtDecision   *bool            `json:"court_decision,omitempty"`
}

// UndisputedFact is a fact statement both parties agree on
type UndisputedFact struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// PlaintiffClaim is an assertion made by the plaintiff
type PlaintiffClaim struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IsAccepted  *bool  `json:"is_accepted,omitempty"`
}

// DefendantClaim is an assertion made by the defendant
type DefendantClaim struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IsAccepted  *bool  `json:"is_accepted,omitempty"`
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

// ParseTorts decodes newline-delimited JSON tort records. Blank lines are skipped.
func ParseTorts(data []byte) ([]Tort, error) {
	torts := []Tort{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var t Tort
		if err := json.Unmarshal(text, &t); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		torts = append(torts, t)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	return torts, nil
}

// EncodeTorts writes one JSON record per tort, each terminated by a newline.
// Non-ASCII text is written as-is.
func EncodeTorts(torts []Tort) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i := range torts {
		if err := enc.Encode(&torts[i]); err != nil {
			return nil, fmt.Errorf("encode tort %s: %w", torts[i].ID, err)
		}
	}

	return buf.Bytes(), nil
}

// VerifyPrediction checks that predicted echoes the tort and claim ids of
// source in the same order.
func VerifyPrediction(source, predicted []Tort) error {
	if len(source) != len(predicted) {
		return fmt.Errorf("prediction has %d torts, test set has %d", len(predicted), len(source))
	}

	for i := range source {
		src, got := &source[i], &predicted[i]
		if src.ID != got.ID {
			return fmt.Errorf("tort %d: id %q, want %q", i, got.ID, src.ID)
		}
		if err := sameIDs("plaintiff", src.ID, plaintiffIDs(src.PlaintiffClaims), plaintiffIDs(got.PlaintiffClaims)); err != nil {
			return err
		}
		if err := sameIDs("defendant", src.ID, defendantIDs(src.DefendantClaims), defendantIDs(got.DefendantClaims)); err != nil {
			return err
		}
	}

	return nil
}

func sameIDs(side, tortID string, want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("tort %s: %d %s claims, want %d", tortID, len(got), side, len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("tort %s: %s claim %d has id %q, want %q", tortID, side, i, got[i], want[i])
		}
	}
	return nil
}

func plaintiffIDs(claims []PlaintiffClaim) []string {
	ids := make([]string, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
	}
	return ids
}

func defendantIDs(claims []DefendantClaim) []string {
	ids := make([]string, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
	}
	return ids
}
