package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MalformedResponseError reports an evaluation payload missing a field
// the client relies on, or carrying it with a non-numeric value.
type MalformedResponseError struct {
	Field  string
	Reason string // empty when the field is missing
}

func (e *MalformedResponseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed evaluation result: missing %q", e.Field)
	}
	return fmt.Sprintf("malformed evaluation result: %q %s", e.Field, e.Reason)
}

// EvaluationResult is the scored result of a validated submission.
// Raw keeps the payload exactly as received for persistence.
type EvaluationResult struct {
	Raw                 json.RawMessage
	NumOfRevisions      int
	TortPrediction      TortPredictionScore
	RationaleExtraction RationaleExtractionScore
}

// TortPredictionScore scores the overall court decision
type TortPredictionScore struct {
	Accuracy              float64
	NumOfCorrectAnswers   int
	NumOfTopics           int
	NumOfEvaluatedAnswers int
}

// RationaleExtractionScore scores claim acceptance, overall and per side
type RationaleExtractionScore struct {
	All       SideScore
	Plaintiff SideScore
	Defendant SideScore
}

// SideScore holds the metrics of one claim side
type SideScore struct {
	F1                    float64
	Recall                float64
	Precision             float64
	NumOfCorrectAnswers   int
	NumOfTopics           int
	NumOfEvaluatedAnswers int
}

// rationale sides as named in the payload: binary_{side}_f1, num_of_{side}_topics, ...
var rationaleSides = []string{"all", "p", "d"}

// DecodeEvaluation decodes the counters the client reads from an
// evaluation payload. Other keys are ignored and kept only in Raw.
// A missing counter or a non-numeric one fails with
// *MalformedResponseError; a null counter (e.g. F1 of a side with no
// claims) reads as zero.
func DecodeEvaluation(raw []byte) (*EvaluationResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode evaluation result: %w", err)
	}

	result := &EvaluationResult{Raw: json.RawMessage(raw)}

	if v, ok := top["num_of_revisions"]; ok {
		n, err := number("num_of_revisions", v)
		if err != nil {
			return nil, err
		}
		result.NumOfRevisions = int(n)
	}

	tort, err := block(top, "tort_prediction_task")
	if err != nil {
		return nil, err
	}
	tp := &result.TortPrediction
	if err := tort.read(
		field{"accuracy", &tp.Accuracy, nil},
		field{"num_of_correct_answers", nil, &tp.NumOfCorrectAnswers},
		field{"num_of_topics", nil, &tp.NumOfTopics},
		field{"num_of_evaluated_answers", nil, &tp.NumOfEvaluatedAnswers},
	); err != nil {
		return nil, err
	}

	rationale, err := block(top, "rationale_extraction_task")
	if err != nil {
		return nil, err
	}
	scores := []*SideScore{
		&result.RationaleExtraction.All,
		&result.RationaleExtraction.Plaintiff,
		&result.RationaleExtraction.Defendant,
	}
	for i, side := range rationaleSides {
		s := scores[i]
		if err := rationale.read(
			field{"binary_" + side + "_f1", &s.F1, nil},
			field{"binary_" + side + "_recall", &s.Recall, nil},
			field{"binary_" + side + "_precision", &s.Precision, nil},
			field{"num_of_" + side + "_correct_answers", nil, &s.NumOfCorrectAnswers},
			field{"num_of_" + side + "_topics", nil, &s.NumOfTopics},
			field{"num_of_" + side + "_evaluated_answers", nil, &s.NumOfEvaluatedAnswers},
		); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// field binds a payload key to either a float or an int destination
type field struct {
	key   string
	float *float64
	count *int
}

type scoreBlock struct {
	name   string
	fields map[string]json.RawMessage
}

// block returns the object top[name]; null counts as missing
func block(top map[string]json.RawMessage, name string) (*scoreBlock, error) {
	v, ok := top[name]
	if !ok || isNull(v) {
		return nil, &MalformedResponseError{Field: name}
	}

	b := &scoreBlock{name: name}
	if err := json.Unmarshal(v, &b.fields); err != nil {
		return nil, &MalformedResponseError{Field: name, Reason: "is not an object"}
	}
	return b, nil
}

func (b *scoreBlock) read(fields ...field) error {
	for _, f := range fields {
		v, ok := b.fields[f.key]
		if !ok {
			return &MalformedResponseError{Field: b.name + "." + f.key}
		}
		n, err := number(b.name+"."+f.key, v)
		if err != nil {
			return err
		}
		if f.float != nil {
			*f.float = n
		} else {
			*f.count = int(n)
		}
	}
	return nil
}

// number decodes a JSON number, reading null as zero
func number(name string, v json.RawMessage) (float64, error) {
	if isNull(v) {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, &MalformedResponseError{Field: name, Reason: "is not a number"}
	}
	return n, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
