package model

import (
	"strings"
	"time"
)

// TimestampLayout formats the second-granularity suffix of stored results
const TimestampLayout = "20060102150405"

// Submission is one upload attempt: predicted torts under a fresh token
type Submission struct {
	Token    string
	Filename string
	Mode     string
	Torts    []Tort
}

// SubmissionFilename derives the remote filename of a submission from the
// test set filename and the system identity, e.g.
// "cases_v1.jsonl" -> "cases_v1_teamA_uniX_sysY.jsonl".
func SubmissionFilename(testData, team, affiliation, system string) string {
	stem, ext := splitFilename(testData)
	return joinFilename(stem+"_"+team+"_"+affiliation+"_"+system, ext)
}

// TimestampedFilename rewrites filename to carry t as a suffix of its stem
func TimestampedFilename(filename string, t time.Time) string {
	stem, ext := splitFilename(filename)
	return joinFilename(stem+"_"+t.Format(TimestampLayout), ext)
}

// splitFilename returns the text before the first dot and after the last one
func splitFilename(name string) (stem, ext string) {
	first := strings.Index(name, ".")
	if first < 0 {
		return name, ""
	}
	return name[:first], name[strings.LastIndex(name, ".")+1:]
}

func joinFilename(stem, ext string) string {
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
