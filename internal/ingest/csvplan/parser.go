// Package csvplan parses the CSV files the planner's spreadsheet-era tools
// kept: an exercise plan (one row per exercise, the columns of a
// prescription) and a session outcome log (date, exercise, success).
package csvplan

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/progression"
)

// planColumns is the required header of a plan CSV, in order.
var planColumns = []string{
	"name", "weight", "reps", "rep_low", "rep_high",
	"rep_increment", "weight_increment", "deload", "failures",
}

// outcomeColumns is the required header of an outcome-log CSV, in order.
var outcomeColumns = []string{"date", "exercise", "success"}

// OutcomeRecord is one parsed row of an outcome log.
type OutcomeRecord struct {
	Date     time.Time
	Exercise string
	Success  bool
}

// ParsePlan reads a plan CSV and returns one engine State per row. Rows are
// parsed, not validated — callers run progression.Validate per record so a
// single bad row rejects that exercise, not the file.
func ParsePlan(r io.Reader) ([]progression.State, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading plan header: %w", err)
	}
	if err := checkHeader(header, planColumns); err != nil {
		return nil, err
	}

	var states []progression.State
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading plan line %d: %w", line, err)
		}

		s, err := parsePlanRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("plan line %d: %w", line, err)
		}
		states = append(states, s)
	}
	return states, nil
}

func parsePlanRecord(rec []string) (progression.State, error) {
	var s progression.State
	var err error

	s.Name = strings.TrimSpace(rec[0])
	if s.WeightKg, err = parseFlexFloat(rec[1]); err != nil {
		return s, fmt.Errorf("weight: %w", err)
	}
	if s.Reps, err = strconv.Atoi(strings.TrimSpace(rec[2])); err != nil {
		return s, fmt.Errorf("reps: %w", err)
	}
	if s.RepLow, err = strconv.Atoi(strings.TrimSpace(rec[3])); err != nil {
		return s, fmt.Errorf("rep_low: %w", err)
	}
	if s.RepHigh, err = strconv.Atoi(strings.TrimSpace(rec[4])); err != nil {
		return s, fmt.Errorf("rep_high: %w", err)
	}
	if s.RepIncrement, err = strconv.Atoi(strings.TrimSpace(rec[5])); err != nil {
		return s, fmt.Errorf("rep_increment: %w", err)
	}
	if s.WeightIncrementKg, err = parseFlexFloat(rec[6]); err != nil {
		return s, fmt.Errorf("weight_increment: %w", err)
	}
	if s.DeloadKg, err = parseFlexFloat(rec[7]); err != nil {
		return s, fmt.Errorf("deload: %w", err)
	}
	if s.Failures, err = strconv.Atoi(strings.TrimSpace(rec[8])); err != nil {
		return s, fmt.Errorf("failures: %w", err)
	}
	return s, nil
}

// ParseOutcomes reads an outcome-log CSV and returns the records sorted by
// date (stable, so same-day sessions keep file order). Sorting here means
// replays see sessions in training order regardless of how the log was
// appended to.
func ParseOutcomes(r io.Reader) ([]OutcomeRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading outcomes header: %w", err)
	}
	if err := checkHeader(header, outcomeColumns); err != nil {
		return nil, err
	}

	var records []OutcomeRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading outcomes line %d: %w", line, err)
		}

		date, err := parseFlexDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("outcomes line %d: date: %w", line, err)
		}
		success, err := parseSuccess(rec[2])
		if err != nil {
			return nil, fmt.Errorf("outcomes line %d: %w", line, err)
		}
		records = append(records, OutcomeRecord{
			Date:     date,
			Exercise: strings.TrimSpace(rec[1]),
			Success:  success,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("header has %d columns, want %d (%s)", len(got), len(want), strings.Join(want, ","))
	}
	for i, col := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), col) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, got[i], col)
		}
	}
	return nil
}

// parseFlexFloat accepts both decimal points and European decimal commas.
// "102,5" -> 102.5, "102.5" -> 102.5
func parseFlexFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

// parseFlexDate accepts date-only and RFC3339 timestamps.
func parseFlexDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// parseSuccess maps the success column's historical spellings to a bool.
func parseSuccess(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "success", "pass":
		return true, nil
	case "0", "false", "no", "n", "failure", "fail":
		return false, nil
	}
	return false, fmt.Errorf("cannot parse success value %q", s)
}
