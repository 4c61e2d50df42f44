package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFile is written into the output directory after every build.
const ReportFile = "build-report.json"

// Outcome is the overall result of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// PageResult records one rendered page.
type PageResult struct {
	Source      string `json:"source"`
	Output      string `json:"output"`
	URL         string `json:"url"`
	Fingerprint string `json:"fingerprint"`
}

// Report summarizes a build.
type Report struct {
	BuildID      string        `json:"build_id"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Outcome      Outcome       `json:"outcome"`
	Pages        []PageResult  `json:"pages"`
	Drafts       int           `json:"drafts"`
	StaticFiles  int           `json:"static_files"`
	AssetsCopied int           `json:"assets_copied"`
	Variants     int           `json:"variants"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"-"`
}

func newReport(buildID string) *Report {
	return &Report{BuildID: buildID, Start: time.Now()}
}

func (r *Report) finish(outcome Outcome, err error) {
	r.End = time.Now()
	r.Duration = r.End.Sub(r.Start)
	r.Outcome = outcome
	if err != nil {
		r.Error = err.Error()
	}
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d drafts=%d static=%d assets=%d variants=%d duration=%s outcome=%s",
		len(r.Pages), r.Drafts, r.StaticFiles, r.AssetsCopied, r.Variants, r.Duration.Truncate(time.Millisecond), r.Outcome)
}

// Fingerprints maps page sources to their content fingerprints.
func (r *Report) Fingerprints() map[string]string {
	out := make(map[string]string, len(r.Pages))
	for _, p := range r.Pages {
		out[p.Source] = p.Fingerprint
	}
	return out
}

// Persist writes the report as JSON into root, replacing any previous report atomically.
func (r *Report) Persist(root string) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	path := filepath.Join(root, ReportFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report json: %w", err)
	}
	return nil
}
