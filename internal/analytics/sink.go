// Package analytics records diagnosis events to an append-only JSONL file
// and aggregates them for the impact dashboard.
package analytics

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"agrivoice-ai/internal/diagnosis"
)

// FileSink appends one JSON line per diagnosis event. A mutex serializes
// writers so concurrent pipelines never interleave lines.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileSink{path: path}, nil
}

// Log appends the event. Events are never mutated or rewritten afterwards.
func (s *FileSink) Log(ctx context.Context, e diagnosis.Event) error {
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Summary is the aggregate view over all logged events.
type Summary struct {
	TotalDiagnoses    int            `json:"total_diagnoses"`
	TopDiseases       []DiseaseCount `json:"top_diseases"`
	LanguagesUsed     map[string]int `json:"languages_used"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
	CropBreakdown     map[string]int `json:"crop_breakdown"`
}

type DiseaseCount struct {
	Disease string `json:"disease"`
	Count   int    `json:"count"`
}

// Summarize reads the whole event log and aggregates it. A missing file is
// an empty summary, not an error.
func (s *FileSink) Summarize(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &Summary{
		LanguagesUsed:     map[string]int{},
		SeverityBreakdown: map[string]int{},
		CropBreakdown:     map[string]int{},
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return summary, nil
		}
		return nil, err
	}
	defer f.Close()

	diseaseCounts := map[string]int{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e diagnosis.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			// A torn line must not break the whole dashboard.
			continue
		}
		summary.TotalDiagnoses++
		summary.LanguagesUsed[e.Language]++
		if e.Severity != "" {
			summary.SeverityBreakdown[e.Severity]++
		}
		if e.CropType != "" {
			summary.CropBreakdown[e.CropType]++
		}
		switch {
		case e.DiseaseName != "":
			diseaseCounts[e.DiseaseName]++
		case len(e.DetectedTags) > 0:
			diseaseCounts[e.DetectedTags[0]]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for d, n := range diseaseCounts {
		summary.TopDiseases = append(summary.TopDiseases, DiseaseCount{Disease: d, Count: n})
	}
	sort.Slice(summary.TopDiseases, func(i, j int) bool {
		if summary.TopDiseases[i].Count != summary.TopDiseases[j].Count {
			return summary.TopDiseases[i].Count > summary.TopDiseases[j].Count
		}
		return summary.TopDiseases[i].Disease < summary.TopDiseases[j].Disease
	})
	if len(summary.TopDiseases) > 5 {
		summary.TopDiseases = summary.TopDiseases[:5]
	}
	return summary, nil
}
