package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fleamarket.gg/internal/market/offers"
	persistlog "fleamarket.gg/internal/persistence/log"
)

type auditFilter struct {
	Event     string
	Tpl       string
	ProfileID string
	Since     int64
}

func (f auditFilter) match(e offers.AuditEntry) bool {
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	if f.Tpl != "" && e.Tpl != f.Tpl {
		return false
	}
	if f.ProfileID != "" && e.ProfileID != f.ProfileID {
		return false
	}
	return e.Time >= f.Since
}

// readAudit scans every closed hourly audit file under dataDir/audit in
// time order. The file of the current hour is only readable once the
// server rotates or stops.
func readAudit(dataDir string, f auditFilter) ([]offers.AuditEntry, error) {
	dir := filepath.Join(dataDir, "audit")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "audit-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []offers.AuditEntry
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := persistlog.ReadJSONL(path, func(line []byte) error {
			var e offers.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			if f.match(e) {
				out = append(out, e)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return out, nil
}

type auditSummary struct {
	Event   string  `json:"event"`
	Count   int     `json:"count"`
	Amount  int     `json:"amount"`
	Roubles float64 `json:"roubles"`
	Fees    float64 `json:"fees"`
}

func summarize(entries []offers.AuditEntry) []auditSummary {
	by := map[string]*auditSummary{}
	for _, e := range entries {
		s := by[e.Event]
		if s == nil {
			s = &auditSummary{Event: e.Event}
			by[e.Event] = s
		}
		s.Count++
		s.Amount += e.Amount
		s.Roubles += e.Roubles
		s.Fees += e.Fee
	}
	out := make([]auditSummary, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}
