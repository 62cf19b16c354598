package rules

import (
	"context"
	"fmt"
	"hash/crc32"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/convlint/convlint/internal/ir"
)

// Evaluate runs every applicable rule against every unit and returns
// the finding set. Units are independent, so they are evaluated
// concurrently on a bounded pool with one result slot per unit; the
// slots are merged in unit order, which keeps output deterministic
// without a shared collector lock.
func Evaluate(ctx context.Context, reg *Registry, units []ir.SourceUnit, set Settings) []ir.Finding {
	set = set.withDefaults()
	ev := &EvalContext{
		Index:    BuildNamingIndex(units, set.RetrievalVerbs),
		Settings: set,
	}

	workers := set.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := semaphore.NewWeighted(int64(workers))

	results := make([][]ir.Finding, len(units))
	var wg sync.WaitGroup
	for i := range units {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = evalUnit(reg, &units[i], ev)
		}(i)
	}
	wg.Wait()

	var all []ir.Finding
	for _, fs := range results {
		all = append(all, fs...)
	}

	assignIDs(all)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		if all[i].Offset != all[j].Offset {
			return all[i].Offset < all[j].Offset
		}
		return all[i].RuleID < all[j].RuleID
	})
	return all
}

func evalUnit(reg *Registry, u *ir.SourceUnit, ev *EvalContext) []ir.Finding {
	var out []ir.Finding
	for _, rule := range reg.RulesFor(u.Kind) {
		if ev.Settings.Disabled[strings.ToUpper(rule.ID)] {
			continue
		}
		out = append(out, safeEval(rule, u, ev)...)
	}
	return out
}

// safeEval converts a predicate panic into a RULE-EVAL-FAULT finding;
// one faulting rule must never abort the run.
func safeEval(rule Rule, u *ir.SourceUnit, ev *EvalContext) (fs []ir.Finding) {
	defer func() {
		if r := recover(); r != nil {
			fs = []ir.Finding{{
				RuleID:   "RULE-EVAL-FAULT",
				File:     u.File,
				Line:     u.Line,
				Offset:   u.Start,
				Unit:     u.Summary.Name,
				Severity: ir.SeverityError,
				Message:  fmt.Sprintf("Rule %s faulted while evaluating %s and was skipped.", rule.ID, u.Summary.Name),
				Evidence: fmt.Sprint(r),
			}}
		}
	}()

	fs = rule.Eval(u, ev)
	for i := range fs {
		if fs[i].RuleID == "" {
			fs[i].RuleID = rule.ID
		}
		if fs[i].File == "" {
			fs[i].File = u.File
		}
		if fs[i].Line == 0 {
			fs[i].Line = u.Line
		}
		if fs[i].Offset == 0 {
			fs[i].Offset = u.Start
		}
		if fs[i].Unit == "" {
			fs[i].Unit = u.Summary.Name
		}
		if fs[i].Severity == "" {
			fs[i].Severity = rule.DefaultSeverity
		}
	}
	return fs
}

// assignIDs gives every finding a content-derived ID, unique within
// the run.
func assignIDs(all []ir.Finding) {
	seen := make(map[string]struct{}, len(all))
	seq := 0
	for i := range all {
		f := &all[i]
		id := f.ID
		if id == "" {
			id = makeID(f.RuleID, f.File, f.Unit, f.Evidence)
		}
		if _, dup := seen[id]; dup {
			for {
				seq++
				candidate := fmt.Sprintf("%s-%06d", f.RuleID, seq)
				if _, taken := seen[candidate]; !taken {
					id = candidate
					break
				}
			}
		}
		seen[id] = struct{}{}
		f.ID = id
	}
}

func makeID(ruleID, file, unit, evidence string) string {
	data := fmt.Sprintf("%s|%s|%s|%s", ruleID, file, unit, evidence)
	sum := crc32.ChecksumIEEE([]byte(data))
	return fmt.Sprintf("%s-%08x", ruleID, sum)
}
