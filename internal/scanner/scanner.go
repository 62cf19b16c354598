package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/convlint/convlint/internal/ir"
)

// UnreadableSourceError marks a file that could not be decoded as text
// or whose read timed out. It degrades to a warning finding; it never
// aborts a run.
type UnreadableSourceError struct {
	Path string
	Err  error
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("unreadable source %s: %v", e.Path, e.Err)
}

func (e *UnreadableSourceError) Unwrap() error { return e.Err }

var codeExts = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
}

var graphqlExts = map[string]bool{
	".graphql": true, ".gql": true,
}

// Scanner walks a project tree and classifies files into SourceUnits.
// Each Scan re-walks the tree; nothing is cached across runs.
type Scanner struct {
	Root        string
	Include     []string
	Exclude     []string
	ReadTimeout time.Duration

	// Changed restricts scanning to the given relative paths when
	// non-nil (incremental lint against a git baseline).
	Changed map[string]bool

	code *CodeParser
}

func New(root string, include, exclude []string) *Scanner {
	return &Scanner{
		Root:        root,
		Include:     include,
		Exclude:     exclude,
		ReadTimeout: 5 * time.Second,
		code:        NewCodeParser(),
	}
}

// Scan produces the run's SourceUnits plus warning findings for files
// that had to be skipped. Units are ordered by (file, offset) so the
// evaluator sees a deterministic sequence.
func (s *Scanner) Scan(ctx context.Context) ([]ir.SourceUnit, []ir.Finding, error) {
	var units []ir.SourceUnit
	var warnings []ir.Finding

	err := filepath.WalkDir(s.Root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, rerr := filepath.Rel(s.Root, p)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			base := filepath.Base(rel)
			if rel != "." && (strings.HasPrefix(base, ".") || base == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.selected(rel) {
			return nil
		}

		content, rdErr := s.readFile(ctx, p)
		if rdErr != nil {
			warnings = append(warnings, unreadableFinding(rel, rdErr))
			return nil
		}

		fileUnits, perr := s.classify(ctx, rel, content)
		if perr != nil {
			warnings = append(warnings, unreadableFinding(rel, perr))
			return nil
		}
		units = append(units, fileUnits...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.SliceStable(units, func(i, j int) bool {
		if units[i].File != units[j].File {
			return units[i].File < units[j].File
		}
		return units[i].Start < units[j].Start
	})
	log.Debug().Int("units", len(units)).Int("skipped", len(warnings)).Msg("scan complete")
	return units, warnings, nil
}

func (s *Scanner) selected(rel string) bool {
	if s.Changed != nil && !s.Changed[rel] {
		return false
	}
	ext := strings.ToLower(filepath.Ext(rel))
	if !codeExts[ext] && !graphqlExts[ext] {
		return false
	}
	if len(s.Include) > 0 && !matchAny(s.Include, rel) {
		return false
	}
	return !matchAny(s.Exclude, rel)
}

// readFile reads with a cancellable deadline so one stalled read cannot
// hang the pass, and rejects content that is not valid text.
func (s *Scanner) readFile(ctx context.Context, path string) ([]byte, error) {
	timeout := s.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		b, err := os.ReadFile(path)
		ch <- result{b, err}
	}()

	select {
	case <-rctx.Done():
		return nil, &UnreadableSourceError{Path: path, Err: rctx.Err()}
	case r := <-ch:
		if r.err != nil {
			return nil, &UnreadableSourceError{Path: path, Err: r.err}
		}
		if !utf8.Valid(r.data) {
			return nil, &UnreadableSourceError{Path: path, Err: fmt.Errorf("not valid UTF-8 text")}
		}
		return r.data, nil
	}
}

func (s *Scanner) classify(ctx context.Context, rel string, content []byte) ([]ir.SourceUnit, error) {
	ext := strings.ToLower(filepath.Ext(rel))
	if graphqlExts[ext] {
		return ParseOperations(rel, string(content), 0, 1)
	}
	return s.code.Parse(ctx, rel, content)
}

func unreadableFinding(rel string, err error) ir.Finding {
	return ir.Finding{
		ID:       fmt.Sprintf("UNREADABLE-SOURCE-%08x", crc32.ChecksumIEEE([]byte(rel))),
		RuleID:   "UNREADABLE-SOURCE",
		File:     rel,
		Line:     1,
		Severity: ir.SeverityWarning,
		Message:  "File could not be read as source text and was skipped.",
		Evidence: err.Error(),
	}
}
