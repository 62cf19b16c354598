package perf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/convlint/convlint/internal/rules"
	"github.com/convlint/convlint/internal/scanner"
)

const benchModule = `
export function fetchRecord(id: string) {
  return fetch('/records/' + id);
}

export function buildSummary(a: string, b: number, c: boolean, d: string) {
  return a;
}

export class RecordStore {
  find() {}
  save() {}
  remove() {}
  migrate() {}
}

export function schedule() {
  setTimeout(tick, 250);
}
`

const benchQuery = `
query fetchRecords {
  records(first: 20) {
    id
    name
  }
}
`

func BenchmarkLint_SmallTree(b *testing.B) {
	dir := b.TempDir()
	for i := 0; i < 20; i++ {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("m%02d.ts", i)), []byte(benchModule), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "q.graphql"), []byte(benchQuery), 0o644); err != nil {
		b.Fatal(err)
	}

	set := rules.DefaultSettings()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc := scanner.New(dir, nil, nil)
		units, _, err := sc.Scan(ctx)
		if err != nil {
			b.Fatal(err)
		}
		findings := rules.Evaluate(ctx, rules.Default(), units, set)
		if len(units) == 0 || len(findings) == 0 {
			b.Fatal("pipeline produced no output")
		}
	}
}

func BenchmarkEvaluate_Only(b *testing.B) {
	dir := b.TempDir()
	for i := 0; i < 20; i++ {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("m%02d.ts", i)), []byte(benchModule), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	sc := scanner.New(dir, nil, nil)
	units, _, err := sc.Scan(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	set := rules.DefaultSettings()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rules.Evaluate(context.Background(), rules.Default(), units, set)
	}
}
