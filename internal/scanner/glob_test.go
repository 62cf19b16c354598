package scanner

import "testing"

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/*.ts", "src/api/user.ts", true},
		{"**/*.ts", "user.ts", true},
		{"**/*.ts", "src/user.graphql", false},
		{"src/**", "src/deep/nested/file.ts", true},
		{"src/**", "lib/file.ts", false},
		{"node_modules/**", "node_modules/react/index.js", true},
		{"**/*.d.ts", "src/types/generated.d.ts", true},
		{"*.graphql", "queries/user.graphql", true}, // bare pattern matches basename
		{"src/*.ts", "src/user.ts", true},
		{"src/*.ts", "src/deep/user.ts", false},
		{"**/__tests__/**", "src/__tests__/user.test.ts", true},
	}
	for _, c := range cases {
		if got := MatchGlob(c.pattern, c.path); got != c.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"node_modules/**", "**/*.d.ts"}
	if !matchAny(patterns, "node_modules/x/y.js") {
		t.Error("expected node_modules path to match")
	}
	if matchAny(patterns, "src/app.ts") {
		t.Error("src/app.ts should not match the exclude set")
	}
}
