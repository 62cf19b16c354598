package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convlint/convlint/internal/ir"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func scanTree(t *testing.T, files map[string]string) ([]ir.SourceUnit, []ir.Finding) {
	t.Helper()
	dir := writeTree(t, files)
	sc := New(dir, nil, nil)
	units, warnings, err := sc.Scan(context.Background())
	require.NoError(t, err)
	return units, warnings
}

func unitByName(units []ir.SourceUnit, name string) *ir.SourceUnit {
	for i := range units {
		if units[i].Summary.Name == name {
			return &units[i]
		}
	}
	return nil
}

func TestScan_ClassifiesFunctions(t *testing.T) {
	units, warnings := scanTree(t, map[string]string{
		"src/user.ts": `
export function fetchUser(id: string) {
  return fetch('/users/' + id);
}

function formatRow(a: string, b: number, c: boolean, d: string) {
  return a;
}

export const loadAccount = (id: string, opts: LoadOptions) => {
  return fetch('/accounts/' + id, opts);
};
`,
	})
	assert.Empty(t, warnings)

	fu := unitByName(units, "fetchUser")
	require.NotNil(t, fu, "fetchUser not classified")
	assert.Equal(t, ir.KindFunction, fu.Kind)
	assert.True(t, fu.Summary.Exported)
	assert.Equal(t, 1, fu.Summary.ParamCount)
	assert.Equal(t, "src/user.ts", fu.File)

	fr := unitByName(units, "formatRow")
	require.NotNil(t, fr)
	assert.False(t, fr.Summary.Exported)
	assert.Equal(t, 4, fr.Summary.ParamCount)
	assert.False(t, fr.Summary.OptionsParam)

	la := unitByName(units, "loadAccount")
	require.NotNil(t, la, "arrow function binding not classified")
	assert.Equal(t, 2, la.Summary.ParamCount)
	assert.True(t, la.Summary.OptionsParam, "trailing opts param should count as options")
}

func TestScan_ClassifiesTypes(t *testing.T) {
	units, _ := scanTree(t, map[string]string{
		"src/list.ts": `
export class BaseList {
  render() {}
}

export class UserList extends BaseList {
  load() {}
  reload() {}
  clear() {}
  export() {}
  private sync() {}
}

export interface Pageable extends Listable {
  page: number;
}
`,
	})

	ul := unitByName(units, "UserList")
	require.NotNil(t, ul)
	assert.Equal(t, ir.KindTypeDecl, ul.Kind)
	assert.Equal(t, "BaseList", ul.Summary.BaseName)
	assert.Equal(t, 4, ul.Summary.PublicMethods, "private methods must not count")

	pg := unitByName(units, "Pageable")
	require.NotNil(t, pg)
	assert.Equal(t, "Listable", pg.Summary.BaseName)
}

func TestScan_ComponentKindInTSX(t *testing.T) {
	units, _ := scanTree(t, map[string]string{
		"src/Profile.tsx": `
export function ProfileCard(props: ProfileProps) {
  return null;
}

function buildTitle(a: string) { return a; }
`,
	})
	pc := unitByName(units, "ProfileCard")
	require.NotNil(t, pc)
	assert.Equal(t, ir.KindComponent, pc.Kind)

	bt := unitByName(units, "buildTitle")
	require.NotNil(t, bt)
	assert.Equal(t, ir.KindFunction, bt.Kind, "lowercase callables stay functions")
}

func TestScan_TimingLiterals(t *testing.T) {
	units, _ := scanTree(t, map[string]string{
		"src/poll.ts": `
export function startPolling() {
  setTimeout(refresh, 300);
  window.setInterval(tick, 5000);
}
`,
	})
	sp := unitByName(units, "startPolling")
	require.NotNil(t, sp)
	require.Len(t, sp.Summary.TimingLiterals, 2)
	assert.Equal(t, "setTimeout", sp.Summary.TimingLiterals[0].Call)
	assert.Equal(t, "300", sp.Summary.TimingLiterals[0].Value)
	assert.Equal(t, "setInterval", sp.Summary.TimingLiterals[1].Call)
}

func TestScan_GraphQLDocuments(t *testing.T) {
	units, warnings := scanTree(t, map[string]string{
		"queries/user.graphql": `
query fetchUserProfile {
  user(id: 1) {
    id
    name
    posts(first: 10) {
      title
    }
  }
}

mutation updateUserName {
  updateUser(id: 1, name: "x") {
    id
  }
}
`,
	})
	assert.Empty(t, warnings)

	q := unitByName(units, "fetchUserProfile")
	require.NotNil(t, q)
	assert.Equal(t, ir.KindGraphQLOp, q.Kind)
	assert.Equal(t, "query", q.Summary.Operation)
	require.Len(t, q.Summary.Selections, 1)
	sel := q.Summary.Selections[0]
	assert.Equal(t, "user", sel.Entity)
	assert.Equal(t, []string{"id", "name", "title"}, sel.Fields)
	assert.Equal(t, 1, sel.Depth)
	assert.True(t, sel.Paginated, "posts(first:) marks the selection paginated")

	m := unitByName(units, "updateUserName")
	require.NotNil(t, m)
	assert.Equal(t, "mutation", m.Summary.Operation)
}

func TestScan_EmbeddedGQLTag(t *testing.T) {
	units, _ := scanTree(t, map[string]string{
		"src/queries.ts": "export const USER_QUERY = gql`\nquery fetchUser {\n  user { id name }\n}\n`;\n",
	})
	op := unitByName(units, "fetchUser")
	require.NotNil(t, op, "gql-tagged operation not extracted")
	assert.Equal(t, ir.KindGraphQLOp, op.Kind)
	assert.Equal(t, "src/queries.ts", op.File)

	// positions are file offsets, not offsets within the template, so
	// findings on embedded operations sort with the rest of the file
	tagStart := len("export const USER_QUERY = gql`")
	assert.GreaterOrEqual(t, op.Start, tagStart)
	require.Len(t, op.Summary.Selections, 1)
	assert.GreaterOrEqual(t, op.Summary.Selections[0].Offset, tagStart)
}

func TestScan_UnreadableFileDegradesToWarning(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/good.ts": "export function fetchThing() { return 1; }\n",
	})
	bad := filepath.Join(dir, "src", "bad.ts")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 0x00, 0x81}, 0o644))

	sc := New(dir, nil, nil)
	units, warnings, err := sc.Scan(context.Background())
	require.NoError(t, err, "unreadable files must not abort the scan")

	require.Len(t, warnings, 1)
	w := warnings[0]
	assert.Equal(t, "UNREADABLE-SOURCE", w.RuleID)
	assert.Equal(t, ir.SeverityWarning, w.Severity)
	assert.Equal(t, "src/bad.ts", w.File)

	assert.NotNil(t, unitByName(units, "fetchThing"), "readable files still scanned")
}

func TestScan_MalformedGraphQLDegradesToWarning(t *testing.T) {
	units, warnings := scanTree(t, map[string]string{
		"queries/broken.graphql": "query fetchThing { user {",
		"queries/ok.graphql":     "query fetchOther { user { id } }",
	})
	require.Len(t, warnings, 1)
	assert.Equal(t, "queries/broken.graphql", warnings[0].File)
	assert.NotNil(t, unitByName(units, "fetchOther"))
}

func TestScan_ExcludeGlobs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/app.ts":                "export function fetchApp() { return 1; }\n",
		"node_modules/x/index.js":   "function hidden() {}\n",
		"src/types/x.d.ts":          "export declare function hiddenDecl(): void;\n",
		"dist/bundle.js":            "function alsoHidden() {}\n",
	})
	sc := New(dir, []string{"**/*.ts", "**/*.js"}, []string{"node_modules/**", "dist/**", "**/*.d.ts"})
	units, _, err := sc.Scan(context.Background())
	require.NoError(t, err)

	for _, u := range units {
		assert.Equal(t, "src/app.ts", u.File, "excluded trees leaked a unit: %s", u.File)
	}
	assert.NotNil(t, unitByName(units, "fetchApp"))
}

func TestScan_ChangedOnlyFilter(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a.ts": "export function fetchA() { return 1; }\n",
		"src/b.ts": "export function fetchB() { return 1; }\n",
	})
	sc := New(dir, nil, nil)
	sc.Changed = map[string]bool{"src/b.ts": true}
	units, _, err := sc.Scan(context.Background())
	require.NoError(t, err)

	assert.Nil(t, unitByName(units, "fetchA"))
	assert.NotNil(t, unitByName(units, "fetchB"))
}

func TestScan_UnitsOrderedByFileThenOffset(t *testing.T) {
	units, _ := scanTree(t, map[string]string{
		"src/b.ts": "export function fetchB() {}\nexport function fetchB2() {}\n",
		"src/a.ts": "export function fetchA() {}\n",
	})
	require.GreaterOrEqual(t, len(units), 3)
	for i := 1; i < len(units); i++ {
		prev, cur := units[i-1], units[i]
		if prev.File == cur.File {
			assert.LessOrEqual(t, prev.Start, cur.Start)
		} else {
			assert.Less(t, prev.File, cur.File)
		}
	}
}
