package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/unbundle/pkg/extractor"
	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	t.Cleanup(func() {
		_ = qm.Close()
		_ = pm.Close()
	})
	return NewAnalyzer(pm, extractor.NewExtractor(pm, qm))
}

func usageFor(t *testing.T, usages []ImportUsage, local string) ImportUsage {
	t.Helper()
	for _, u := range usages {
		if u.LocalName == local {
			return u
		}
	}
	t.Fatalf("no usage for %q", local)
	return ImportUsage{}
}

func keys(m map[string]struct{}) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func propSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func TestAnalyzeUsage_PropertyAccessTruncatesToFirstSegment(t *testing.T) {
	an := newTestAnalyzer(t)

	src := []byte(`
import * as Icons from './icons';
const x = Icons.User.displayName;
const y = Icons.ChevronDown;
`)
	usages := an.AnalyzeUsage(src, "app.ts")
	u := usageFor(t, usages, "Icons")

	assert.ElementsMatch(t, []string{"User", "ChevronDown"}, keys(u.AccessedProperties))
}

func TestAnalyzeUsage_CallConstructAndSubscript(t *testing.T) {
	an := newTestAnalyzer(t)

	src := []byte(`
import { format, Store, table } from './lib';
format('now');
const s = new Store();
const cell = table['header'];
const other = table[dynamicKey];
`)
	usages := an.AnalyzeUsage(src, "app.ts")

	assert.True(t, usageFor(t, usages, "format").CalledDirectly)
	assert.True(t, usageFor(t, usages, "Store").Constructed)
	tbl := usageFor(t, usages, "table")
	// Only the literal index counts; computed keys are unresolvable.
	assert.Equal(t, []string{"header"}, keys(tbl.AccessedProperties))
}

func TestAnalyzeUsage_JSXElement(t *testing.T) {
	an := newTestAnalyzer(t)

	src := []byte(`
import { Button } from './Button';
import * as Form from './form';
export const App = () => (
  <div>
    <Button label="ok" />
    <Form.Field name="email" />
  </div>
);
`)
	usages := an.AnalyzeUsage(src, "app.tsx")

	assert.True(t, usageFor(t, usages, "Button").UsedAsElement)
	form := usageFor(t, usages, "Form")
	assert.Contains(t, form.ElementProperties, "Field")
}

func TestAnalyzeUsage_TypeOnlyImport(t *testing.T) {
	an := newTestAnalyzer(t)

	src := []byte(`
import type { Props } from './types';
const p: Props = { id: 1 };
`)
	usages := an.AnalyzeUsage(src, "app.ts")
	assert.True(t, usageFor(t, usages, "Props").IsTypeOnly)
}

func TestAggregate_UnionsAcrossConsumers(t *testing.T) {
	rows := []ImportUsage{
		{
			FilePath:           "a.ts",
			LocalName:          "Icons",
			ImportedName:       "Icons",
			Source:             "./icons",
			AccessedProperties: propSet("User"),
			IsTypeOnly:         false,
		},
		{
			FilePath:           "b.ts",
			LocalName:          "I",
			ImportedName:       "Icons",
			Source:             "./icons",
			AccessedProperties: propSet("Settings"),
			CalledDirectly:     true,
			IsTypeOnly:         true,
		},
		{
			FilePath:     "a.ts",
			LocalName:    "other",
			ImportedName: "other",
			Source:       "./elsewhere",
		},
	}

	agg := Aggregate(rows, "./icons")
	require.Len(t, agg, 1)

	icons := agg["Icons"]
	assert.ElementsMatch(t, []string{"User", "Settings"}, icons.AllProperties())
	assert.True(t, icons.CalledDirectly)
	assert.Equal(t, []string{"a.ts", "b.ts"}, icons.ConsumingFiles)
	// One value usage is enough to defeat type-only.
	assert.False(t, icons.AllTypeOnly)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	rows := []ImportUsage{
		{FilePath: "b.ts", LocalName: "x", ImportedName: "x", Source: "./m", AccessedProperties: propSet("p2")},
		{FilePath: "a.ts", LocalName: "x", ImportedName: "x", Source: "./m", AccessedProperties: propSet("p1")},
	}
	reversed := []ImportUsage{rows[1], rows[0]}

	a := Aggregate(rows, "./m")
	b := Aggregate(reversed, "./m")

	assert.Equal(t, a["x"].ConsumingFiles, b["x"].ConsumingFiles)
	assert.ElementsMatch(t, a["x"].AllProperties(), b["x"].AllProperties())
}
