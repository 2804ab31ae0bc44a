package syntaxis

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCategory(t *testing.T) {
	g := newGrammar()
	g.filemap["verbs.dat"] = map[string]bool{"comer": true, "beber": true}

	tests := []struct {
		pattern, candidate string
		want               bool
	}{
		{"VMI*", "VMI3SP0", true},
		{"VMI*<comer>", "VMI3SP0<comer>", true},
		{"VMI*<comer>", "VMI3SP0<ver>", false},
		{"NC", "NC", true},
		{"NC", "NCMS000", false},
		{"VMI*", "VSI3SP0", false},
		{"VMI*", "VMI3SP0<comer>", false},
		{"V*(come)", "VMI3SP0(come)", true},
		{"V*(come)", "VMI3SP0<come>", false},
		{`VMI*<"verbs.dat">`, "VMI3SP0<comer>", true},
		{`VMI*<"verbs.dat">`, "VMI3SP0<ver>", false},
		{`VMI*<"verbs.dat">`, "VMI3SP0(comer)", false},
		{`VMIP3S0<"verbs.dat">`, "VMIP3S0<beber>", true},
		{`VMIP3S0<"verbs.dat">`, "VMIP1S0<beber>", false},
		{`*<"verbs.dat">`, "NC<comer>", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.want, g.MatchCategory(tt.pattern, tt.candidate))
		})
	}
}

func TestSymbolSpecificity(t *testing.T) {
	assert.Equal(t, SpecificityForm, symbolSpecificity("NC(gato)"))
	assert.Equal(t, SpecificityLemma, symbolSpecificity("NC<gato>"))
	assert.Equal(t, SpecificityTag, symbolSpecificity("NCMS000"))
	assert.Equal(t, SpecificityWildcard, symbolSpecificity("NC*"))
	assert.Equal(t, SpecificityLemma, symbolSpecificity("NC*<gato>"))
}

func TestIsWildcardSymbol(t *testing.T) {
	assert.True(t, isWildcardSymbol("VMI*"))
	assert.True(t, isWildcardSymbol(`VMIP3S0<"verbs.dat">`))
	assert.False(t, isWildcardSymbol("VMIP3S0<comer>"))
	assert.False(t, isWildcardSymbol("sn"))
}

func TestLoadGrammar(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "verbs.dat", "comer\n% comment\nbeber\n\n")
	path := writeTestFile(t, dir, "es.gram", `% test grammar
@START S.
@PRIOR sn grup-verb.
@PRIOR sp sn.
@HIDDEN aux.
@FLAT coord.
@ONLYTOP top.
@NOTOP N.

sn ==> Det, +N
     | +N.            % two alternatives
grup-verb ==> +VMI*<"verbs.dat">.
S ==> sn, +grup-verb, sn.
punt ==> Fz(.) .
sp ==> Prep, sn.
@BOGUS x.
broken rule without arrow.
`)

	g, err := LoadGrammar(path, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "S", g.Start())
	assert.Equal(t, 1, g.Priority("sn"))
	assert.Equal(t, 2, g.Priority("grup-verb"))
	assert.Equal(t, 3, g.Priority("sp"))
	assert.Equal(t, DefaultPriority, g.Priority("S"))
	assert.True(t, g.IsHidden("aux"))
	assert.True(t, g.IsFlat("coord"))
	assert.True(t, g.IsOnlyTop("top"))
	assert.True(t, g.IsNoTop("N"))
	assert.False(t, g.IsNoTop("sn"))

	sn := g.RulesHead("sn")
	require.Len(t, sn, 2)
	assert.Equal(t, []string{"Det", "N"}, sn[0].Right)
	assert.Equal(t, 1, sn[0].Governor)
	assert.Equal(t, []string{"N"}, sn[1].Right)
	assert.Equal(t, 0, sn[1].Governor)

	sp := g.RulesHead("sp")
	require.Len(t, sp, 1)
	assert.Equal(t, NoGovernor, sp[0].Governor)

	punt := g.RulesHead("punt")
	require.Len(t, punt, 1)
	assert.Equal(t, []string{"Fz(.)"}, punt[0].Right)

	require.Len(t, g.RulesRight("sn"), 1)
	assert.Equal(t, "S", g.RulesRight("sn")[0].Head)
	require.Len(t, g.RulesRightWildcard('V'), 1)
	assert.Equal(t, "grup-verb", g.RulesRightWildcard('V')[0].Head)

	assert.True(t, g.IsTerminal("Det"))
	assert.False(t, g.IsTerminal("sn"))
	assert.True(t, g.InFileMap("verbs.dat", "comer"))
	assert.False(t, g.InFileMap("verbs.dat", "ver"))

	st := g.Stats()
	assert.Equal(t, 6, st.Rules)
	assert.Equal(t, 5, st.Nonterminals)
	assert.Equal(t, 1, st.WildcardRules)
	assert.Equal(t, 1, st.SetFiles)
	assert.Equal(t, "S", st.Start)
}

func TestLoadGrammarErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadGrammar(filepath.Join(dir, "missing.gram"), quietLogger())
	assert.Error(t, err)

	noStart := writeTestFile(t, dir, "nostart.gram", "NP ==> +N.\n")
	_, err = LoadGrammar(noStart, quietLogger())
	assert.True(t, errors.Is(err, ErrNoStartSymbol))

	noSet := writeTestFile(t, dir, "noset.gram", "@START S.\nS ==> +V*<\"absent.dat\">.\n")
	_, err = LoadGrammar(noSet, quietLogger())
	assert.Error(t, err)
}

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t, []string{"a", "b<x,y>", "c"}, splitTopLevel("a,b<x,y>,c", ','))
	assert.Equal(t, []string{` X<"a|b">`, " Y"}, splitTopLevel(` X<"a|b">| Y`, '|'))
	assert.Equal(t, []string{"Fz(%)"}, splitSymbols(stripComment("Fz(%) % trailing")))
}
