package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Intents(t *testing.T) {
	t.Parallel()
	c := NewClassifier(DefaultIntents(), DefaultThreshold, nil)

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"greeting", "hola", Greeting, true},
		{"greeting with accents", "¡Buenos días!", Greeting, true},
		{"costs", "¿Cuánto cuesta la inscripción?", Costs, true},
		{"courses", "que materias tiene", Courses, true},
		{"learn", "Quiero enseñarte algo", Learn, true},
		{"help", "ayuda", Help, true},
		{"gibberish", "zzzz qqqq", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			label, score, ok := c.Classify(tt.input)
			assert.Equal(t, tt.wantOK, ok, "score=%d", score)
			assert.Equal(t, tt.want, label)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		})
	}
}

func TestClassify_ExactSynonymReturnsLabel(t *testing.T) {
	t.Parallel()
	for _, table := range [][]Category{DefaultIntents(), DefaultMajors()} {
		c := NewClassifier(table, DefaultThreshold, nil)
		for _, cat := range table {
			// The first synonym of each category is distinctive in the defaults.
			label, score, ok := c.Classify(cat.Synonyms[0])
			assert.True(t, ok, "synonym %q", cat.Synonyms[0])
			assert.Equal(t, 100, score)
			assert.Equal(t, cat.Label, label, "synonym %q", cat.Synonyms[0])
		}
	}
}

func TestClassify_Majors(t *testing.T) {
	t.Parallel()
	c := NewClassifier(DefaultMajors(), DefaultThreshold, nil)

	label, _, ok := c.Classify("quiero estudiar sistemas")
	require.True(t, ok)
	assert.Equal(t, "Ingeniería en Sistemas Computacionales", label)

	label, _, ok = c.Classify("Mecatrónica")
	require.True(t, ok)
	assert.Equal(t, "Ingeniería Mecatrónica", label)
}

func TestClassify_TieGoesToDeclarationOrder(t *testing.T) {
	t.Parallel()
	c := NewClassifier([]Category{
		{Label: "first", Synonyms: []string{"igual"}},
		{Label: "second", Synonyms: []string{"igual"}},
	}, DefaultThreshold, nil)

	label, score, ok := c.Classify("igual")
	assert.True(t, ok)
	assert.Equal(t, 100, score)
	assert.Equal(t, "first", label)
}

func TestNewClassifier_DropsEmptyCategories(t *testing.T) {
	t.Parallel()
	c := NewClassifier([]Category{
		{Label: "empty"},
		{Label: "blank", Synonyms: []string{"  ", "!!"}},
		{Label: "ok", Synonyms: []string{"hola"}},
	}, 0, nil)

	assert.Equal(t, []string{"ok"}, c.Labels())
	assert.Equal(t, DefaultThreshold, c.Threshold())
}

func TestMatch_ReportsSynonym(t *testing.T) {
	t.Parallel()
	c := NewClassifier(DefaultIntents(), DefaultThreshold, nil)
	r := c.Match("donde estan ubicados")
	assert.True(t, r.OK)
	assert.Equal(t, Location, r.Label)
	assert.Equal(t, "donde estan", r.Synonym)
}

func TestLoadTables(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses defaults", func(t *testing.T) {
		t.Parallel()
		tables, err := LoadTables("")
		require.NoError(t, err)
		assert.Equal(t, DefaultTables(), tables)
	})

	t.Run("override intents only", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "intents.yaml")
		content := `intents:
  scorer: token_set
  categories:
    - label: saludo
      synonyms: [hola, buenas]
    - label: despedida
      synonyms: [adios]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		tables, err := LoadTables(path)
		require.NoError(t, err)
		assert.Equal(t, "token_set", tables.Intents.Scorer)
		require.Len(t, tables.Intents.Categories, 2)
		assert.Equal(t, "despedida", tables.Intents.Categories[1].Label)
		assert.Equal(t, DefaultMajors(), tables.Majors.Categories)

		label, _, ok := tables.Intents.Build(DefaultThreshold).Classify("adios amigos")
		assert.True(t, ok)
		assert.Equal(t, "despedida", label)
	})

	t.Run("unknown scorer", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "intents.yaml")
		require.NoError(t, os.WriteFile(path, []byte("majors:\n  scorer: soundex\n"), 0o644))
		_, err := LoadTables(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "intents.yaml")
		require.NoError(t, os.WriteFile(path, []byte("intents: [unclosed"), 0o644))
		_, err := LoadTables(path)
		assert.Error(t, err)
	})
}
