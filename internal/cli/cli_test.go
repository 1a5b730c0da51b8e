package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/knowledge"
)

const (
	majorsCSV = "nombre,codigo,descripcion,duracion,perfil_ingreso,perfil_egreso,especialidad,jefe_division\n" +
		"Ingeniería en Sistemas Computacionales,ISC,Desarrollo de software.,9 semestres,,,,Mtra. Laura Pérez\n" +
		"Ingeniería Industrial,II,Procesos productivos.,9 semestres,,,,\n"
	coursesCSV = "carrera,clave,materia,semestre,horas,prerequisito\n" +
		"Ingeniería en Sistemas Computacionales,SCD-1008,Fundamentos de Programación,1,5,\n" +
		"Ingeniería Industrial,,,2,4,\n"
)

// isolate points every path setting at a temp dir and clears model keys.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		config.EnvGeminiAPIKey, config.EnvGroqAPIKey, config.EnvCerebrasAPIKey, config.EnvOpenAIAPIKey,
		config.EnvLearnedFile, config.EnvIgnoredFile, config.EnvSQLitePath, config.EnvLearnedBackend,
		config.EnvIntentsFile, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvDataDir, dir)
	return dir
}

func writeTables(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	dir := isolate(t)
	writeTables(t, dir, map[string]string{
		knowledge.MajorsFile:  majorsCSV,
		knowledge.CoursesFile: coursesCSV,
	})

	out, err := execute(t, "", "check", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "majors:  2")
	assert.Contains(t, out, "courses: 1")
	assert.Contains(t, out, "missing: general.csv")
	assert.Contains(t, out, "skipped: materias.csv (1 rows)")
	assert.Contains(t, out, "Intent tables (built-in)")

	_, err = execute(t, "", "check", "--strict")
	assert.ErrorContains(t, err, "incomplete")
}

func TestCheck_Malformed(t *testing.T) {
	dir := isolate(t)
	writeTables(t, dir, map[string]string{knowledge.MajorsFile: "codigo\nISC\n"})

	_, err := execute(t, "", "check")
	assert.ErrorContains(t, err, "reference tables")
}

func TestLearned_ExportImport(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"donde esta la cafeteria":"Edificio C.","horario":"7 a 21 h"}`), 0o644))

	_, err := execute(t, "", "learned", "import", in, "--backend", "sqlite")
	require.NoError(t, err)

	out, err := execute(t, "", "learned", "export", "-", "--backend", "sqlite")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"donde esta la cafeteria": "Edificio C.", "horario": "7 a 21 h"}, got)

	// Moving the pairs to the file backend.
	_, err = execute(t, out, "learned", "import", "-", "--backend", "file")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "conocimiento_adquirido.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Edificio C.")

	_, err = execute(t, "", "learned", "export", "-", "--backend", "redis")
	assert.ErrorContains(t, err, "unknown learned backend")
}

func TestChat(t *testing.T) {
	dir := isolate(t)
	writeTables(t, dir, map[string]string{knowledge.MajorsFile: majorsCSV})

	out, err := execute(t, "carreras\nsalir\n", "chat", "--no-color")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "AulaBot: ¡Hola! Soy tu asistente educativo."))
	assert.Contains(t, out, "Carreras disponibles")
	assert.True(t, strings.HasSuffix(out, "AulaBot: ¡Hasta luego!\n"))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "aulabot "))
}
