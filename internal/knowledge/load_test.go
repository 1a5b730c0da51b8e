package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/garyellow/aulabot-go/internal/errors"
	"github.com/garyellow/aulabot-go/internal/logger"
)

const (
	generalCSV = `palabra_clave,categoria,respuesta
inscripcion,costos,"La inscripción cuesta $2,500."
mapa,ubicacion,Estamos en Av. Tecnológico 100.
,costos,Fila sin palabra clave
`
	majorsCSV = "\ufeffnombre,codigo,descripcion,duracion,perfil_ingreso,perfil_egreso,especialidad,jefe_division\n" +
		"Ingeniería en Sistemas Computacionales,ISC,Desarrollo de software.,9 semestres,,,,Mtra. Laura Pérez\n" +
		"Ingeniería Industrial,II,Procesos productivos.,9 semestres,,,,\n"
	coursesCSV = `carrera,clave,materia,semestre,creditos,prerequisito
Ingeniería en Sistemas Computacionales,SCD-1008,Fundamentos de Programación,1,5,
Ingeniería en Sistemas Computacionales,AED-1026,Estructura de Datos,3,5,POO

Ingeniería Industrial,INC-1005,Dibujo Industrial,1,6,
Ingeniería Industrial,,,2,4,
`
)

func writeTables(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{
		GeneralFile: generalCSV,
		MajorsFile:  majorsCSV,
		CoursesFile: coursesCSV,
	})

	c, report, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, Counts{Majors: 2, Courses: 3, QA: 2}, c.Counts())
	assert.Empty(t, report.Missing)
	assert.Equal(t, map[string]int{GeneralFile: 1, CoursesFile: 1}, report.Skipped)

	m, ok := c.FindMajor("Ingeniería en Sistemas Computacionales")
	require.True(t, ok)
	assert.Equal(t, "Mtra. Laura Pérez", m.DivisionHead)
	assert.Equal(t, "9 semestres", m.Duration)

	course, ok := c.FindCourse(m.Name, "Estructura de Datos")
	require.True(t, ok)
	assert.Equal(t, "5", course.Hours)
	assert.Equal(t, "POO", course.Prerequisite)

	assert.Equal(t, "La inscripción cuesta $2,500.", c.QAByCategory("costos")[0].Answer)
}

func TestLoad_MissingFilesAreEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{MajorsFile: majorsCSV})

	c, report, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Counts().Majors)
	assert.ElementsMatch(t, []string{GeneralFile, CoursesFile}, report.Missing)
	assert.Contains(t, c.AllCourses("Ingeniería Industrial"), "No encontré materias")
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{GeneralFile: ""})

	c, _, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Counts().QA)
}

func TestLoad_Malformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"missing required column", GeneralFile, "palabra_clave,categoria\nhola,saludo\n"},
		{"bare quote", CoursesFile, "carrera,materia\nSistemas,\"Cálculo\" Diferencial\"\n"},
		{"majors without name", MajorsFile, "codigo,descripcion\nISC,x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeTables(t, dir, map[string]string{tt.file: tt.content})

			_, _, err := Load(context.Background(), dir)
			require.Error(t, err)
			var tableErr *apperrors.TableError
			require.True(t, errors.As(err, &tableErr), "got %T", err)
			assert.Equal(t, tt.file, tableErr.File)
		})
	}
}

func TestHolder(t *testing.T) {
	t.Parallel()
	h := NewHolder(nil)
	assert.Equal(t, Counts{}, h.Catalog().Counts())

	h.Swap(testCatalog())
	assert.Equal(t, 3, h.Catalog().Counts().Majors)

	h.Swap(nil)
	assert.Equal(t, 3, h.Catalog().Counts().Majors)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{MajorsFile: majorsCSV})

	initial, _, err := Load(context.Background(), dir)
	require.NoError(t, err)
	holder := NewHolder(initial)

	w := NewWatcher(dir, holder, logger.Discard())
	w.debounce = 20 * time.Millisecond
	reloaded := make(chan error, 4)
	w.OnReload = func(_ *Catalog, _ Report, err error) {
		select {
		case reloaded <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeTables(t, dir, map[string]string{GeneralFile: generalCSV})

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after writing general.csv")
	}
	assert.Eventually(t, func() bool { return holder.Catalog().Counts().QA == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2, holder.Catalog().Counts().Majors)
}

func TestWatcher_FailedReloadKeepsSnapshot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{MajorsFile: majorsCSV})
	initial, _, err := Load(context.Background(), dir)
	require.NoError(t, err)
	holder := NewHolder(initial)

	writeTables(t, dir, map[string]string{MajorsFile: "codigo\nISC\n"})
	w := NewWatcher(dir, holder, logger.Discard())
	var gotErr error
	w.OnReload = func(_ *Catalog, _ Report, err error) { gotErr = err }
	w.Reload(context.Background())

	assert.Error(t, gotErr)
	assert.Same(t, initial, holder.Catalog())
}
