package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sistemas = "Ingeniería en Sistemas Computacionales"

func testCatalog() *Catalog {
	majors := []Major{
		{Name: sistemas, Code: "ISC", Description: "Desarrollo de software.", DivisionHead: "Mtra. Laura Pérez"},
		{Name: "Ingeniería Industrial", Code: "II", Description: "Procesos productivos."},
		{Name: "Licenciatura en Administración", Code: "LA"},
	}
	courses := []Course{
		{Major: sistemas, Code: "ACF-0901", Name: "Cálculo Diferencial", Semester: "1", Hours: "5"},
		{Major: sistemas, Code: "SCD-1008", Name: "Fundamentos de Programación", Semester: "1", Hours: "5"},
		{Major: sistemas, Code: "SCD-1027", Name: "Tópicos Avanzados de Programación", Semester: "10", Hours: "5", Prerequisite: "POO"},
		{Major: sistemas, Code: "AED-1026", Name: "Estructura de Datos", Semester: "3", Hours: "5"},
		{Major: sistemas, Code: "RES-0001", Name: "Residencia Profesional", Semester: "Especialidad", Hours: "10"},
		{Major: sistemas, Code: "SCC-1005", Name: "Cultura Empresarial", Semester: "2"},
		{Major: "ingenieria en sistemas computacionales", Code: "ACA-0907", Name: "Taller de Ética", Semester: "1", Hours: "4"},
		{Major: "Ingeniería Industrial", Code: "INC-1005", Name: "Dibujo Industrial", Semester: "1", Hours: "6"},
	}
	qa := []GeneralQA{
		{Keyword: "inscripcion", Category: "costos", Answer: "La inscripción cuesta $2,500."},
		{Keyword: "mapa", Category: "ubicacion", Answer: "Estamos en Av. Tecnológico 100."},
		{Keyword: "becas", Category: "vida_estudiantil", Answer: "Hay becas de excelencia."},
	}
	return NewCatalog(majors, courses, qa)
}

func TestMajorsList(t *testing.T) {
	t.Parallel()
	got := testCatalog().MajorsList()
	want := "📚 Carreras disponibles:\n1. Sistemas Computacionales\n2. Industrial\n3. Administración"
	assert.Equal(t, want, got)

	assert.NotEmpty(t, Empty().MajorsList())
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Ingeniería en Sistemas Computacionales": "Sistemas Computacionales",
		"Ingeniería Mecatrónica":                 "Mecatrónica",
		"Licenciatura en Turismo":                "Turismo",
		"Arquitectura":                           "Arquitectura",
	}
	for in, want := range tests {
		assert.Equal(t, want, DisplayName(in), in)
	}
}

func TestAllCourses(t *testing.T) {
	t.Parallel()
	c := testCatalog()
	got := c.AllCourses("ingeniería en sistemas computacionales")

	assert.True(t, strings.HasPrefix(got, "📚 Materias de "+sistemas+":"))
	for _, code := range []string{"ACF-0901", "SCD-1008", "SCD-1027", "AED-1026", "RES-0001", "SCC-1005", "ACA-0907"} {
		assert.Contains(t, got, code)
	}
	assert.NotContains(t, got, "INC-1005")
	assert.Contains(t, got, "• ACF-0901 Cálculo Diferencial (5 h)")
	assert.Contains(t, got, "• SCC-1005 Cultura Empresarial\n")

	// Semester headers appear once each, numeric ascending, labels last.
	headers := []string{"📅 Semestre 1:", "📅 Semestre 2:", "📅 Semestre 3:", "📅 Semestre 10:", "📅 Semestre Especialidad:"}
	last := -1
	for _, h := range headers {
		assert.Equal(t, 1, strings.Count(got, h), h)
		idx := strings.Index(got, h)
		assert.Greater(t, idx, last, h)
		last = idx
	}
}

func TestAllCourses_UnknownMajor(t *testing.T) {
	t.Parallel()
	got := testCatalog().AllCourses("Medicina")
	assert.Equal(t, "No encontré materias registradas para Medicina.", got)
}

func TestCoursesForSemester(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	got := c.CoursesForSemester(sistemas, 1)
	assert.True(t, strings.HasPrefix(got, "📅 Semestre 1 de "+sistemas))
	assert.Contains(t, got, "Fundamentos de Programación")
	assert.Contains(t, got, "Taller de Ética")
	assert.NotContains(t, got, "Estructura de Datos")

	assert.Contains(t, c.CoursesForSemester(sistemas, 7), "No hay materias registradas para el semestre 7")
}

func TestFindMajorAndCourses(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	m, ok := c.FindMajor("INGENIERIA INDUSTRIAL")
	require.True(t, ok)
	assert.Equal(t, "II", m.Code)

	_, ok = c.FindMajor("Medicina")
	assert.False(t, ok)

	names := c.CourseNames(sistemas)
	assert.Len(t, names, 7)
	assert.Equal(t, "Cálculo Diferencial", names[0])

	course, ok := c.FindCourse(sistemas, "Tópicos Avanzados de Programación")
	require.True(t, ok)
	assert.Equal(t, "📘 Tópicos Avanzados de Programación (Semestre 10)\nPrerrequisito: POO", CourseSummary(course))

	_, ok = c.FindCourse(sistemas, "Dibujo Industrial")
	assert.False(t, ok)
}

func TestMajorCard(t *testing.T) {
	t.Parallel()
	c := testCatalog()
	assert.Equal(t, "🎓 **"+sistemas+"**\nDesarrollo de software.\n¿Quieres ver materias?", c.MajorCard(sistemas))
	assert.Contains(t, c.MajorCard("Licenciatura en Administración"), "Sin descripción registrada.")
}

func TestDivisionHead(t *testing.T) {
	t.Parallel()
	c := testCatalog()
	assert.Equal(t, "👤 Jefe(a) de división de "+sistemas+": Mtra. Laura Pérez", c.DivisionHead(sistemas))
	assert.Equal(t, "No tengo registrado al jefe de división de Ingeniería Industrial.", c.DivisionHead("Ingeniería Industrial"))
	assert.Equal(t, "No encontré la carrera Medicina.", c.DivisionHead("Medicina"))
	assert.Equal(t, "👤 Jefes de división:\n• Sistemas Computacionales: Mtra. Laura Pérez", c.DivisionHeads())
	assert.NotEmpty(t, Empty().DivisionHeads())
}

func TestQAByCategory(t *testing.T) {
	t.Parallel()
	c := testCatalog()
	assert.Len(t, c.QA(), 3)

	got := c.QAByCategory("Costos")
	require.Len(t, got, 1)
	assert.Equal(t, "inscripcion", got[0].Keyword)
	assert.Empty(t, c.QAByCategory("tramites"))
}

func TestCounts(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Counts{Majors: 3, Courses: 8, QA: 3}, testCatalog().Counts())
	assert.Equal(t, Counts{}, Empty().Counts())
}
