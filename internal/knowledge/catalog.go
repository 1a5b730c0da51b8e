package knowledge

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// displayPrefixes are stripped from major names in short listings, first
// match wins.
var displayPrefixes = []string{"Ingeniería en ", "Ingeniería ", "Licenciatura en "}

// Catalog is an immutable snapshot of the reference tables. All lookups are
// total: they never fail and never return empty text.
type Catalog struct {
	majors  []Major
	courses []Course
	qa      []GeneralQA

	majorIdx  map[string]int
	byMajor   map[string][]Course
	coursesOf map[string][]string
}

// Counts summarizes a catalog.
type Counts struct {
	Majors  int
	Courses int
	QA      int
}

// NewCatalog indexes the given records. Slices are kept as passed and must
// not be modified afterwards.
func NewCatalog(majors []Major, courses []Course, qa []GeneralQA) *Catalog {
	c := &Catalog{
		majors:    majors,
		courses:   courses,
		qa:        qa,
		majorIdx:  make(map[string]int, len(majors)),
		byMajor:   make(map[string][]Course),
		coursesOf: make(map[string][]string),
	}
	for i, m := range majors {
		key := lookupKey(m.Name)
		if _, dup := c.majorIdx[key]; !dup {
			c.majorIdx[key] = i
		}
	}
	for _, course := range courses {
		key := lookupKey(course.Major)
		c.byMajor[key] = append(c.byMajor[key], course)
		c.coursesOf[key] = append(c.coursesOf[key], course.Name)
	}
	return c
}

// Empty returns a catalog with no records.
func Empty() *Catalog {
	return NewCatalog(nil, nil, nil)
}

func lookupKey(name string) string {
	return strings.TrimSpace(stringutil.Normalize(name))
}

// Counts returns the number of records per table.
func (c *Catalog) Counts() Counts {
	return Counts{Majors: len(c.majors), Courses: len(c.courses), QA: len(c.qa)}
}

// Majors returns the majors in file order.
func (c *Catalog) Majors() []Major {
	return c.majors
}

// DisplayName shortens a major name for listings.
func DisplayName(name string) string {
	for _, p := range displayPrefixes {
		if rest, ok := strings.CutPrefix(name, p); ok && rest != "" {
			return rest
		}
	}
	return name
}

// MajorsList returns a numbered list of the majors.
func (c *Catalog) MajorsList() string {
	if len(c.majors) == 0 {
		return "No tengo carreras registradas por el momento."
	}
	var b strings.Builder
	b.WriteString("📚 Carreras disponibles:")
	for i, m := range c.majors {
		fmt.Fprintf(&b, "\n%d. %s", i+1, DisplayName(m.Name))
	}
	return b.String()
}

// FindMajor looks a major up by name, ignoring case and accents.
func (c *Catalog) FindMajor(name string) (Major, bool) {
	i, ok := c.majorIdx[lookupKey(name)]
	if !ok {
		return Major{}, false
	}
	return c.majors[i], true
}

// MajorCard is the short presentation of a major.
func (c *Catalog) MajorCard(name string) string {
	m, ok := c.FindMajor(name)
	if !ok {
		return fmt.Sprintf("🎓 **%s**\n¿Quieres ver materias?", name)
	}
	desc := m.Description
	if desc == "" {
		desc = "Sin descripción registrada."
	}
	return fmt.Sprintf("🎓 **%s**\n%s\n¿Quieres ver materias?", m.Name, desc)
}

func courseLine(course Course) string {
	var b strings.Builder
	b.WriteString("• ")
	if course.Code != "" {
		b.WriteString(course.Code)
		b.WriteString(" ")
	}
	b.WriteString(course.Name)
	if course.Hours != "" {
		fmt.Fprintf(&b, " (%s h)", course.Hours)
	}
	return b.String()
}

type semesterGroup struct {
	label   string
	courses []Course
}

// groupBySemester orders numeric semesters ascending, then non-numeric
// labels in first-seen order. Each label appears once.
func groupBySemester(courses []Course) []semesterGroup {
	numeric := map[int]*semesterGroup{}
	var numbers []int
	other := map[string]*semesterGroup{}
	var otherOrder []string

	for _, course := range courses {
		label := strings.TrimSpace(course.Semester)
		if n, err := strconv.Atoi(label); err == nil {
			g, ok := numeric[n]
			if !ok {
				g = &semesterGroup{label: strconv.Itoa(n)}
				numeric[n] = g
				numbers = append(numbers, n)
			}
			g.courses = append(g.courses, course)
			continue
		}
		if label == "" {
			label = "sin semestre"
		}
		g, ok := other[label]
		if !ok {
			g = &semesterGroup{label: label}
			other[label] = g
			otherOrder = append(otherOrder, label)
		}
		g.courses = append(g.courses, course)
	}

	slices.Sort(numbers)

	groups := make([]semesterGroup, 0, len(numbers)+len(otherOrder))
	for _, n := range numbers {
		groups = append(groups, *numeric[n])
	}
	for _, label := range otherOrder {
		groups = append(groups, *other[label])
	}
	return groups
}

func (c *Catalog) majorTitle(major string) string {
	if m, ok := c.FindMajor(major); ok {
		return m.Name
	}
	return major
}

// AllCourses lists every course of a major grouped by semester.
func (c *Catalog) AllCourses(major string) string {
	courses := c.byMajor[lookupKey(major)]
	if len(courses) == 0 {
		return fmt.Sprintf("No encontré materias registradas para %s.", c.majorTitle(major))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📚 Materias de %s:", c.majorTitle(major))
	for _, g := range groupBySemester(courses) {
		fmt.Fprintf(&b, "\n\n📅 Semestre %s:", g.label)
		for _, course := range g.courses {
			b.WriteString("\n")
			b.WriteString(courseLine(course))
		}
	}
	return b.String()
}

// CoursesForSemester lists the courses of one semester.
func (c *Catalog) CoursesForSemester(major string, semester int) string {
	var lines []string
	for _, course := range c.byMajor[lookupKey(major)] {
		if n, err := strconv.Atoi(strings.TrimSpace(course.Semester)); err == nil && n == semester {
			lines = append(lines, courseLine(course))
		}
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No hay materias registradas para el semestre %d de %s.", semester, c.majorTitle(major))
	}
	return fmt.Sprintf("📅 Semestre %d de %s:\n%s", semester, c.majorTitle(major), strings.Join(lines, "\n"))
}

// CourseNames returns the course names of a major in file order.
func (c *Catalog) CourseNames(major string) []string {
	return c.coursesOf[lookupKey(major)]
}

// FindCourse returns the course of a major with exactly this name.
func (c *Catalog) FindCourse(major, name string) (Course, bool) {
	for _, course := range c.byMajor[lookupKey(major)] {
		if course.Name == name {
			return course, true
		}
	}
	return Course{}, false
}

// CourseSummary is the one-line description of a matched course.
func CourseSummary(course Course) string {
	label := strings.TrimSpace(course.Semester)
	if label == "" {
		label = "?"
	}
	s := fmt.Sprintf("📘 %s (Semestre %s)", course.Name, label)
	if course.Prerequisite != "" {
		s += fmt.Sprintf("\nPrerrequisito: %s", course.Prerequisite)
	}
	return s
}

// DivisionHead names the head of a major's division.
func (c *Catalog) DivisionHead(major string) string {
	m, ok := c.FindMajor(major)
	if !ok {
		return fmt.Sprintf("No encontré la carrera %s.", major)
	}
	if m.DivisionHead == "" {
		return fmt.Sprintf("No tengo registrado al jefe de división de %s.", m.Name)
	}
	return fmt.Sprintf("👤 Jefe(a) de división de %s: %s", m.Name, m.DivisionHead)
}

// DivisionHeads lists every registered division head.
func (c *Catalog) DivisionHeads() string {
	var b strings.Builder
	for _, m := range c.majors {
		if m.DivisionHead == "" {
			continue
		}
		fmt.Fprintf(&b, "\n• %s: %s", DisplayName(m.Name), m.DivisionHead)
	}
	if b.Len() == 0 {
		return "No tengo registrados jefes de división por el momento."
	}
	return "👤 Jefes de división:" + b.String()
}

// QA returns the general questions in file order.
func (c *Catalog) QA() []GeneralQA {
	return c.qa
}

// QAByCategory returns the general questions of one category.
func (c *Catalog) QAByCategory(category string) []GeneralQA {
	want := lookupKey(category)
	var out []GeneralQA
	for _, q := range c.qa {
		if lookupKey(q.Category) == want {
			out = append(out, q)
		}
	}
	return out
}
