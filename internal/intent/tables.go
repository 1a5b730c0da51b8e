package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyellow/aulabot-go/internal/fuzzy"
)

// Intent labels understood by the dispatcher.
const (
	Courses      = "materias"
	Costs        = "costos"
	Location     = "ubicacion"
	Greeting     = "saludo"
	Learn        = "aprender"
	Help         = "ayuda"
	Majors       = "carreras"
	DivisionHead = "jefe"
	Procedures   = "tramites"
	Institution  = "institucional"
	StudentLife  = "vida_estudiantil"
)

// DefaultIntents returns the built-in intent table in declaration order.
func DefaultIntents() []Category {
	return []Category{
		{Label: Courses, Synonyms: []string{"materias", "clases", "asignaturas", "plan de estudios", "reticula", "que llevan"}},
		{Label: Costs, Synonyms: []string{"cuanto cuesta", "precio", "costo", "pagar", "inscripcion", "mensualidad"}},
		{Label: Location, Synonyms: []string{"donde estan", "ubicacion", "mapa", "direccion", "llegar"}},
		{Label: Greeting, Synonyms: []string{"hola", "buenos dias", "buenas", "que tal", "hey"}},
		{Label: Learn, Synonyms: []string{"aprender", "enseñar", "quiero enseñarte", "nuevo dato"}},
		{Label: Help, Synonyms: []string{"ayuda", "que puedes hacer", "opciones", "comandos", "help"}},
		{Label: Majors, Synonyms: []string{"carreras", "que carreras", "oferta educativa", "licenciaturas", "ingenierias"}},
		{Label: DivisionHead, Synonyms: []string{"jefe de division", "jefe de carrera", "coordinador", "director de carrera"}},
		{Label: Procedures, Synonyms: []string{"tramite", "requisitos", "documentos", "constancia", "titulacion", "servicio social", "residencia"}},
		{Label: Institution, Synonyms: []string{"mision", "vision", "historia del instituto", "acerca de", "quienes son"}},
		{Label: StudentLife, Synonyms: []string{"deportes", "talleres", "becas", "cafeteria", "biblioteca", "actividades"}},
	}
}

// DefaultMajors returns the built-in major synonym table. Labels are the
// full major names used in carreras.csv.
func DefaultMajors() []Category {
	return []Category{
		{Label: "Ingeniería en Sistemas Computacionales", Synonyms: []string{"sistemas", "programacion", "computacion", "desarrollo", "software", "codigo", "app", "web", "isc"}},
		{Label: "Ingeniería en Gestión Empresarial", Synonyms: []string{"gestion", "empresas", "administracion", "negocios", "ige", "gerencia"}},
		{Label: "Ingeniería Industrial", Synonyms: []string{"industrial", "procesos", "fabrica", "produccion", "logistica", "ii"}},
		{Label: "Ingeniería Mecatrónica", Synonyms: []string{"mecatronica", "robotica", "automatizacion", "mecanica", "electronica", "im"}},
	}
}

// Table is one synonym table as written in the YAML file.
type Table struct {
	Scorer     string     `yaml:"scorer"`
	Categories []Category `yaml:"categories"`
}

// Tables holds both classifier tables.
type Tables struct {
	Intents Table `yaml:"intents"`
	Majors  Table `yaml:"majors"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Intents: Table{Scorer: fuzzy.ScorerPartial, Categories: DefaultIntents()},
		Majors:  Table{Scorer: fuzzy.ScorerPartial, Categories: DefaultMajors()},
	}
}

// LoadTables reads a YAML override file. A table missing from the file
// keeps its default.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read intents file: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("parse intents file %s: %w", path, err)
	}

	merge(&tables.Intents, override.Intents)
	merge(&tables.Majors, override.Majors)
	for name, t := range map[string]Table{"intents": tables.Intents, "majors": tables.Majors} {
		if t.Scorer == "" {
			continue
		}
		if _, ok := fuzzy.ScorerByName(t.Scorer); !ok {
			return Tables{}, fmt.Errorf("intents file %s: unknown scorer %q for %s", path, t.Scorer, name)
		}
	}
	return tables, nil
}

func merge(dst *Table, src Table) {
	if src.Scorer != "" {
		dst.Scorer = src.Scorer
	}
	if len(src.Categories) > 0 {
		dst.Categories = src.Categories
	}
}

// Build returns a classifier for the table.
func (t Table) Build(threshold int) *Classifier {
	scorer, _ := fuzzy.ScorerByName(t.Scorer)
	return NewClassifier(t.Categories, threshold, scorer)
}
