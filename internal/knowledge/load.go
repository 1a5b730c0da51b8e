package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/garyellow/aulabot-go/internal/errors"
	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// Reference table file names inside the data directory.
const (
	GeneralFile = "general.csv"
	MajorsFile  = "carreras.csv"
	CoursesFile = "materias.csv"
)

// Files lists the table files in load order.
var Files = []string{GeneralFile, MajorsFile, CoursesFile}

// Report describes what a load tolerated.
type Report struct {
	// Missing lists table files that did not exist and loaded as empty.
	Missing []string
	// Skipped counts rows dropped by validation, per file.
	Skipped map[string]int
}

// column lists the accepted header names for one field.
type column struct {
	names []string
}

type table struct {
	header map[string]int
}

func (t table) get(row []string, col column) string {
	for _, name := range col.names {
		if i, ok := t.header[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

var (
	colKeyword  = column{names: []string{"palabra_clave"}}
	colCategory = column{names: []string{"categoria"}}
	colAnswer   = column{names: []string{"respuesta"}}

	colName        = column{names: []string{"nombre"}}
	colCode        = column{names: []string{"codigo"}}
	colDescription = column{names: []string{"descripcion"}}
	colDuration    = column{names: []string{"duracion"}}
	colAdmission   = column{names: []string{"perfil_ingreso"}}
	colGraduate    = column{names: []string{"perfil_egreso"}}
	colSpecialty   = column{names: []string{"especialidad"}}
	colHead        = column{names: []string{"jefe_division"}}

	colMajor        = column{names: []string{"carrera"}}
	colCourseCode   = column{names: []string{"clave"}}
	colCourse       = column{names: []string{"materia"}}
	colSemester     = column{names: []string{"semestre"}}
	colHours        = column{names: []string{"horas", "creditos"}}
	colPrerequisite = column{names: []string{"prerequisito", "prerrequisito"}}
)

// Load reads the three tables from dir concurrently. A missing file loads
// as an empty table and is listed in the report; any other read or parse
// failure is returned as an error.
func Load(ctx context.Context, dir string) (*Catalog, Report, error) {
	var (
		qa      []GeneralQA
		majors  []Major
		courses []Course
		results [3]fileResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results[0], err = readTable(ctx, filepath.Join(dir, GeneralFile),
			[]column{colKeyword, colAnswer}, func(t table, row []string) error {
				rec := GeneralQA{
					Keyword:  t.get(row, colKeyword),
					Category: t.get(row, colCategory),
					Answer:   t.get(row, colAnswer),
				}
				if err := validate.Struct(rec); err != nil {
					return err
				}
				if rec.Category == "" {
					rec.Category = "general"
				}
				qa = append(qa, rec)
				return nil
			})
		return err
	})
	g.Go(func() error {
		var err error
		results[1], err = readTable(ctx, filepath.Join(dir, MajorsFile),
			[]column{colName}, func(t table, row []string) error {
				rec := Major{
					Name:             t.get(row, colName),
					Code:             t.get(row, colCode),
					Description:      t.get(row, colDescription),
					Duration:         t.get(row, colDuration),
					AdmissionProfile: t.get(row, colAdmission),
					GraduateProfile:  t.get(row, colGraduate),
					Specialty:        t.get(row, colSpecialty),
					DivisionHead:     t.get(row, colHead),
				}
				if err := validate.Struct(rec); err != nil {
					return err
				}
				majors = append(majors, rec)
				return nil
			})
		return err
	})
	g.Go(func() error {
		var err error
		results[2], err = readTable(ctx, filepath.Join(dir, CoursesFile),
			[]column{colMajor, colCourse}, func(t table, row []string) error {
				rec := Course{
					Major:        t.get(row, colMajor),
					Code:         t.get(row, colCourseCode),
					Name:         t.get(row, colCourse),
					Semester:     t.get(row, colSemester),
					Hours:        t.get(row, colHours),
					Prerequisite: t.get(row, colPrerequisite),
				}
				if err := validate.Struct(rec); err != nil {
					return err
				}
				courses = append(courses, rec)
				return nil
			})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, Report{}, err
	}

	report := Report{Skipped: map[string]int{}}
	for i, r := range results {
		if r.missing {
			report.Missing = append(report.Missing, Files[i])
		}
		if r.skipped > 0 {
			report.Skipped[Files[i]] = r.skipped
		}
	}
	return NewCatalog(majors, courses, qa), report, nil
}

type fileResult struct {
	missing bool
	skipped int
}

// readTable parses one CSV file. accept returns an error for rows that
// fail validation; those rows are counted and skipped.
func readTable(ctx context.Context, path string, required []column, accept func(table, []string) error) (fileResult, error) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileResult{missing: true}, nil
	}
	if err != nil {
		return fileResult{}, apperrors.NewTableError(name, 0, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		// An empty file is an empty table.
		return fileResult{}, nil
	}
	if err != nil {
		return fileResult{}, apperrors.NewTableError(name, 1, err)
	}

	t := table{header: make(map[string]int, len(head))}
	for i, h := range head {
		h = strings.TrimPrefix(h, "\ufeff")
		t.header[stringutil.Normalize(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		found := false
		for _, n := range col.names {
			if _, ok := t.header[n]; ok {
				found = true
				break
			}
		}
		if !found {
			return fileResult{}, apperrors.NewTableError(name, 1,
				fmt.Errorf("missing column %s", strings.Join(col.names, "|")))
		}
	}

	var res fileResult
	for {
		if err := ctx.Err(); err != nil {
			return fileResult{}, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			return fileResult{}, apperrors.NewTableError(name, line, err)
		}
		if isBlank(row) {
			continue
		}
		if accept(t, row) != nil {
			res.skipped++
		}
	}
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
