package bot

import (
	"fmt"
	"slices"

	"github.com/garyellow/aulabot-go/internal/fuzzy"
	"github.com/garyellow/aulabot-go/internal/genai"
	"github.com/garyellow/aulabot-go/internal/intent"
	"github.com/garyellow/aulabot-go/internal/knowledge"
	"github.com/garyellow/aulabot-go/internal/session"
	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// generalCategories are intents answered from general.csv.
var generalCategories = []string{
	intent.Costs,
	intent.Location,
	intent.Procedures,
	intent.Institution,
	intent.StudentLife,
}

func (d *Dispatcher) intentAnswer(t *turn) (string, bool) {
	r := d.intents.Match(t.text)
	if !acceptMatch(r, t.text) {
		return "", false
	}
	d.metrics.RecordIntent(r.Label)

	reply, ok := d.handleIntent(t, r.Label)
	if ok {
		if t.route == "" {
			t.route = routeIntent
		}
		if t.topic == "" {
			t.topic = r.Label
		}
	}
	return reply, ok
}

func (d *Dispatcher) handleIntent(t *turn, label string) (string, bool) {
	switch label {
	case intent.Greeting:
		if t.rec.CapturedName != "" {
			return fmt.Sprintf(msgGreetNameFm, t.rec.CapturedName), true
		}
		d.apply(t, session.EventAskName)
		return msgGreeting + "\n" + msgAskName, true

	case intent.Learn:
		d.apply(t, session.EventStartLearning)
		t.route = routeLearning
		return msgLearnStart, true

	case intent.Help:
		return msgHelp, true

	case intent.Majors:
		return t.cat.MajorsList(), true

	case intent.DivisionHead:
		if major, ok := d.namedMajor(t.text); ok {
			return t.cat.DivisionHead(major), true
		}
		if t.rec.SelectedMajor != "" {
			return t.cat.DivisionHead(t.rec.SelectedMajor), true
		}
		return t.cat.DivisionHeads(), true

	case intent.Courses:
		return d.coursesIntent(t), true
	}

	if slices.Contains(generalCategories, label) {
		return d.categoryAnswer(t, label)
	}
	return "", false
}

// coursesIntent answers "materias ...".
func (d *Dispatcher) coursesIntent(t *turn) string {
	if major, ok := d.namedMajor(t.text); ok {
		d.selectMajor(t, major)
		d.apply(t, session.EventBrowse)
		t.route = routeCourses
		return t.cat.AllCourses(major)
	}
	if t.rec.SelectedMajor == "" {
		return fmt.Sprintf(msgWhichMajorFm, t.cat.MajorsList())
	}
	if t.rec.Browsing() {
		if reply, ok := d.browseCommand(t); ok {
			return reply
		}
	}
	return d.browse(t)
}

// categoryAnswer picks the best general.csv entry of a category, or asks
// the model with retrieved context when the category has none.
func (d *Dispatcher) categoryAnswer(t *turn, category string) (string, bool) {
	entries := t.cat.QAByCategory(category)
	if len(entries) > 0 {
		best := bestQA(t.text, entries)
		t.route = routeGeneral
		return d.maybeRephrase(t, best.Answer), true
	}

	req := genai.Request{Question: t.text, History: t.rec.RecentTurns}
	if d.index != nil {
		req.Context = d.index.Context(t.text, d.contextDocs)
	}
	if answer, ok := d.ask(t, req); ok {
		t.route = routeModel
		return answer, true
	}
	return "", false
}

// bestQA returns the entry whose keyword scores highest against text.
// Ties keep the first entry.
func bestQA(text string, entries []knowledge.GeneralQA) knowledge.GeneralQA {
	query := stringutil.FullProcess(text)
	best, bestScore := entries[0], -1
	for _, e := range entries {
		if s := fuzzy.PartialRatio(stringutil.FullProcess(e.Keyword), query); s > bestScore {
			best, bestScore = e, s
		}
	}
	return best
}

// namedMajor returns the major the message names, if any.
func (d *Dispatcher) namedMajor(text string) (string, bool) {
	r := d.majors.Match(text)
	if !acceptMatch(r, text) {
		return "", false
	}
	return r.Label, true
}

func (d *Dispatcher) selectMajor(t *turn, major string) {
	t.rec.SelectedMajor = major
	d.apply(t, session.EventSelectMajor)
	t.topic = major
}

// majorAnswer selects the major the message names and shows its card.
// Naming the major already being browsed falls through to browsing.
func (d *Dispatcher) majorAnswer(t *turn) (string, bool) {
	major, ok := d.namedMajor(t.text)
	if !ok {
		return "", false
	}
	if t.rec.Browsing() && major == t.rec.SelectedMajor {
		return "", false
	}
	d.selectMajor(t, major)
	t.route = routeMajor
	return t.cat.MajorCard(major), true
}

// courseAnswer handles messages while a major is selected.
func (d *Dispatcher) courseAnswer(t *turn) (string, bool) {
	if t.rec.SelectedMajor == "" {
		return "", false
	}
	if t.rec.Browsing() {
		if reply, ok := d.browseCommand(t); ok {
			return reply, true
		}
	}
	if stringutil.HasToken(t.text, affirmativeWords...) {
		return d.browse(t), true
	}
	return "", false
}

// browseCommand understands "todas", a semester number or a course name.
func (d *Dispatcher) browseCommand(t *turn) (string, bool) {
	major := t.rec.SelectedMajor
	t.topic = major

	if stringutil.HasToken(t.text, allWords...) {
		t.route = routeCourses
		return t.cat.AllCourses(major), true
	}
	if n, ok := stringutil.FirstNumber(t.text); ok {
		t.route = routeCourses
		return t.cat.CoursesForSemester(major, n), true
	}

	names := t.cat.CourseNames(major)
	if len(names) == 0 {
		return "", false
	}
	processed := make([]string, len(names))
	for i, n := range names {
		processed[i] = stringutil.FullProcess(n)
	}
	m, err := fuzzy.ExtractOne(stringutil.FullProcess(t.text), processed, fuzzy.PartialRatio)
	if err != nil || m.Score <= d.thresholds.Course {
		return "", false
	}
	course, ok := t.cat.FindCourse(major, names[m.Index])
	if !ok {
		return "", false
	}
	t.route = routeCourses
	return knowledge.CourseSummary(course), true
}

// generalAnswer matches general.csv keywords against the message.
func (d *Dispatcher) generalAnswer(t *turn) (string, bool) {
	if tooShort(t.text) {
		return "", false
	}
	query := stringutil.FullProcess(t.text)
	best, bestScore := knowledge.GeneralQA{}, -1
	for _, e := range t.cat.QA() {
		if s := fuzzy.PartialRatio(stringutil.FullProcess(e.Keyword), query); s > bestScore {
			best, bestScore = e, s
		}
	}
	if bestScore <= d.thresholds.General {
		return "", false
	}
	t.route = routeGeneral
	t.topic = best.Category
	return d.maybeRephrase(t, best.Answer), true
}

// maybeRephrase lets the model restate a table answer when enabled.
func (d *Dispatcher) maybeRephrase(t *turn, answer string) string {
	if !d.rephrase {
		return answer
	}
	if out, ok := d.ask(t, genai.RephraseRequest(t.text, answer)); ok {
		return out
	}
	return answer
}
