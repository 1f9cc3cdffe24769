// Package catalog loads and validates the static assessment question catalogs.
package catalog

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"career-assessment-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ManifestFile lists the assessments of a catalog directory.
const ManifestFile = "assessments.json"

//go:embed data/*.json
var embedded embed.FS

type manifestEntry struct {
	ID              string `json:"id" validate:"required,excludesall=/"`
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes" validate:"gte=0"`
	Mode            string `json:"mode" validate:"required,oneof=additive normalized"`
	File            string `json:"file" validate:"required"`
}

type rawQuestion struct {
	ID       string      `json:"id" validate:"required"`
	Question string      `json:"question" validate:"required"`
	Category string      `json:"category" validate:"required"`
	Answers  []rawAnswer `json:"answers" validate:"required,min=1,dive"`
}

type rawAnswer struct {
	Text  string   `json:"text" validate:"required"`
	Score *float64 `json:"score" validate:"required"`
}

// Catalog is an immutable, validated set of assessments.
type Catalog struct {
	assessments []domain.Assessment
	byID        map[string]int
}

// New validates assessments built in code and wraps them in a Catalog.
func New(assessments ...domain.Assessment) (*Catalog, error) {
	errs := &LoadError{Source: "inline"}
	for i, a := range assessments {
		prefix := fmt.Sprintf("assessments[%d]", i)
		if a.ID == "" {
			errs.add(prefix+".id", "is required")
		}
		if !a.Mode.Valid() {
			errs.add(prefix+".mode", fmt.Sprintf("unknown scoring mode %q", a.Mode))
		}
		checkQuestions(errs, prefix, a.Questions)
	}
	c, err := build(assessments, errs)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads a catalog from a directory containing assessments.json.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load reads the manifest and every referenced question file from fsys.
// All problems are collected into a single *LoadError.
func Load(fsys fs.FS) (*Catalog, error) {
	errs := &LoadError{Source: ManifestFile}

	var manifest []manifestEntry
	if err := decodeFile(fsys, ManifestFile, &manifest); err != nil {
		errs.add(ManifestFile, err.Error())
		return nil, errs
	}

	v := validator.New()
	assessments := make([]domain.Assessment, 0, len(manifest))
	for i, entry := range manifest {
		prefix := fmt.Sprintf("%s[%d]", ManifestFile, i)
		if err := v.Struct(entry); err != nil {
			addValidationErrors(errs, prefix, err)
			continue
		}

		var raw []rawQuestion
		if err := decodeFile(fsys, path.Clean(entry.File), &raw); err != nil {
			errs.add(entry.File, err.Error())
			continue
		}

		questions := make([]domain.Question, 0, len(raw))
		for j, q := range raw {
			qPrefix := fmt.Sprintf("%s[%d]", entry.File, j)
			if err := v.Struct(q); err != nil {
				addValidationErrors(errs, qPrefix, err)
				continue
			}
			questions = append(questions, toQuestion(q))
		}
		checkQuestions(errs, entry.File, questions)

		assessments = append(assessments, domain.Assessment{
			ID:              entry.ID,
			Title:           entry.Title,
			Description:     entry.Description,
			DurationMinutes: entry.DurationMinutes,
			Mode:            domain.ScoringMode(entry.Mode),
			Questions:       questions,
		})
	}
	return build(assessments, errs)
}

// DecodeAssessment parses and validates a single assessment document, the
// format stored in the assessments table.
func DecodeAssessment(data []byte) (domain.Assessment, error) {
	var a domain.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Assessment{}, fmt.Errorf("decode assessment: %w", err)
	}
	c, err := New(a)
	if err != nil {
		return domain.Assessment{}, err
	}
	return c.assessments[0], nil
}

func build(assessments []domain.Assessment, errs *LoadError) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(assessments))}
	for i, a := range assessments {
		if _, dup := c.byID[a.ID]; dup {
			errs.add(fmt.Sprintf("assessments[%d].id", i), fmt.Sprintf("duplicate assessment id %q", a.ID))
			continue
		}
		c.byID[a.ID] = len(c.assessments)
		c.assessments = append(c.assessments, a)
	}
	if len(c.assessments) == 0 && len(errs.Issues) == 0 {
		errs.add(errs.Source, "catalog contains no assessments")
	}
	if len(errs.Issues) > 0 {
		return nil, errs
	}
	return c, nil
}

func checkQuestions(errs *LoadError, prefix string, questions []domain.Question) {
	if len(questions) == 0 {
		errs.add(prefix, "assessment has no questions")
	}
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		qPrefix := fmt.Sprintf("%s[%d]", prefix, i)
		switch {
		case q.ID == "":
			errs.add(qPrefix+".id", "is required")
		case seen[q.ID]:
			errs.add(qPrefix+".id", fmt.Sprintf("duplicate question id %q", q.ID))
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Category) == "" {
			errs.add(qPrefix+".category", "is required")
		}
		if q.Category == domain.TotalScoreKey {
			errs.add(qPrefix+".category", "is reserved")
		}
		if len(q.Options) == 0 {
			errs.add(qPrefix+".answers", "needs at least one option")
		}
	}
}

func toQuestion(q rawQuestion) domain.Question {
	opts := make([]domain.Option, len(q.Answers))
	for i, a := range q.Answers {
		opts[i] = domain.Option{Text: a.Text, Score: *a.Score}
	}
	return domain.Question{
		ID:       q.ID,
		Prompt:   q.Question,
		Category: q.Category,
		Options:  opts,
	}
}

func decodeFile(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func addValidationErrors(errs *LoadError, prefix string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add(prefix, err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		msg := "failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		errs.add(prefix+"."+field, msg)
	}
}

// Assessment returns the assessment with the given id.
func (c *Catalog) Assessment(id string) (domain.Assessment, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Assessment{}, false
	}
	return c.assessments[i], true
}

// Assessments returns every assessment in manifest order.
func (c *Catalog) Assessments() []domain.Assessment {
	out := make([]domain.Assessment, len(c.assessments))
	copy(out, c.assessments)
	return out
}

// IDs lists the assessment types in manifest order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.assessments))
	for i, a := range c.assessments {
		ids[i] = a.ID
	}
	return ids
}

// LoadAssessment lets a Catalog act as the backing loader of a cached repository.
func (c *Catalog) LoadAssessment(_ context.Context, id string) (domain.Assessment, error) {
	if a, ok := c.Assessment(id); ok {
		return a, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

// ListAssessments implements the loader listing contract.
func (c *Catalog) ListAssessments(_ context.Context) ([]domain.Assessment, error) {
	return c.Assessments(), nil
}
