// Package catalog is the authoring and browsing side of courses: teachers
// build courses, admins publish them, everyone searches the public ones.
package catalog

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/identity"
)

type CourseInput struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	ProfileImage string `json:"profileImage"`
}

type ModuleInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Position int    `json:"position" validate:"gte=0"`
}

type LectureInput struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"omitempty,url"`
}

type AnswerInput struct {
	Text    string `json:"answerText" validate:"required"`
	Correct bool   `json:"correct"`
}

type QuestionInput struct {
	Text    string        `json:"questionText" validate:"required"`
	Answers []AnswerInput `json:"answers" validate:"min=2,dive"`
}

type QuizInput struct {
	Title           string          `json:"title" validate:"required,max=200"`
	PassingScore    int             `json:"passingScore" validate:"lte=100"`
	DurationMinutes int             `json:"durationInMinutes" validate:"gte=0"`
	QuestionCount   int             `json:"questionCount" validate:"gte=0"`
	Questions       []QuestionInput `json:"questions" validate:"dive"`
}

var validate = validator.New()

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperr.Invalid(err.Error())
	}
	return nil
}

type Service struct {
	store        course.Store
	passingScore int
}

type Option func(*Service)

// WithDefaultPassingScore sets the score used when a quiz is authored
// without a positive passing score.
func WithDefaultPassingScore(n int) Option { return func(s *Service) { s.passingScore = n } }

func NewService(store course.Store, opts ...Option) *Service {
	s := &Service{store: store, passingScore: course.DefaultPassingScore}
	for _, o := range opts {
		o(s)
	}
	return s
}

// canEdit reports whether who may change a course: its teacher or any admin.
func canEdit(who identity.Identity, c course.Course) error {
	switch w := who.(type) {
	case identity.Admin:
		return nil
	case identity.Teacher:
		if w.ID == c.TeacherID {
			return nil
		}
		return apperr.Unauthorized("course belongs to another teacher")
	default:
		return apperr.Unauthorized("only the course teacher may change it")
	}
}

func requireAdmin(who identity.Identity) error {
	if _, ok := who.(identity.Admin); !ok {
		return apperr.Unauthorized("admin only")
	}
	return nil
}

/* -------------------- courses -------------------- */

// CreateCourse creates a private course owned by the calling teacher.
func (s *Service) CreateCourse(ctx context.Context, who identity.Identity, in CourseInput) (course.Course, error) {
	tid, err := identity.TeacherID(who)
	if err != nil {
		return course.Course{}, err
	}
	if err := check(in); err != nil {
		return course.Course{}, err
	}
	c := course.Course{Title: in.Title, Description: in.Description, ProfileImage: in.ProfileImage, TeacherID: tid}
	err = s.store.InTx(ctx, func(r course.Repository) error {
		if _, err := r.GetTeacher(ctx, tid); err != nil {
			return err
		}
		return r.CreateCourse(ctx, &c)
	})
	if err == nil {
		log.Printf("course %d created by teacher %d", c.ID, tid)
	}
	return c, err
}

func (s *Service) EditCourse(ctx context.Context, who identity.Identity, id int64, in CourseInput) (course.Course, error) {
	if err := check(in); err != nil {
		return course.Course{}, err
	}
	var out course.Course
	err := s.store.InTx(ctx, func(r course.Repository) error {
		c, err := r.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		if err := canEdit(who, c); err != nil {
			return err
		}
		c.Title, c.Description = in.Title, in.Description
		if in.ProfileImage != "" {
			c.ProfileImage = in.ProfileImage
		}
		if err := r.UpdateCourse(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) DeleteCourse(ctx context.Context, who identity.Identity, id int64) error {
	return s.store.InTx(ctx, func(r course.Repository) error {
		c, err := r.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		if err := canEdit(who, c); err != nil {
			return err
		}
		return r.DeleteCourse(ctx, id)
	})
}

// Approve publishes a course.
func (s *Service) Approve(ctx context.Context, who identity.Identity, id int64) (course.Course, error) {
	return s.setPublic(ctx, who, id, true)
}

// Disallow hides a course from the public catalogue.
func (s *Service) Disallow(ctx context.Context, who identity.Identity, id int64) (course.Course, error) {
	return s.setPublic(ctx, who, id, false)
}

func (s *Service) setPublic(ctx context.Context, who identity.Identity, id int64, public bool) (course.Course, error) {
	if err := requireAdmin(who); err != nil {
		return course.Course{}, err
	}
	var out course.Course
	err := s.store.InTx(ctx, func(r course.Repository) error {
		c, err := r.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		c.IsPublic = public
		if err := r.UpdateCourse(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

/* -------------------- structure -------------------- */

func (s *Service) CreateModule(ctx context.Context, who identity.Identity, courseID int64, in ModuleInput) (course.Module, error) {
	if err := check(in); err != nil {
		return course.Module{}, err
	}
	m := course.Module{CourseID: courseID, Title: in.Title, Position: in.Position}
	err := s.store.InTx(ctx, func(r course.Repository) error {
		c, err := r.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if err := canEdit(who, c); err != nil {
			return err
		}
		return r.CreateModule(ctx, &m)
	})
	return m, err
}

// ownerOfModule loads the module's course and checks who may edit it.
func ownerOfModule(ctx context.Context, r course.Repository, who identity.Identity, moduleID int64) error {
	m, err := r.GetModule(ctx, moduleID)
	if err != nil {
		return err
	}
	c, err := r.GetCourse(ctx, m.CourseID)
	if err != nil {
		return err
	}
	return canEdit(who, c)
}

func (s *Service) CreateLecture(ctx context.Context, who identity.Identity, moduleID int64, in LectureInput) (course.Lecture, error) {
	if err := check(in); err != nil {
		return course.Lecture{}, err
	}
	l := course.Lecture{ModuleID: moduleID, Title: in.Title, URL: in.URL}
	err := s.store.InTx(ctx, func(r course.Repository) error {
		if err := ownerOfModule(ctx, r, who, moduleID); err != nil {
			return err
		}
		return r.CreateLecture(ctx, &l)
	})
	return l, err
}

// CreateQuiz authors a quiz. A non-positive passing score takes the default;
// QuestionCount is stored as given.
func (s *Service) CreateQuiz(ctx context.Context, who identity.Identity, moduleID int64, in QuizInput) (course.Quiz, error) {
	if err := check(in); err != nil {
		return course.Quiz{}, err
	}
	q := course.Quiz{
		ModuleID:        moduleID,
		Title:           in.Title,
		PassingScore:    in.PassingScore,
		DurationMinutes: in.DurationMinutes,
		QuestionCount:   in.QuestionCount,
	}
	if q.PassingScore <= 0 {
		q.PassingScore = s.passingScore
	}
	for _, qi := range in.Questions {
		qq := course.Question{Text: qi.Text, Type: course.QuestionTypeSingleChoice}
		for _, ai := range qi.Answers {
			qq.Answers = append(qq.Answers, course.Answer{Text: ai.Text, Correct: ai.Correct})
		}
		q.Questions = append(q.Questions, qq)
	}
	err := s.store.InTx(ctx, func(r course.Repository) error {
		if err := ownerOfModule(ctx, r, who, moduleID); err != nil {
			return err
		}
		return r.CreateQuiz(ctx, &q)
	})
	return q, err
}

func (s *Service) DeleteQuiz(ctx context.Context, who identity.Identity, quizID int64) error {
	return s.store.InTx(ctx, func(r course.Repository) error {
		q, err := r.GetQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		if err := ownerOfModule(ctx, r, who, q.ModuleID); err != nil {
			return err
		}
		return r.DeleteQuiz(ctx, quizID)
	})
}

/* -------------------- browsing -------------------- */

// SearchPublic matches public courses whose title or description contains
// query, ignoring case. An empty query lists every public course.
func (s *Service) SearchPublic(ctx context.Context, query string) ([]course.Course, error) {
	public := true
	var out []course.Course
	err := s.store.InTx(ctx, func(r course.Repository) error {
		var err error
		out, err = r.ListCourses(ctx, course.CourseFilter{Public: &public, Q: strings.TrimSpace(query)})
		return err
	})
	return nonNil(out), err
}

// ByCategories returns public courses matching any tag of the named
// categories, each course once.
func (s *Service) ByCategories(ctx context.Context, names []string) ([]course.Course, error) {
	if len(names) == 0 {
		return nil, apperr.InvalidState("no categories given", nil)
	}
	var tags []string
	for _, n := range names {
		t, ok := Tags(n)
		if !ok {
			return nil, apperr.InvalidState("unknown category", n)
		}
		tags = append(tags, t...)
	}

	public := true
	seen := map[int64]course.Course{}
	err := s.store.InTx(ctx, func(r course.Repository) error {
		for _, tag := range tags {
			cs, err := r.ListCourses(ctx, course.CourseFilter{Public: &public, Q: tag})
			if err != nil {
				return err
			}
			for _, c := range cs {
				seen[c.ID] = c
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]course.Course, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PrivateCourses is the admin review queue.
func (s *Service) PrivateCourses(ctx context.Context, who identity.Identity) ([]course.Course, error) {
	if err := requireAdmin(who); err != nil {
		return nil, err
	}
	private := false
	var out []course.Course
	err := s.store.InTx(ctx, func(r course.Repository) error {
		var err error
		out, err = r.ListCourses(ctx, course.CourseFilter{Public: &private})
		return err
	})
	return nonNil(out), err
}

func nonNil(cs []course.Course) []course.Course {
	if cs == nil {
		return []course.Course{}
	}
	return cs
}

/* -------------------- lectures -------------------- */

// LectureView carries the viewed flag for students only.
type LectureView struct {
	course.Lecture
	Viewed *bool `json:"viewed,omitempty"`
}

func (s *Service) GetLecture(ctx context.Context, who identity.Identity, id int64) (LectureView, error) {
	var out LectureView
	err := s.store.InTx(ctx, func(r course.Repository) error {
		l, err := r.GetLecture(ctx, id)
		if err != nil {
			return err
		}
		out.Lecture = l
		if st, ok := who.(identity.Student); ok {
			v, err := r.HasViewedLecture(ctx, st.ID, id)
			if err != nil {
				return err
			}
			out.Viewed = &v
		}
		return nil
	})
	return out, err
}

// MarkLectureViewed records that the calling student opened a lecture.
// Marking twice is a no-op.
func (s *Service) MarkLectureViewed(ctx context.Context, who identity.Identity, id int64) error {
	sid, err := identity.StudentID(who)
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(r course.Repository) error {
		if _, err := r.GetStudent(ctx, sid); err != nil {
			return err
		}
		if _, err := r.GetLecture(ctx, id); err != nil {
			return err
		}
		seen, err := r.HasViewedLecture(ctx, sid, id)
		if err != nil || seen {
			return err
		}
		return r.CreateLectureView(ctx, course.LectureView{StudentID: sid, LectureID: id})
	})
}
