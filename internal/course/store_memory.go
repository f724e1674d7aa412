package course

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

type enrollKey struct{ student, course int64 }

type viewKey struct{ student, lecture int64 }

type memUser struct {
	User
	first, last string
}

type memData struct {
	seq          int64
	users        map[int64]memUser
	courses      map[int64]Course
	modules      map[int64]Module
	lectures     map[int64]Lecture
	views        map[viewKey]LectureView
	quizzes      map[int64]Quiz
	attempts     map[int64]QuizAttempt
	attemptAns   map[int64]QuizAttemptAnswer
	enrollments  map[enrollKey]Enrollment
	certificates map[int64]Certificate
	events       []syncx.Event
}

func newMemData() *memData {
	return &memData{
		users:        map[int64]memUser{},
		courses:      map[int64]Course{},
		modules:      map[int64]Module{},
		lectures:     map[int64]Lecture{},
		views:        map[viewKey]LectureView{},
		quizzes:      map[int64]Quiz{},
		attempts:     map[int64]QuizAttempt{},
		attemptAns:   map[int64]QuizAttemptAnswer{},
		enrollments:  map[enrollKey]Enrollment{},
		certificates: map[int64]Certificate{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	c.seq = d.seq
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.courses {
		c.courses[k] = v
	}
	for k, v := range d.modules {
		c.modules[k] = v
	}
	for k, v := range d.lectures {
		c.lectures[k] = v
	}
	for k, v := range d.views {
		c.views[k] = v
	}
	for k, v := range d.quizzes {
		c.quizzes[k] = cloneQuiz(v)
	}
	for k, v := range d.attempts {
		c.attempts[k] = v
	}
	for k, v := range d.attemptAns {
		c.attemptAns[k] = v
	}
	for k, v := range d.enrollments {
		c.enrollments[k] = v
	}
	for k, v := range d.certificates {
		c.certificates[k] = v
	}
	c.events = append([]syncx.Event(nil), d.events...)
	return c
}

func cloneQuiz(q Quiz) Quiz {
	if q.Questions == nil {
		return q
	}
	qs := make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Answers = append([]Answer(nil), qq.Answers...)
		qs[i] = qq
	}
	q.Questions = qs
	return q
}

// MemoryStore keeps everything in process. InTx serialises units of work and
// restores a snapshot when fn fails. Writes made outside InTx wait for the
// open unit of work so a rollback cannot discard them.
type MemoryStore struct {
	*memRepo
	txMu sync.Mutex
}

type memRepo struct {
	mu sync.Mutex
	d  *memData
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{memRepo: &memRepo{d: newMemData()}} }

func (m *MemoryStore) InTx(ctx context.Context, fn func(Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.d.clone()
	m.mu.Unlock()

	if err := fn(m.memRepo); err != nil {
		m.mu.Lock()
		m.d = snap
		m.mu.Unlock()
		return err
	}
	return nil
}

// Events returns a copy of the appended event log.
func (m *MemoryStore) Events() []syncx.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]syncx.Event(nil), m.d.events...)
}

func (m *MemoryStore) write(fn func() error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn()
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *User, firstName, lastName string) error {
	return m.write(func() error { return m.memRepo.CreateUser(ctx, u, firstName, lastName) })
}

func (m *MemoryStore) CreateCourse(ctx context.Context, c *Course) error {
	return m.write(func() error { return m.memRepo.CreateCourse(ctx, c) })
}

func (m *MemoryStore) UpdateCourse(ctx context.Context, c Course) error {
	return m.write(func() error { return m.memRepo.UpdateCourse(ctx, c) })
}

func (m *MemoryStore) DeleteCourse(ctx context.Context, id int64) error {
	return m.write(func() error { return m.memRepo.DeleteCourse(ctx, id) })
}

func (m *MemoryStore) CreateModule(ctx context.Context, mod *Module) error {
	return m.write(func() error { return m.memRepo.CreateModule(ctx, mod) })
}

func (m *MemoryStore) CreateLecture(ctx context.Context, l *Lecture) error {
	return m.write(func() error { return m.memRepo.CreateLecture(ctx, l) })
}

func (m *MemoryStore) CreateLectureView(ctx context.Context, v LectureView) error {
	return m.write(func() error { return m.memRepo.CreateLectureView(ctx, v) })
}

func (m *MemoryStore) CreateQuiz(ctx context.Context, q *Quiz) error {
	return m.write(func() error { return m.memRepo.CreateQuiz(ctx, q) })
}

func (m *MemoryStore) DeleteQuiz(ctx context.Context, id int64) error {
	return m.write(func() error { return m.memRepo.DeleteQuiz(ctx, id) })
}

func (m *MemoryStore) CreateAttempt(ctx context.Context, a *QuizAttempt) error {
	return m.write(func() error { return m.memRepo.CreateAttempt(ctx, a) })
}

func (m *MemoryStore) CreateAttemptAnswer(ctx context.Context, aa *QuizAttemptAnswer) error {
	return m.write(func() error { return m.memRepo.CreateAttemptAnswer(ctx, aa) })
}

func (m *MemoryStore) CreateEnrollment(ctx context.Context, e Enrollment) error {
	return m.write(func() error { return m.memRepo.CreateEnrollment(ctx, e) })
}

func (m *MemoryStore) SaveEnrollment(ctx context.Context, e Enrollment) error {
	return m.write(func() error { return m.memRepo.SaveEnrollment(ctx, e) })
}

func (m *MemoryStore) CreateCertificate(ctx context.Context, c *Certificate) error {
	return m.write(func() error { return m.memRepo.CreateCertificate(ctx, c) })
}

func (m *MemoryStore) AppendEvent(ctx context.Context, e syncx.Event) error {
	return m.write(func() error { return m.memRepo.AppendEvent(ctx, e) })
}

func (m *memRepo) next() int64 {
	m.d.seq++
	return m.d.seq
}

/* -------------------- users -------------------- */

func (m *memRepo) CreateUser(ctx context.Context, u *User, firstName, lastName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.d.users {
		if strings.EqualFold(x.Email, u.Email) {
			return apperr.AlreadyExists("email already registered", u.Email)
		}
	}
	u.ID = m.next()
	m.d.users[u.ID] = memUser{User: *u, first: firstName, last: lastName}
	return nil
}

func (m *memRepo) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.d.users[id]
	if !ok {
		return User{}, apperr.NotFound("user", id)
	}
	return u.User, nil
}

func (m *memRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.d.users {
		if strings.EqualFold(x.Email, email) {
			return x.User, nil
		}
	}
	return User{}, apperr.NotFound("user", email)
}

func (m *memRepo) GetStudent(ctx context.Context, id int64) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.d.users[id]
	if !ok || u.Role != "student" {
		return Student{}, apperr.NotFound("student", id)
	}
	return Student{ID: u.ID, Email: u.Email, FirstName: u.first, LastName: u.last}, nil
}

func (m *memRepo) GetTeacher(ctx context.Context, id int64) (Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.d.users[id]
	if !ok || u.Role != "teacher" {
		return Teacher{}, apperr.NotFound("teacher", id)
	}
	return Teacher{ID: u.ID, Email: u.Email, FirstName: u.first, LastName: u.last}, nil
}

/* -------------------- courses -------------------- */

func (m *memRepo) CreateCourse(ctx context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.next()
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	m.d.courses[c.ID] = *c
	return nil
}

func (m *memRepo) UpdateCourse(ctx context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.d.courses[c.ID]
	if !ok {
		return apperr.NotFound("course", c.ID)
	}
	c.TeacherID, c.CreatedAt = old.TeacherID, old.CreatedAt
	m.d.courses[c.ID] = c
	return nil
}

func (m *memRepo) DeleteCourse(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.courses[id]; !ok {
		return apperr.NotFound("course", id)
	}
	delete(m.d.courses, id)
	for mid, mod := range m.d.modules {
		if mod.CourseID == id {
			m.deleteModuleLocked(mid)
		}
	}
	for k := range m.d.enrollments {
		if k.course == id {
			delete(m.d.enrollments, k)
		}
	}
	for cid, c := range m.d.certificates {
		if c.CourseID == id {
			delete(m.d.certificates, cid)
		}
	}
	return nil
}

func (m *memRepo) deleteModuleLocked(id int64) {
	delete(m.d.modules, id)
	for lid, l := range m.d.lectures {
		if l.ModuleID == id {
			delete(m.d.lectures, lid)
			for k := range m.d.views {
				if k.lecture == lid {
					delete(m.d.views, k)
				}
			}
		}
	}
	for qid, q := range m.d.quizzes {
		if q.ModuleID == id {
			m.deleteQuizLocked(qid)
		}
	}
}

func (m *memRepo) GetCourse(ctx context.Context, id int64) (Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.d.courses[id]
	if !ok {
		return Course{}, apperr.NotFound("course", id)
	}
	return c, nil
}

func (m *memRepo) ListCourses(ctx context.Context, f CourseFilter) ([]Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(f.Q)
	var out []Course
	for _, c := range m.d.courses {
		if f.Public != nil && c.IsPublic != *f.Public {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Title), q) &&
			!strings.Contains(strings.ToLower(c.Description), q) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* -------------------- modules & lectures -------------------- */

func (m *memRepo) CreateModule(ctx context.Context, mod *Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.courses[mod.CourseID]; !ok {
		return apperr.NotFound("course", mod.CourseID)
	}
	mod.ID = m.next()
	m.d.modules[mod.ID] = *mod
	return nil
}

func (m *memRepo) GetModule(ctx context.Context, id int64) (Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.d.modules[id]
	if !ok {
		return Module{}, apperr.NotFound("module", id)
	}
	return mod, nil
}

func (m *memRepo) ListModules(ctx context.Context, courseID int64) ([]Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Module
	for _, mod := range m.d.modules {
		if mod.CourseID == courseID {
			out = append(out, mod)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memRepo) CreateLecture(ctx context.Context, l *Lecture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.modules[l.ModuleID]; !ok {
		return apperr.NotFound("module", l.ModuleID)
	}
	l.ID = m.next()
	m.d.lectures[l.ID] = *l
	return nil
}

func (m *memRepo) GetLecture(ctx context.Context, id int64) (Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.d.lectures[id]
	if !ok {
		return Lecture{}, apperr.NotFound("lecture", id)
	}
	return l, nil
}

func (m *memRepo) ListLectures(ctx context.Context, moduleID int64) ([]Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Lecture
	for _, l := range m.d.lectures {
		if l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) HasViewedLecture(ctx context.Context, studentID, lectureID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.d.views[viewKey{studentID, lectureID}]
	return ok, nil
}

func (m *memRepo) CreateLectureView(ctx context.Context, v LectureView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := viewKey{v.StudentID, v.LectureID}
	if _, ok := m.d.views[k]; ok {
		return nil
	}
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now()
	}
	m.d.views[k] = v
	return nil
}

/* -------------------- quizzes -------------------- */

func (m *memRepo) CreateQuiz(ctx context.Context, q *Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.modules[q.ModuleID]; !ok {
		return apperr.NotFound("module", q.ModuleID)
	}
	q.ID = m.next()
	for i := range q.Questions {
		qq := &q.Questions[i]
		qq.ID = m.next()
		qq.QuizID = q.ID
		if qq.Type == "" {
			qq.Type = QuestionTypeSingleChoice
		}
		for j := range qq.Answers {
			qq.Answers[j].ID = m.next()
			qq.Answers[j].QuestionID = qq.ID
		}
	}
	m.d.quizzes[q.ID] = cloneQuiz(*q)
	return nil
}

func (m *memRepo) GetQuiz(ctx context.Context, id int64) (Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.d.quizzes[id]
	if !ok {
		return Quiz{}, apperr.NotFound("quiz", id)
	}
	return cloneQuiz(q), nil
}

func (m *memRepo) ListQuizzes(ctx context.Context, moduleID int64) ([]Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Quiz
	for _, q := range m.d.quizzes {
		if q.ModuleID == moduleID {
			q.Questions = nil
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) DeleteQuiz(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.quizzes[id]; !ok {
		return apperr.NotFound("quiz", id)
	}
	m.deleteQuizLocked(id)
	return nil
}

func (m *memRepo) deleteQuizLocked(id int64) {
	delete(m.d.quizzes, id)
	for aid, a := range m.d.attempts {
		if a.QuizID != id {
			continue
		}
		delete(m.d.attempts, aid)
		for xid, x := range m.d.attemptAns {
			if x.AttemptID == aid {
				delete(m.d.attemptAns, xid)
			}
		}
	}
}

/* -------------------- attempts -------------------- */

func (m *memRepo) CountAttempts(ctx context.Context, studentID, quizID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.d.attempts {
		if a.StudentID == studentID && a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) LatestAttempt(ctx context.Context, studentID, quizID int64) (QuizAttempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best QuizAttempt
	found := false
	for _, a := range m.d.attempts {
		if a.StudentID != studentID || a.QuizID != quizID {
			continue
		}
		if !found || a.AttemptNumber > best.AttemptNumber {
			best, found = a, true
		}
	}
	return best, found, nil
}

func (m *memRepo) CreateAttempt(ctx context.Context, a *QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.d.attempts {
		if x.StudentID == a.StudentID && x.QuizID == a.QuizID && x.AttemptNumber == a.AttemptNumber {
			return apperr.AlreadyExists("attempt number already used", a.AttemptNumber)
		}
	}
	a.ID = m.next()
	if a.SubmittedAt == 0 {
		a.SubmittedAt = time.Now().Unix()
	}
	stored := *a
	stored.Answers = nil
	m.d.attempts[a.ID] = stored
	return nil
}

func (m *memRepo) CreateAttemptAnswer(ctx context.Context, aa *QuizAttemptAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.attempts[aa.AttemptID]; !ok {
		return apperr.NotFound("attempt", aa.AttemptID)
	}
	aa.ID = m.next()
	m.d.attemptAns[aa.ID] = *aa
	return nil
}

/* -------------------- enrollments -------------------- */

func (m *memRepo) GetEnrollment(ctx context.Context, studentID, courseID int64) (Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.d.enrollments[enrollKey{studentID, courseID}]
	if !ok {
		return Enrollment{}, apperr.NotFound("enrollment", courseID)
	}
	return e, nil
}

func (m *memRepo) CreateEnrollment(ctx context.Context, e Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := enrollKey{e.StudentID, e.CourseID}
	if _, ok := m.d.enrollments[k]; ok {
		return apperr.AlreadyExists("already enrolled", e.CourseID)
	}
	if e.EnrolledAt == 0 {
		e.EnrolledAt = time.Now().Unix()
	}
	m.d.enrollments[k] = e
	return nil
}

func (m *memRepo) SaveEnrollment(ctx context.Context, e Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := enrollKey{e.StudentID, e.CourseID}
	old, ok := m.d.enrollments[k]
	if !ok {
		return apperr.NotFound("enrollment", e.CourseID)
	}
	old.Completed = e.Completed
	m.d.enrollments[k] = old
	return nil
}

func (m *memRepo) ListEnrolledCourses(ctx context.Context, studentID int64) ([]Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Course
	for k := range m.d.enrollments {
		if k.student != studentID {
			continue
		}
		if c, ok := m.d.courses[k.course]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* -------------------- certificates & events -------------------- */

func (m *memRepo) CreateCertificate(ctx context.Context, c *Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.next()
	if c.IssuedAt == 0 {
		c.IssuedAt = time.Now().Unix()
	}
	m.d.certificates[c.ID] = *c
	return nil
}

func (m *memRepo) AppendEvent(ctx context.Context, e syncx.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	e.Seq = int64(len(m.d.events) + 1)
	e.CreatedAt = time.Now().Unix()
	m.d.events = append(m.d.events, e)
	return nil
}
