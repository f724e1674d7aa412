package course

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/db"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLStore struct {
	sqlRepo
	db *sql.DB
}

func NewSQLStore(d *sql.DB) *SQLStore {
	return &SQLStore{sqlRepo: sqlRepo{q: d}, db: d}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Repository) error) error {
	return db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		return fn(&sqlRepo{q: tx})
	})
}

type sqlRepo struct {
	q queryer
}

// insertID runs an INSERT ... RETURNING id.
func (r *sqlRepo) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	return err
}

/* -------------------- users -------------------- */

func (r *sqlRepo) CreateUser(ctx context.Context, u *User, firstName, lastName string) error {
	var n int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER($1)`, u.Email).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return apperr.AlreadyExists("email already registered", u.Email)
	}
	id, err := r.insertID(ctx,
		`INSERT INTO users (email, first_name, last_name, role, password_hash, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		u.Email, firstName, lastName, u.Role, u.PasswordHash, time.Now().Unix())
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *sqlRepo) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.q.QueryRowContext(ctx,
		`SELECT id, email, role, password_hash FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash)
	if err != nil {
		return User{}, notFound(err, "user", id)
	}
	return u, nil
}

func (r *sqlRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.q.QueryRowContext(ctx,
		`SELECT id, email, role, password_hash FROM users WHERE LOWER(email)=LOWER($1)`, email).
		Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash)
	if err != nil {
		return User{}, notFound(err, "user", email)
	}
	return u, nil
}

func (r *sqlRepo) GetStudent(ctx context.Context, id int64) (Student, error) {
	var s Student
	err := r.q.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name FROM users WHERE id=$1 AND role='student'`, id).
		Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName)
	if err != nil {
		return Student{}, notFound(err, "student", id)
	}
	return s, nil
}

func (r *sqlRepo) GetTeacher(ctx context.Context, id int64) (Teacher, error) {
	var t Teacher
	err := r.q.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name FROM users WHERE id=$1 AND role='teacher'`, id).
		Scan(&t.ID, &t.Email, &t.FirstName, &t.LastName)
	if err != nil {
		return Teacher{}, notFound(err, "teacher", id)
	}
	return t, nil
}

/* -------------------- courses -------------------- */

const courseCols = `id, title, description, is_public, teacher_id, profile_image, created_at`

func scanCourse(sc interface{ Scan(...any) error }) (Course, error) {
	var c Course
	err := sc.Scan(&c.ID, &c.Title, &c.Description, &c.IsPublic, &c.TeacherID, &c.ProfileImage, &c.CreatedAt)
	return c, err
}

func (r *sqlRepo) CreateCourse(ctx context.Context, c *Course) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	id, err := r.insertID(ctx,
		`INSERT INTO courses (title, description, is_public, teacher_id, profile_image, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		c.Title, c.Description, c.IsPublic, c.TeacherID, c.ProfileImage, c.CreatedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *sqlRepo) UpdateCourse(ctx context.Context, c Course) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE courses SET title=$1, description=$2, is_public=$3, profile_image=$4 WHERE id=$5`,
		c.Title, c.Description, c.IsPublic, c.ProfileImage, c.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "course", c.ID)
}

func (r *sqlRepo) DeleteCourse(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "course", id)
}

func (r *sqlRepo) GetCourse(ctx context.Context, id int64) (Course, error) {
	c, err := scanCourse(r.q.QueryRowContext(ctx, `SELECT `+courseCols+` FROM courses WHERE id=$1`, id))
	if err != nil {
		return Course{}, notFound(err, "course", id)
	}
	return c, nil
}

func (r *sqlRepo) ListCourses(ctx context.Context, f CourseFilter) ([]Course, error) {
	q := `SELECT ` + courseCols + ` FROM courses WHERE 1=1`
	var args []any
	if f.Public != nil {
		args = append(args, *f.Public)
		q += ` AND is_public=` + placeholder(len(args))
	}
	if f.Q != "" {
		args = append(args, f.Q)
		p := placeholder(len(args))
		q += ` AND (LOWER(title) LIKE '%' || LOWER(` + p + `) || '%' OR LOWER(description) LIKE '%' || LOWER(` + p + `) || '%')`
	}
	q += ` ORDER BY id`
	return r.queryCourses(ctx, q, args...)
}

func (r *sqlRepo) queryCourses(ctx context.Context, q string, args ...any) ([]Course, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

/* -------------------- modules & lectures -------------------- */

func (r *sqlRepo) CreateModule(ctx context.Context, m *Module) error {
	id, err := r.insertID(ctx,
		`INSERT INTO modules (course_id, title, position) VALUES ($1,$2,$3) RETURNING id`,
		m.CourseID, m.Title, m.Position)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (r *sqlRepo) GetModule(ctx context.Context, id int64) (Module, error) {
	var m Module
	err := r.q.QueryRowContext(ctx,
		`SELECT id, course_id, title, position FROM modules WHERE id=$1`, id).
		Scan(&m.ID, &m.CourseID, &m.Title, &m.Position)
	if err != nil {
		return Module{}, notFound(err, "module", id)
	}
	return m, nil
}

func (r *sqlRepo) ListModules(ctx context.Context, courseID int64) ([]Module, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, course_id, title, position FROM modules WHERE course_id=$1 ORDER BY position, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Position); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *sqlRepo) CreateLecture(ctx context.Context, l *Lecture) error {
	id, err := r.insertID(ctx,
		`INSERT INTO lectures (module_id, title, url) VALUES ($1,$2,$3) RETURNING id`,
		l.ModuleID, l.Title, l.URL)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r *sqlRepo) GetLecture(ctx context.Context, id int64) (Lecture, error) {
	var l Lecture
	err := r.q.QueryRowContext(ctx,
		`SELECT id, module_id, title, url FROM lectures WHERE id=$1`, id).
		Scan(&l.ID, &l.ModuleID, &l.Title, &l.URL)
	if err != nil {
		return Lecture{}, notFound(err, "lecture", id)
	}
	return l, nil
}

func (r *sqlRepo) ListLectures(ctx context.Context, moduleID int64) ([]Lecture, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, module_id, title, url FROM lectures WHERE module_id=$1 ORDER BY id`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lecture
	for rows.Next() {
		var l Lecture
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.URL); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *sqlRepo) HasViewedLecture(ctx context.Context, studentID, lectureID int64) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx,
		`SELECT 1 FROM lecture_views WHERE student_id=$1 AND lecture_id=$2`, studentID, lectureID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *sqlRepo) CreateLectureView(ctx context.Context, v LectureView) error {
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO lecture_views (student_id, lecture_id, viewed_at) VALUES ($1,$2,$3)
		 ON CONFLICT (student_id, lecture_id) DO NOTHING`,
		v.StudentID, v.LectureID, v.ViewedAt.Unix())
	return err
}

/* -------------------- quizzes -------------------- */

func (r *sqlRepo) CreateQuiz(ctx context.Context, q *Quiz) error {
	id, err := r.insertID(ctx,
		`INSERT INTO quizzes (module_id, title, passing_score, duration_minutes, question_count)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		q.ModuleID, q.Title, q.PassingScore, q.DurationMinutes, q.QuestionCount)
	if err != nil {
		return err
	}
	q.ID = id
	for i := range q.Questions {
		qq := &q.Questions[i]
		qq.QuizID = q.ID
		if qq.Type == "" {
			qq.Type = QuestionTypeSingleChoice
		}
		if qq.ID, err = r.insertID(ctx,
			`INSERT INTO questions (quiz_id, text, type) VALUES ($1,$2,$3) RETURNING id`,
			qq.QuizID, qq.Text, qq.Type); err != nil {
			return err
		}
		for j := range qq.Answers {
			a := &qq.Answers[j]
			a.QuestionID = qq.ID
			if a.ID, err = r.insertID(ctx,
				`INSERT INTO answers (question_id, text, is_correct) VALUES ($1,$2,$3) RETURNING id`,
				a.QuestionID, a.Text, a.Correct); err != nil {
				return err
			}
		}
	}
	return nil
}

const quizCols = `id, module_id, title, passing_score, duration_minutes, question_count`

func scanQuiz(sc interface{ Scan(...any) error }) (Quiz, error) {
	var q Quiz
	err := sc.Scan(&q.ID, &q.ModuleID, &q.Title, &q.PassingScore, &q.DurationMinutes, &q.QuestionCount)
	return q, err
}

func (r *sqlRepo) GetQuiz(ctx context.Context, id int64) (Quiz, error) {
	q, err := scanQuiz(r.q.QueryRowContext(ctx, `SELECT `+quizCols+` FROM quizzes WHERE id=$1`, id))
	if err != nil {
		return Quiz{}, notFound(err, "quiz", id)
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, quiz_id, text, type FROM questions WHERE quiz_id=$1 ORDER BY id`, id)
	if err != nil {
		return Quiz{}, err
	}
	idx := map[int64]int{}
	for rows.Next() {
		var qq Question
		if err := rows.Scan(&qq.ID, &qq.QuizID, &qq.Text, &qq.Type); err != nil {
			rows.Close()
			return Quiz{}, err
		}
		idx[qq.ID] = len(q.Questions)
		q.Questions = append(q.Questions, qq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Quiz{}, err
	}

	arows, err := r.q.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.text, a.is_correct
		   FROM answers a JOIN questions q ON q.id = a.question_id
		  WHERE q.quiz_id=$1 ORDER BY a.id`, id)
	if err != nil {
		return Quiz{}, err
	}
	defer arows.Close()
	for arows.Next() {
		var a Answer
		if err := arows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Correct); err != nil {
			return Quiz{}, err
		}
		if i, ok := idx[a.QuestionID]; ok {
			q.Questions[i].Answers = append(q.Questions[i].Answers, a)
		}
	}
	return q, arows.Err()
}

func (r *sqlRepo) ListQuizzes(ctx context.Context, moduleID int64) ([]Quiz, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+quizCols+` FROM quizzes WHERE module_id=$1 ORDER BY id`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *sqlRepo) DeleteQuiz(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "quiz", id)
}

/* -------------------- attempts -------------------- */

func (r *sqlRepo) CountAttempts(ctx context.Context, studentID, quizID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE student_id=$1 AND quiz_id=$2`, studentID, quizID).Scan(&n)
	return n, err
}

func (r *sqlRepo) LatestAttempt(ctx context.Context, studentID, quizID int64) (QuizAttempt, bool, error) {
	var a QuizAttempt
	err := r.q.QueryRowContext(ctx,
		`SELECT id, student_id, quiz_id, attempt_number, score, passed, duration_seconds, submitted_at
		   FROM quiz_attempts WHERE student_id=$1 AND quiz_id=$2
		  ORDER BY attempt_number DESC LIMIT 1`, studentID, quizID).
		Scan(&a.ID, &a.StudentID, &a.QuizID, &a.AttemptNumber, &a.Score, &a.Passed, &a.DurationSeconds, &a.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return QuizAttempt{}, false, nil
	}
	if err != nil {
		return QuizAttempt{}, false, err
	}
	return a, true, nil
}

func (r *sqlRepo) CreateAttempt(ctx context.Context, a *QuizAttempt) error {
	if a.SubmittedAt == 0 {
		a.SubmittedAt = time.Now().Unix()
	}
	id, err := r.insertID(ctx,
		`INSERT INTO quiz_attempts (student_id, quiz_id, attempt_number, score, passed, duration_seconds, submitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		a.StudentID, a.QuizID, a.AttemptNumber, a.Score, a.Passed, a.DurationSeconds, a.SubmittedAt)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *sqlRepo) CreateAttemptAnswer(ctx context.Context, aa *QuizAttemptAnswer) error {
	id, err := r.insertID(ctx,
		`INSERT INTO quiz_attempt_answers (attempt_id, question_id, answer_id, is_correct)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		aa.AttemptID, aa.QuestionID, aa.AnswerID, aa.Correct)
	if err != nil {
		return err
	}
	aa.ID = id
	return nil
}

/* -------------------- enrollments -------------------- */

func (r *sqlRepo) GetEnrollment(ctx context.Context, studentID, courseID int64) (Enrollment, error) {
	var e Enrollment
	err := r.q.QueryRowContext(ctx,
		`SELECT student_id, course_id, completed, enrolled_at FROM enrollments
		  WHERE student_id=$1 AND course_id=$2`, studentID, courseID).
		Scan(&e.StudentID, &e.CourseID, &e.Completed, &e.EnrolledAt)
	if err != nil {
		return Enrollment{}, notFound(err, "enrollment", courseID)
	}
	return e, nil
}

func (r *sqlRepo) CreateEnrollment(ctx context.Context, e Enrollment) error {
	if e.EnrolledAt == 0 {
		e.EnrolledAt = time.Now().Unix()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO enrollments (student_id, course_id, completed, enrolled_at) VALUES ($1,$2,$3,$4)`,
		e.StudentID, e.CourseID, e.Completed, e.EnrolledAt)
	return err
}

func (r *sqlRepo) SaveEnrollment(ctx context.Context, e Enrollment) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE enrollments SET completed=$1 WHERE student_id=$2 AND course_id=$3`,
		e.Completed, e.StudentID, e.CourseID)
	if err != nil {
		return err
	}
	return requireRow(res, "enrollment", e.CourseID)
}

func (r *sqlRepo) ListEnrolledCourses(ctx context.Context, studentID int64) ([]Course, error) {
	return r.queryCourses(ctx,
		`SELECT c.id, c.title, c.description, c.is_public, c.teacher_id, c.profile_image, c.created_at
		   FROM courses c JOIN enrollments e ON e.course_id = c.id
		  WHERE e.student_id=$1 ORDER BY c.id`, studentID)
}

/* -------------------- certificates & events -------------------- */

func (r *sqlRepo) CreateCertificate(ctx context.Context, c *Certificate) error {
	if c.IssuedAt == 0 {
		c.IssuedAt = time.Now().Unix()
	}
	id, err := r.insertID(ctx,
		`INSERT INTO certificates (number, student_id, course_id, score, issued_at, blob_key)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		c.Number, c.StudentID, c.CourseID, c.Score, c.IssuedAt, c.BlobKey)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *sqlRepo) AppendEvent(ctx context.Context, e syncx.Event) error {
	return syncx.NewEventRepo(r.q).Append(ctx, e)
}

func requireRow(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }
