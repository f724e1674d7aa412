package course

import (
	"context"

	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

type CourseFilter struct {
	Public *bool  // nil: any visibility
	Q      string // case-insensitive match on title or description
}

// Repository is the CRUD surface the engines work against. Lookups of a
// missing row return an apperr NotFound error.
type Repository interface {
	CreateUser(ctx context.Context, u *User, firstName, lastName string) error
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetStudent(ctx context.Context, id int64) (Student, error)
	GetTeacher(ctx context.Context, id int64) (Teacher, error)

	CreateCourse(ctx context.Context, c *Course) error
	UpdateCourse(ctx context.Context, c Course) error
	DeleteCourse(ctx context.Context, id int64) error
	GetCourse(ctx context.Context, id int64) (Course, error)
	ListCourses(ctx context.Context, f CourseFilter) ([]Course, error)

	CreateModule(ctx context.Context, m *Module) error
	GetModule(ctx context.Context, id int64) (Module, error)
	ListModules(ctx context.Context, courseID int64) ([]Module, error)

	CreateLecture(ctx context.Context, l *Lecture) error
	GetLecture(ctx context.Context, id int64) (Lecture, error)
	ListLectures(ctx context.Context, moduleID int64) ([]Lecture, error)
	HasViewedLecture(ctx context.Context, studentID, lectureID int64) (bool, error)
	CreateLectureView(ctx context.Context, v LectureView) error

	// CreateQuiz persists the quiz with its questions and answers and fills in their ids.
	CreateQuiz(ctx context.Context, q *Quiz) error
	// GetQuiz returns the quiz with every authored question and answer.
	GetQuiz(ctx context.Context, id int64) (Quiz, error)
	// ListQuizzes returns a module's quizzes without questions.
	ListQuizzes(ctx context.Context, moduleID int64) ([]Quiz, error)
	DeleteQuiz(ctx context.Context, id int64) error

	CountAttempts(ctx context.Context, studentID, quizID int64) (int, error)
	// LatestAttempt returns the attempt with the highest attempt number; ok is
	// false when the student never attempted the quiz.
	LatestAttempt(ctx context.Context, studentID, quizID int64) (a QuizAttempt, ok bool, err error)
	CreateAttempt(ctx context.Context, a *QuizAttempt) error
	CreateAttemptAnswer(ctx context.Context, aa *QuizAttemptAnswer) error

	GetEnrollment(ctx context.Context, studentID, courseID int64) (Enrollment, error)
	CreateEnrollment(ctx context.Context, e Enrollment) error
	SaveEnrollment(ctx context.Context, e Enrollment) error
	ListEnrolledCourses(ctx context.Context, studentID int64) ([]Course, error)

	CreateCertificate(ctx context.Context, c *Certificate) error

	AppendEvent(ctx context.Context, e syncx.Event) error
}

// Store is a Repository that can scope a unit of work to one transaction.
type Store interface {
	Repository
	// InTx runs fn against a transaction-bound Repository. fn's error rolls
	// back every write made through that Repository.
	InTx(ctx context.Context, fn func(Repository) error) error
}
