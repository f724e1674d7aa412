package course

import "time"

// QuestionTypeSingleChoice is the only question type authored in this
// domain: one answer is selected per question.
const QuestionTypeSingleChoice = "single_choice"

const DefaultPassingScore = 50

type Course struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	IsPublic     bool   `json:"isPublic"`
	TeacherID    int64  `json:"teacherId"`
	ProfileImage string `json:"profileImage,omitempty"` // blob key
	CreatedAt    int64  `json:"createdAt,omitempty"`
}

type Module struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"courseId"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type Lecture struct {
	ID       int64  `json:"id"`
	ModuleID int64  `json:"moduleId"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type Quiz struct {
	ID              int64      `json:"id"`
	ModuleID        int64      `json:"moduleId"`
	Title           string     `json:"title"`
	PassingScore    int        `json:"passingScore"`
	DurationMinutes int        `json:"durationInMinutes"`
	QuestionCount   int        `json:"questionCount"` // questions served per attempt
	Questions       []Question `json:"questions,omitempty"`
}

type Question struct {
	ID      int64    `json:"id"`
	QuizID  int64    `json:"quizId"`
	Text    string   `json:"questionText"`
	Type    string   `json:"type"`
	Answers []Answer `json:"answers,omitempty"`
}

type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"answerText"`
	Correct    bool   `json:"correct"`
}

// QuizAttempt is immutable once created.
type QuizAttempt struct {
	ID              int64               `json:"attemptId"`
	StudentID       int64               `json:"studentId"`
	QuizID          int64               `json:"quizId"`
	AttemptNumber   int                 `json:"attemptNumber"`
	Score           float64             `json:"score"`
	Passed          bool                `json:"passed"`
	DurationSeconds int                 `json:"durationSeconds"`
	SubmittedAt     int64               `json:"submittedAt"`
	Answers         []QuizAttemptAnswer `json:"-"`
}

// QuizAttemptAnswer freezes the correctness of the chosen answer at submission.
type QuizAttemptAnswer struct {
	ID         int64 `json:"id"`
	AttemptID  int64 `json:"attemptId"`
	QuestionID int64 `json:"questionId"`
	AnswerID   int64 `json:"answerId"`
	Correct    bool  `json:"correct"`
}

// Enrollment is keyed by (StudentID, CourseID). Completed only moves false→true.
type Enrollment struct {
	StudentID  int64 `json:"studentId"`
	CourseID   int64 `json:"courseId"`
	Completed  bool  `json:"completed"`
	EnrolledAt int64 `json:"enrolledAt"`
}

type Student struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

func (s Student) FullName() string { return s.FirstName + " " + s.LastName }

type Teacher struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type LectureView struct {
	StudentID int64     `json:"studentId"`
	LectureID int64     `json:"lectureId"`
	ViewedAt  time.Time `json:"viewedAt"`
}

type Certificate struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	StudentID int64  `json:"studentId"`
	CourseID  int64  `json:"courseId"`
	Score     int    `json:"score"`
	IssuedAt  int64  `json:"issuedAt"`
	BlobKey   string `json:"blobKey,omitempty"`
}

// User is the login record behind a Student, Teacher or Admin.
type User struct {
	ID           int64
	Email        string
	Role         string
	PasswordHash string
}
