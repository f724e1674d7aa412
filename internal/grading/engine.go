package grading

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/identity"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

// Selection is one (question, answer) pair chosen by the student.
type Selection struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
	AnswerID   int64 `json:"answerId" validate:"required,gt=0"`
}

type Submission struct {
	Answers         []Selection `json:"attemptAnswers" validate:"dive"`
	DurationSeconds int         `json:"duration" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks the shape of a submission before any lookup runs.
func (s Submission) Validate() error {
	if err := validate.Struct(s); err != nil {
		return apperr.Invalid(err.Error())
	}
	return nil
}

// Engine grades quiz submissions and serves randomized quiz views.
type Engine struct {
	store  course.Store
	grader Grader
	now    func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Option func(*Engine)

func WithGrader(g Grader) Option            { return func(e *Engine) { e.grader = g } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithRand injects the question shuffler. Tests pass a seeded source.
func WithRand(r *rand.Rand) Option { return func(e *Engine) { e.rnd = r } }

func NewEngine(store course.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		grader: NewDefaultGrader(),
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Submit grades a submission and records it as the student's next attempt.
// A selection naming an unknown question or answer fails the whole submission.
func (e *Engine) Submit(ctx context.Context, who identity.Identity, quizID int64, sub Submission) (course.QuizAttempt, error) {
	studentID, err := identity.StudentID(who)
	if err != nil {
		return course.QuizAttempt{}, err
	}
	if err := sub.Validate(); err != nil {
		return course.QuizAttempt{}, err
	}

	var out course.QuizAttempt
	err = e.store.InTx(ctx, func(r course.Repository) error {
		if _, err := r.GetStudent(ctx, studentID); err != nil {
			return err
		}
		quiz, err := r.GetQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.QuestionCount <= 0 {
			return apperr.InvalidState("quiz has no questions to grade", quiz.ID)
		}

		prior, err := r.CountAttempts(ctx, studentID, quizID)
		if err != nil {
			return err
		}

		answers, correct, err := e.gradeAll(ctx, quiz, sub.Answers)
		if err != nil {
			return err
		}

		score := float64(correct) / float64(quiz.QuestionCount) * 100
		attempt := course.QuizAttempt{
			StudentID:       studentID,
			QuizID:          quizID,
			AttemptNumber:   prior + 1,
			Score:           score,
			Passed:          score >= float64(quiz.PassingScore),
			DurationSeconds: sub.DurationSeconds,
			SubmittedAt:     e.now().Unix(),
		}
		if err := r.CreateAttempt(ctx, &attempt); err != nil {
			return err
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
			if err := r.CreateAttemptAnswer(ctx, &answers[i]); err != nil {
				return err
			}
		}
		attempt.Answers = answers

		ev, err := syncx.NewEvent(syncx.TypeAttemptSubmitted, strconv.FormatInt(attempt.ID, 10), attempt)
		if err != nil {
			return err
		}
		if err := r.AppendEvent(ctx, ev); err != nil {
			return err
		}
		out = attempt
		return nil
	})
	return out, err
}

func (e *Engine) gradeAll(ctx context.Context, quiz course.Quiz, sels []Selection) ([]course.QuizAttemptAnswer, int, error) {
	byID := make(map[int64]course.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byID[q.ID] = q
	}
	out := make([]course.QuizAttemptAnswer, 0, len(sels))
	correct := 0
	for _, sel := range sels {
		q, ok := byID[sel.QuestionID]
		if !ok {
			return nil, 0, apperr.NotFound("question", sel.QuestionID)
		}
		res, err := e.grader.Grade(ctx, q, sel)
		if err != nil {
			return nil, 0, err
		}
		if res.Correct {
			correct++
		}
		out = append(out, course.QuizAttemptAnswer{
			QuestionID: q.ID,
			AnswerID:   res.AnswerID,
			Correct:    res.Correct,
		})
	}
	return out, correct, nil
}

// QuizView is a quiz as served to a student: a random subset of questions
// with answer correctness hidden.
type QuizView struct {
	ID              int64          `json:"id"`
	ModuleID        int64          `json:"moduleId"`
	Title           string         `json:"title"`
	PassingScore    int            `json:"passingScore"`
	DurationMinutes int            `json:"durationInMinutes"`
	QuestionCount   int            `json:"questionCount"`
	Questions       []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      int64        `json:"id"`
	Text    string       `json:"questionText"`
	Answers []AnswerView `json:"answers"`
}

type AnswerView struct {
	ID   int64  `json:"id"`
	Text string `json:"answerText"`
}

// PresentQuiz shuffles the quiz's questions and keeps the first
// min(available, QuestionCount). The stored quiz is not modified.
func (e *Engine) PresentQuiz(ctx context.Context, quizID int64) (QuizView, error) {
	var quiz course.Quiz
	err := e.store.InTx(ctx, func(r course.Repository) error {
		var err error
		quiz, err = r.GetQuiz(ctx, quizID)
		return err
	})
	if err != nil {
		return QuizView{}, err
	}

	qs := append([]course.Question(nil), quiz.Questions...)
	e.rndMu.Lock()
	e.rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	e.rndMu.Unlock()
	if quiz.QuestionCount >= 0 && len(qs) > quiz.QuestionCount {
		qs = qs[:quiz.QuestionCount]
	}

	view := QuizView{
		ID:              quiz.ID,
		ModuleID:        quiz.ModuleID,
		Title:           quiz.Title,
		PassingScore:    quiz.PassingScore,
		DurationMinutes: quiz.DurationMinutes,
		QuestionCount:   quiz.QuestionCount,
		Questions:       make([]QuestionView, 0, len(qs)),
	}
	for _, q := range qs {
		qv := QuestionView{ID: q.ID, Text: q.Text, Answers: make([]AnswerView, 0, len(q.Answers))}
		for _, a := range q.Answers {
			qv.Answers = append(qv.Answers, AnswerView{ID: a.ID, Text: a.Text})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}

// LatestAttempt returns the caller's most recent attempt on a quiz.
func (e *Engine) LatestAttempt(ctx context.Context, who identity.Identity, quizID int64) (course.QuizAttempt, error) {
	studentID, err := identity.StudentID(who)
	if err != nil {
		return course.QuizAttempt{}, err
	}
	var out course.QuizAttempt
	err = e.store.InTx(ctx, func(r course.Repository) error {
		if _, err := r.GetStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := r.GetQuiz(ctx, quizID); err != nil {
			return err
		}
		a, ok, err := r.LatestAttempt(ctx, studentID, quizID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("attempt", quizID)
		}
		out = a
		return nil
	})
	return out, err
}
