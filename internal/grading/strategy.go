package grading

import (
	"context"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
)

// Result is the outcome of grading one selected answer.
type Result struct {
	AnswerID int64
	Correct  bool
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q course.Question, sel Selection) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q course.Question, sel Selection) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q course.Question, sel Selection) (Result, error) {
	typ := q.Type
	if typ == "" {
		typ = course.QuestionTypeSingleChoice
	}
	s, ok := g.strategies[typ]
	if !ok {
		return Result{}, apperr.InvalidState("no grading strategy for question type", typ)
	}
	return s.Grade(ctx, q, sel)
}

type GraderOption func(map[string]Strategy)

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(typ string, s Strategy) GraderOption {
	return func(m map[string]Strategy) { m[typ] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...GraderOption) Grader {
	m := map[string]Strategy{
		course.QuestionTypeSingleChoice: singleChoiceStrategy{},
	}
	for _, o := range opts {
		o(m)
	}
	return &defaultGrader{strategies: m}
}

// singleChoiceStrategy trusts the stored correctness flag of the selected answer.
type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(_ context.Context, q course.Question, sel Selection) (Result, error) {
	for _, a := range q.Answers {
		if a.ID == sel.AnswerID {
			return Result{AnswerID: a.ID, Correct: a.Correct}, nil
		}
	}
	return Result{}, apperr.NotFound("answer", sel.AnswerID)
}
