package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/access"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/progress"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

type UserStore interface {
	auth.UserFinder
	auth.UserCreator
}

// Services bundles what the handlers call into.
type Services struct {
	Auth     *auth.AuthService
	Users    UserStore
	Catalog  *catalog.Service
	Progress *progress.Service
	Grading  *grading.Engine
	Access   *access.Resolver
	Certs    *certificate.Gate
	Blobs    storage.BlobStore // optional

	EnableLocalAuth bool
}

// Mount registers every API route on r.
func Mount(r chi.Router, s Services) {
	if s.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(s.Auth, s.Users))
		r.Post("/auth/register", auth.RegisterHandler(s.Users))
	}

	// Browsing works anonymously; a token refines the course view.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.OptionalIdentity(s.Auth), auth.AttachRoleFromDB(s.Users, false))
		pr.Get("/courses", SearchCoursesHandler(s.Catalog))
		pr.Get("/courses/categories", CoursesByCategoryHandler(s.Catalog))
		pr.Get("/categories", CategoriesHandler())
		pr.Get("/courses/{courseID}", GetCourseHandler(s.Access))
	})

	// Protected API (JWT → identity in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(s.Auth), auth.AttachRoleFromDB(s.Users, false))

		pr.With(rbac.Require(rbac.CourseReview)).
			Get("/courses/private", PrivateCoursesHandler(s.Catalog))
		pr.With(rbac.Require(rbac.CourseCreate)).
			Post("/courses", CreateCourseHandler(s.Catalog))
		pr.With(rbac.Require(rbac.CourseEdit)).
			Put("/courses/{courseID}", EditCourseHandler(s.Catalog))
		pr.With(rbac.Require(rbac.CourseDelete)).
			Delete("/courses/{courseID}", DeleteCourseHandler(s.Catalog))
		pr.With(rbac.Require(rbac.CourseApprove)).
			Post("/courses/{courseID}/approve", SetVisibilityHandler(s.Catalog, true))
		pr.With(rbac.Require(rbac.CourseApprove)).
			Post("/courses/{courseID}/disallow", SetVisibilityHandler(s.Catalog, false))
		pr.With(rbac.Require(rbac.ModuleCreate)).
			Post("/courses/{courseID}/modules", CreateModuleHandler(s.Catalog))
		pr.With(rbac.Require(rbac.LectureCreate)).
			Post("/modules/{moduleID}/lectures", CreateLectureHandler(s.Catalog))
		pr.With(rbac.Require(rbac.QuizCreate)).
			Post("/modules/{moduleID}/quizzes", CreateQuizHandler(s.Catalog))
		pr.With(rbac.Require(rbac.QuizDelete)).
			Delete("/quizzes/{quizID}", DeleteQuizHandler(s.Catalog))

		// Student flow
		pr.With(rbac.Require(rbac.CourseEnroll)).
			Post("/courses/{courseID}/enroll", EnrollHandler(s.Progress))
		pr.With(rbac.Require(rbac.QuizView)).
			Get("/quizzes/{quizID}", GetQuizHandler(s.Grading))
		pr.With(rbac.Require(rbac.QuizSubmit)).
			Post("/quizzes/{quizID}/attempts", SubmitAttemptHandler(s.Grading))
		pr.With(rbac.Require(rbac.AttemptViewOwn)).
			Get("/quizzes/{quizID}/attempts/latest", LatestAttemptHandler(s.Grading))
		pr.With(rbac.Require(rbac.LectureView)).
			Get("/lectures/{lectureID}", GetLectureHandler(s.Catalog))
		pr.With(rbac.Require(rbac.LectureMark)).
			Post("/lectures/{lectureID}/view", MarkLectureViewedHandler(s.Catalog))
		pr.With(rbac.Require(rbac.ProgressOwn)).
			Get("/modules/{moduleID}/progress", ModuleProgressHandler(s.Progress))
		pr.With(rbac.Require(rbac.ProgressOwn)).
			Get("/courses/{courseID}/progress", CourseProgressHandler(s.Progress))
		pr.With(rbac.Require(rbac.ProgressOwn)).
			Get("/courses/{courseID}/completion", CompletionHandler(s.Progress))
		pr.With(rbac.Require(rbac.ProgressOwn)).
			Post("/courses/{courseID}/completion", CompletionHandler(s.Progress))
		pr.With(rbac.Require(rbac.ProgressOwn)).
			Get("/me/courses", MyCoursesHandler(s.Progress))
		pr.With(rbac.Require(rbac.ProgressOwn)).
			Get("/me/courses/completed", CompletedCoursesHandler(s.Progress))
		pr.With(rbac.Require(rbac.CertGenerate)).
			Get("/courses/{courseID}/certificate", CertificateHandler(s.Certs))

		if s.Blobs != nil {
			pr.Route("/assets", func(ar chi.Router) {
				MountAssets(ar, s.Blobs)
			})
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}
