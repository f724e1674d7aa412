package rbac

// Permission names used by the HTTP routes.
const (
	CourseView     = "course:view"
	CourseCreate   = "course:create"
	CourseEdit     = "course:edit"
	CourseDelete   = "course:delete"
	CourseApprove  = "course:approve"
	CourseReview   = "course:review"
	CourseEnroll   = "course:enroll"
	ModuleCreate   = "module:create"
	LectureCreate  = "lecture:create"
	LectureView    = "lecture:view"
	LectureMark    = "lecture:mark-viewed"
	QuizCreate     = "quiz:create"
	QuizDelete     = "quiz:delete"
	QuizView       = "quiz:view"
	QuizSubmit     = "quiz:submit"
	AttemptViewOwn = "attempt:view-own"
	ProgressOwn    = "progress:view-own"
	CertGenerate   = "certificate:generate"
)

// Edit and delete are further restricted to the course's teacher by the
// catalog service.
var RolePermissions = map[string][]string{
	"student": {
		CourseView,
		CourseEnroll,
		LectureView,
		LectureMark,
		QuizView,
		QuizSubmit,
		AttemptViewOwn,
		ProgressOwn,
		CertGenerate,
	},
	"teacher": {
		CourseView,
		CourseCreate,
		CourseEdit,
		CourseDelete,
		ModuleCreate,
		LectureCreate,
		LectureView,
		QuizCreate,
		QuizDelete,
		QuizView,
	},
	"admin": {
		"*", // everything
	},
}
