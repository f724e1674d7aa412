// Package certificate issues completion certificates to students who have
// passed every quiz of a course.
package certificate

import (
	"bytes"
	"context"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/identity"
	"github.com/mind-engage/mindengage-courses/internal/progress"
	"github.com/mind-engage/mindengage-courses/internal/storage"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

// Issued is a generated certificate and its rendered document.
type Issued struct {
	Certificate course.Certificate
	Body        []byte
	ContentType string
}

type Gate struct {
	store    course.Store
	renderer Renderer
	blobs    storage.BlobStore // optional
	now      func() time.Time
	number   func() string
}

type Option func(*Gate)

func WithBlobStore(b storage.BlobStore) Option { return func(g *Gate) { g.blobs = b } }
func WithClock(now func() time.Time) Option    { return func(g *Gate) { g.now = now } }
func WithNumberSource(f func() string) Option  { return func(g *Gate) { g.number = f } }

func NewGate(store course.Store, r Renderer, opts ...Option) *Gate {
	if r == nil {
		r = TextRenderer{}
	}
	g := &Gate{store: store, renderer: r, now: time.Now, number: newNumber}
	for _, o := range opts {
		o(g)
	}
	return g
}

// newNumber is the first 8 hex digits of a random UUID, upper-cased.
func newNumber() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// Generate renders a certificate for the calling student. The course must be
// complete; the printed score is the course progress rounded to the nearest
// integer.
func (g *Gate) Generate(ctx context.Context, who identity.Identity, courseID int64) (Issued, error) {
	studentID, err := identity.StudentID(who)
	if err != nil {
		return Issued{}, err
	}

	var doc Document
	err = g.store.InTx(ctx, func(r course.Repository) error {
		st, err := r.GetStudent(ctx, studentID)
		if err != nil {
			return err
		}
		c, err := r.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		done, err := progress.Completed(ctx, r, studentID, courseID)
		if err != nil {
			return err
		}
		if !done {
			return apperr.NotCompleted(courseID)
		}
		p, err := progress.Course(ctx, r, studentID, courseID)
		if err != nil {
			return err
		}
		doc = Document{
			Number:      g.number(),
			StudentName: st.FullName(),
			CourseTitle: c.Title,
			CompletedOn: g.now(),
			Score:       int(math.Round(p)),
		}
		return nil
	})
	if err != nil {
		return Issued{}, err
	}

	body, err := g.renderer.Render(ctx, doc)
	if err != nil {
		return Issued{}, err
	}

	cert := course.Certificate{
		Number:    doc.Number,
		StudentID: studentID,
		CourseID:  courseID,
		Score:     doc.Score,
		IssuedAt:  doc.CompletedOn.Unix(),
	}
	if g.blobs != nil {
		key := storage.CertificateKey(studentID, courseID, doc.Number, g.renderer.Ext())
		if cert.BlobKey, err = g.blobs.Put(ctx, key, bytes.NewReader(body)); err != nil {
			log.Printf("warn: storing certificate %s: %v", doc.Number, err)
			cert.BlobKey = ""
		}
	}

	err = g.store.InTx(ctx, func(r course.Repository) error {
		if err := r.CreateCertificate(ctx, &cert); err != nil {
			return err
		}
		ev, err := syncx.NewEvent(syncx.TypeCertificateIssued, strconv.FormatInt(cert.ID, 10), cert)
		if err != nil {
			return err
		}
		return r.AppendEvent(ctx, ev)
	})
	if err != nil {
		return Issued{}, err
	}
	return Issued{Certificate: cert, Body: body, ContentType: g.renderer.ContentType()}, nil
}
