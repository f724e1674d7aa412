package certificate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Document is everything printed on a certificate.
type Document struct {
	Number      string    `json:"number"`
	StudentName string    `json:"studentName"`
	CourseTitle string    `json:"courseTitle"`
	CompletedOn time.Time `json:"completedOn"`
	Score       int       `json:"score"`
}

// Renderer turns a Document into bytes of some content type.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
	ContentType() string
	Ext() string
}

// HTTPRenderer posts the document as JSON to a rendering service and returns
// the response body (a PDF).
type HTTPRenderer struct {
	client *resty.Client
	url    string
}

func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/pdf")
	return &HTTPRenderer{client: c, url: url}
}

func (h *HTTPRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(doc).
		Post(h.url)
	if err != nil {
		return nil, fmt.Errorf("certificate renderer: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("certificate renderer: status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return resp.Body(), nil
}

func (h *HTTPRenderer) ContentType() string { return "application/pdf" }
func (h *HTTPRenderer) Ext() string         { return "pdf" }

// TextRenderer prints a plain-text certificate. Used when no rendering
// service is configured.
type TextRenderer struct{}

func (TextRenderer) Render(_ context.Context, doc Document) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintln(&b, "CERTIFICATE OF COMPLETION")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "This certifies that %s\n", doc.StudentName)
	fmt.Fprintf(&b, "has completed the course %q\n", doc.CourseTitle)
	fmt.Fprintf(&b, "on %s with a score of %d%%.\n", doc.CompletedOn.Format("January 2, 2006"), doc.Score)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Certificate No. %s\n", doc.Number)
	return []byte(b.String()), nil
}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }
func (TextRenderer) Ext() string         { return "txt" }
