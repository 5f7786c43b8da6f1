package forms

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"cleanedge.io/forms/internal/pkg/logger"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func metaFixture() storage.Meta {
	return storage.Meta{
		Referer:   "https://cleanedge.example/quote",
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
	}
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tab\there"},
		{"null\x00byte", "nullbyte"},
		{"bell\x07ring", "bellring"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, cleanText(tc.in), "input %q", tc.in)
	}
}

func TestNotLinked(t *testing.T) {
	require.True(t, notLinked(""))
	require.False(t, notLinked("http://spam.example"))
	require.False(t, notLinked(" "))
}

func TestSanitizeContact(t *testing.T) {
	p := sanitizeContact(ContactPayload{
		Name:    "  Dana Reyes ",
		Email:   " dana@example.com ",
		Phone:   " 555-0100 ",
		Message: "Hi,\nwe need nightly service.\x00",
	})
	require.Equal(t, "Dana Reyes", p.Name)
	require.Equal(t, "dana@example.com", p.Email)
	require.Equal(t, "555-0100", p.Phone)
	require.Equal(t, "Hi,\nwe need nightly service.", p.Message)
}

func TestSafeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\cv.docx`, "cv.docx"},
		{"", "resume"},
		{"..", ".."},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, safeFilename(tc.in), "input %q", tc.in)
	}
}

// multipartRequest builds a careers submission with an optional resume part.
func multipartRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":     "Sam Okafor",
		"email":    "sam@example.com",
		"phone":    "555-0101",
		"position": "Day Porter",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="resume"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/careers", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func careerContext(t *testing.T, req *http.Request) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestParseCareerWithResume(t *testing.T) {
	req := multipartRequest(t, "cv.pdf", "application/pdf", []byte("%PDF-1.4 fake"))
	p, extras, err := parseCareer(careerContext(t, req))
	require.NoError(t, err)
	require.Equal(t, "Sam Okafor", p.Name)
	require.NotNil(t, extras)
	require.NotNil(t, extras.Attachment)
	require.Equal(t, "cv.pdf", extras.Attachment.Filename)
	require.Equal(t, "application/pdf", extras.Attachment.ContentType)
	require.Equal(t, []byte("%PDF-1.4 fake"), extras.Attachment.Data)
}

func TestParseCareerWithoutResume(t *testing.T) {
	req := multipartRequest(t, "", "", nil)
	p, extras, err := parseCareer(careerContext(t, req))
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", p.Email)
	require.NotNil(t, extras)
	require.Nil(t, extras.Attachment)
}

func TestParseCareerRejectsDisallowedType(t *testing.T) {
	req := multipartRequest(t, "malware.exe", "application/octet-stream", []byte("MZ"))
	_, _, err := parseCareer(careerContext(t, req))
	require.Error(t, err)
	var subErr *submission.Error
	require.True(t, errors.As(err, &subErr))
	require.Equal(t, 400, subErr.Status)
	require.Contains(t, subErr.Message, "Invalid file type")
}

func TestParseCareerRejectsOversizeResume(t *testing.T) {
	big := bytes.Repeat([]byte("a"), maxResumeSize+1)
	req := multipartRequest(t, "cv.pdf", "application/pdf", big)
	_, _, err := parseCareer(careerContext(t, req))
	require.Error(t, err)
	var subErr *submission.Error
	require.True(t, errors.As(err, &subErr))
	require.Equal(t, 400, subErr.Status)
	require.Contains(t, subErr.Message, "too large")
}

func TestCareerMailAttachesResume(t *testing.T) {
	cfg := configMail{From: "site@cleanedge.example", To: "office@cleanedge.example"}
	extras := &submission.Extras{Attachment: &submission.Attachment{
		Filename:    "cv.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
	}}
	msg := careerMail(cfg, CareerPayload{
		Name:     "Sam Okafor",
		Email:    "sam@example.com",
		Position: "Day Porter",
	}, metaFixture(), extras)
	require.Len(t, msg.Attachments, 1)
	require.Equal(t, "cv.pdf", msg.Attachments[0].Filename)
	require.Equal(t, "sam@example.com", msg.ReplyTo)
	require.Contains(t, msg.Subject, "Day Porter")
}

func TestQuoteMailEscapesHTML(t *testing.T) {
	cfg := configMail{From: "site@cleanedge.example", To: "office@cleanedge.example"}
	msg := quoteMail(cfg, QuotePayload{
		Name:    "<script>alert(1)</script>",
		Email:   "q@example.com",
		Message: "line one\nline two",
	}, metaFixture())
	require.NotContains(t, msg.HTML, "<script>")
	require.Contains(t, msg.HTML, "&lt;script&gt;")
	require.Contains(t, msg.HTML, "line one<br>line two")
}
