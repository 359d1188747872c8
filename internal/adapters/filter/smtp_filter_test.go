package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTagSubject(t *testing.T) {
	raw := []byte("From: mallory@attacker.test\r\n" +
		"Subject: Verify your account\r\n" +
		"\r\n" +
		"body\r\n")

	tagged := string(tagSubject(raw, "[PHISHING]"))
	assert.Contains(t, tagged, "Subject: [PHISHING] Verify your account")
	assert.Contains(t, tagged, "body")

	// Already tagged subjects are left alone
	again := string(tagSubject([]byte(tagged), "[PHISHING]"))
	assert.Equal(t, 1, strings.Count(again, "[PHISHING]"))
}

func TestTagSubjectWithoutSubjectHeader(t *testing.T) {
	raw := []byte("From: mallory@attacker.test\r\n\r\nbody\r\n")
	assert.Equal(t, string(raw), string(tagSubject(raw, "[PHISHING]")))
}

func TestAnnotateAddsDetectionHeaders(t *testing.T) {
	session := &smtpSession{filter: &SMTPFilter{
		statusHeader:  "X-Phishing-Status",
		summaryHeader: "X-Phishing-Summary",
		urlsHeader:    "X-Phishing-URL-Verdicts",
		logger:        zap.NewNop(),
	}}

	report := suspiciousReport()
	annotated := string(session.annotate([]byte("Subject: hi\r\n\r\nbody\r\n"), report, nil))

	assert.Contains(t, annotated, "X-Phishing-Status: true\r\n")
	assert.Contains(t, annotated, "X-Phishing-Summary: Credential phishing attempt\r\n")
	assert.Contains(t, annotated, "X-Phishing-URL-Verdicts: http://bank.evil/login => URL is malicious\r\n")
	assert.True(t, strings.HasSuffix(annotated, "Subject: hi\r\n\r\nbody\r\n"))
}

func TestAnnotateRecordsAnalysisError(t *testing.T) {
	session := &smtpSession{filter: &SMTPFilter{logger: zap.NewNop()}}

	annotated := string(session.annotate([]byte("body"), nil, errors.New("model\nunreachable")))
	assert.Contains(t, annotated, "X-Phishing-Analysis-Error: model unreachable\r\n")
}

func TestSanitizeHeaderValue(t *testing.T) {
	assert.Equal(t, "a  b c", sanitizeHeaderValue("a\r\nb\nc"))
	assert.Equal(t, "clean", sanitizeHeaderValue("clean"))
}
