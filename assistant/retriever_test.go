package assistant

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var policyDocs = map[string]string{
	"dress.md": `# Dress Code

Employees are expected to follow a **business casual** dress code from Monday to Thursday.

Fridays are casual dress days. Sports wear and slippers are not allowed in the office.`,
	"leave/leave-policy.md": `# Leave Policy

Every employee gets 12 casual leaves and 12 sick leaves per year.

## Leave without pay

Leave without pay (LWP) is granted only after all paid leave is used up. LWP days are deducted from the monthly salary.`,
	"expenses.txt": `Expense reimbursement

Travel, meals and office supplies are reimbursed against receipts submitted within 7 days.`,
	"notes.pdf": "binary, ignored",
}

func writePolicies(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range policyDocs {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return dir
}

func TestLoadDocuments(t *testing.T) {
	docs, err := LoadDocuments(writePolicies(t))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	sources := make(map[string]string)
	for _, d := range docs {
		sources[d.Source] = d.Text
	}
	assert.Contains(t, sources, "leave/leave-policy.md")
	assert.NotContains(t, sources, "notes.pdf")
	assert.NotContains(t, sources["dress.md"], "**", "markdown is reduced to text")
}

func TestSearchRanksPolicyChunks(t *testing.T) {
	ix, err := LoadIndex(writePolicies(t), 160)
	require.NoError(t, err)
	require.Greater(t, ix.Len(), 3)

	tests := []struct {
		query      string
		wantSource string
		wantText   string
	}{
		{"dress code", "dress.md", "business casual"},
		{"leave without pay", "leave/leave-policy.md", "Leave without pay"},
		{"how are travel receipts reimbursed", "expenses.txt", "within 7 days"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ix.Search(tt.query, DefaultRetrieveK)
			require.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got), DefaultRetrieveK)
			assert.Equal(t, tt.wantSource, got[0].Source)
			assert.Contains(t, got[0].Text, tt.wantText)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
			}
		})
	}

	assert.Empty(t, ix.Search("quarterly revenue forecast", 3))
	assert.Empty(t, ix.Search("dress code", 0))
}

func TestLoadIndexMissingDir(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "absent"), 0)
	require.Error(t, err)
	assert.True(t, IsMissingPolicyDir(err))

	var nilIndex *Index
	assert.Zero(t, nilIndex.Len())
	assert.Nil(t, nilIndex.Search("dress code", 3))
}

func TestSplitText(t *testing.T) {
	text := "Short one.\n\nShort two.\n\n" + strings.Repeat("word ", 60) + "end. Next sentence here."
	chunks := SplitText(text, 100)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Short one.\n\nShort two.", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
		assert.NotEmpty(t, c)
	}
	assert.Contains(t, strings.Join(chunks, " "), "Next sentence here.")

	assert.Empty(t, SplitText("  \n\n ", 100))
}

func TestAnswerGroundsOnPolicyPassages(t *testing.T) {
	ix, err := LoadIndex(writePolicies(t), 160)
	require.NoError(t, err)
	p := &recordingProvider{reply: "LWP is deducted from salary."}
	a, err := New(p, Options{Policies: ix, RetrieveK: 2})
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "How does leave without pay work?")
	require.NoError(t, err)

	require.Len(t, p.requests, 1)
	system := p.requests[0].System
	assert.True(t, strings.HasPrefix(system, DefaultSystemPrompt))
	assert.Contains(t, system, "[1] leave/leave-policy.md")
	assert.Contains(t, system, "deducted from the monthly salary")
	assert.NotContains(t, system, "[3]")
	assert.Equal(t, UserMessage("How does leave without pay work?"), p.requests[0].Messages[0])
}
