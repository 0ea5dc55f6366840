package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPolicyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config.SetConfigDir(dir)
	t.Cleanup(func() { config.SetConfigDir("") })

	policies := filepath.Join(dir, "policies")
	require.NoError(t, os.MkdirAll(policies, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(policies, "dress.md"),
		[]byte("# Dress Code\n\nBusiness casual dress code from Monday to Thursday."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(policies, "leave.txt"),
		[]byte("Leave without pay is granted after paid leave is used up."), 0644))
	return policies
}

func TestRunRetrieveDefaultQueries(t *testing.T) {
	withPolicyDir(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runRetrieve(cmd, nil))

	got := out.String()
	assert.Contains(t, got, "Indexed 2 passages.")
	assert.Contains(t, got, `--- Results for "dress code" ---`)
	assert.Contains(t, got, "--- Chunk 1 (dress.md, score")
	assert.Contains(t, got, `--- Results for "leave without pay" ---`)
	assert.Contains(t, got, "--- Chunk 1 (leave.txt, score")
}

func TestRunRetrieveMissingDir(t *testing.T) {
	config.SetConfigDir(t.TempDir())
	t.Cleanup(func() { config.SetConfigDir("") })

	err := runRetrieve(&cobra.Command{}, []string{"dress code"})
	assert.ErrorContains(t, err, "does not exist")
}

func TestPrintRetrievalNoMatch(t *testing.T) {
	ix := assistant.NewIndex([]assistant.Document{{Source: "a.txt", Text: "Office timings are 9 to 6."}}, 0)

	var out bytes.Buffer
	printRetrieval(&out, ix, []string{"parking"}, 3)
	assert.Contains(t, out.String(), "No documents found for this query.")
}

func TestBuildAssistantLoadsPolicies(t *testing.T) {
	withPolicyDir(t)

	ac := config.DefaultConfig().Assistant
	ac.FAQ = assistant.FAQ{}
	a, err := buildAssistant(ac)
	require.NoError(t, err)
	assert.Equal(t, 2, a.PolicyPassages())

	reply, err := a.Answer(context.Background(), "what is the dress code")
	require.NoError(t, err)
	assert.Contains(t, reply, "business casual")
}

func TestBuildAssistantWithoutPolicyDir(t *testing.T) {
	config.SetConfigDir(t.TempDir())
	t.Cleanup(func() { config.SetConfigDir("") })

	a, err := buildAssistant(config.DefaultConfig().Assistant)
	require.NoError(t, err)
	assert.Zero(t, a.PolicyPassages())
}
