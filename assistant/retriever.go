package assistant

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/linanwx/policychat/logger"
	"github.com/linanwx/policychat/mdtext"
)

const (
	// DefaultRetrieveK is the number of policy passages handed to the model.
	DefaultRetrieveK = 3
	// DefaultChunkChars bounds the size of one indexed passage.
	DefaultChunkChars = 800
)

// PolicyExtensions are the document types loaded from the policy directory.
var PolicyExtensions = []string{".md", ".markdown", ".txt"}

// Document is one policy file in plain text.
type Document struct {
	Source string // path relative to the policy directory
	Text   string
}

// Passage is a ranked chunk of a policy document.
type Passage struct {
	Source string
	Text   string
	Score  float64
}

type chunk struct {
	source string
	text   string
	terms  map[string]float64
}

// Index ranks policy chunks against questions by TF-IDF cosine similarity.
type Index struct {
	chunks []chunk
	idf    map[string]float64
}

// LoadDocuments reads every policy file under dir. Markdown is reduced to
// plain text.
func LoadDocuments(dir string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !policyFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		text := string(data)
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".md" || ext == ".markdown" {
			text = mdtext.Plain(text)
		}
		docs = append(docs, Document{Source: filepath.ToSlash(rel), Text: text})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LoadIndex loads and indexes the policy directory.
func LoadIndex(dir string, chunkChars int) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("policy dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("policy dir %s is not a directory", dir)
	}
	docs, err := LoadDocuments(dir)
	if err != nil {
		return nil, err
	}
	ix := NewIndex(docs, chunkChars)
	logger.Info("policy index built", "dir", dir, "documents", len(docs), "chunks", ix.Len())
	return ix, nil
}

// NewIndex splits docs into chunks of at most chunkChars characters and
// indexes them.
func NewIndex(docs []Document, chunkChars int) *Index {
	if chunkChars <= 0 {
		chunkChars = DefaultChunkChars
	}
	ix := &Index{idf: make(map[string]float64)}
	for _, doc := range docs {
		for _, text := range SplitText(doc.Text, chunkChars) {
			ix.chunks = append(ix.chunks, chunk{source: doc.Source, text: text, terms: termVector(text)})
		}
	}

	df := make(map[string]int)
	for _, c := range ix.chunks {
		for term := range c.terms {
			df[term]++
		}
	}
	n := float64(len(ix.chunks))
	for term, count := range df {
		ix.idf[term] = math.Log(1 + n/float64(count))
	}
	for _, c := range ix.chunks {
		ix.weigh(c.terms)
	}
	return ix
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

// Search returns up to k chunks sharing terms with query, best first.
func (ix *Index) Search(query string, k int) []Passage {
	if ix.Len() == 0 || k <= 0 {
		return nil
	}
	q := termVector(query)
	ix.weigh(q)

	var out []Passage
	for _, c := range ix.chunks {
		if s := cosine(q, c.terms); s > 0 {
			out = append(out, Passage{Source: c.source, Text: c.text, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// weigh scales term frequencies by inverse document frequency. Terms no
// chunk contains are dropped.
func (ix *Index) weigh(v map[string]float64) {
	for term, tf := range v {
		idf, ok := ix.idf[term]
		if !ok {
			delete(v, term)
			continue
		}
		v[term] = tf * idf
	}
}

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?]\s+`)
)

// SplitText packs paragraphs into chunks of at most maxChars characters.
// Longer paragraphs are cut at sentence ends, then at spaces.
func SplitText(text string, maxChars int) []string {
	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, piece := range cutParagraph(para, maxChars) {
			if cur.Len() > 0 && cur.Len()+2+len(piece) > maxChars {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(piece)
		}
	}
	flush()
	return chunks
}

func cutParagraph(para string, maxChars int) []string {
	if len(para) <= maxChars {
		return []string{para}
	}
	var pieces []string
	rest := para
	for len(rest) > maxChars {
		cut := -1
		for _, loc := range sentenceEnd.FindAllStringIndex(rest[:maxChars], -1) {
			cut = loc[1]
		}
		if cut <= 0 {
			cut = strings.LastIndexByte(rest[:maxChars], ' ') + 1
		}
		if cut <= 0 {
			cut = maxChars
		}
		pieces = append(pieces, strings.TrimSpace(rest[:cut]))
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

func policyFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range PolicyExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// IsMissingPolicyDir reports whether err means the policy directory does
// not exist.
func IsMissingPolicyDir(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// withPassages appends the retrieved excerpts to the system prompt.
func withPassages(system string, passages []Passage) string {
	if len(passages) == 0 {
		return system
	}
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nUse these excerpts from the company policy documents when they answer the question. Do not invent policy that is not in them.\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, p.Source, p.Text)
	}
	return b.String()
}
