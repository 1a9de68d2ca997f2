package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"doubtsolver/internal/domain"
)

// ChunkPattern selects chunk files below the corpus root.
const ChunkPattern = "**/*_chunks.jsonl"

const (
	chunkSuffix    = "_chunks.jsonl"
	metadataSuffix = "_metadata.jsonl"
	maxLineBytes   = 4 << 20
)

var (
	classPattern  = regexp.MustCompile(`(?i)class[\s_-]*(\d+)`)
	leadingNumber = regexp.MustCompile(`^(\d+)_`)
)

// Corpus holds every loaded chunk grouped by grade, in file then line order.
type Corpus struct {
	Grades map[int][]domain.Chunk
}

// SortedGrades returns the loaded grades in ascending order.
func (c *Corpus) SortedGrades() []int {
	grades := make([]int, 0, len(c.Grades))
	for g := range c.Grades {
		grades = append(grades, g)
	}
	sort.Ints(grades)
	return grades
}

// Len returns the total number of chunks across grades.
func (c *Corpus) Len() int {
	n := 0
	for _, chunks := range c.Grades {
		n += len(chunks)
	}
	return n
}

// Loader reads chunk files produced by the ingestion step.
type Loader struct {
	root   string
	logger *zap.Logger
}

func NewLoader(root string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{root: root, logger: logger}
}

// Load discovers and parses every chunk file. Broken files are skipped with
// a warning; a missing root yields an empty corpus.
func (l *Loader) Load() (*Corpus, error) {
	c := &Corpus{Grades: make(map[int][]domain.Chunk)}
	info, err := os.Stat(l.root)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("corpus directory not found", zap.String("path", l.root))
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat corpus %s: %w", l.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", l.root)
	}

	fsys := os.DirFS(l.root)
	files, err := doublestar.Glob(fsys, ChunkPattern)
	if err != nil {
		return nil, fmt.Errorf("glob chunk files: %w", err)
	}
	sort.Strings(files)

	seen := make(map[int]map[string]struct{})
	for _, name := range files {
		grade, ok := GradeFromPath(name)
		if !ok {
			l.logger.Warn("cannot infer grade from chunk file name", zap.String("file", name))
			continue
		}
		chunks, err := readChunkFile(fsys, name)
		if err != nil {
			l.logger.Warn("skipping chunk file", zap.String("file", name), zap.Error(err))
			continue
		}
		if len(chunks) == 0 {
			l.logger.Warn("chunk file has no records", zap.String("file", name))
			continue
		}
		ids := seen[grade]
		if ids == nil {
			ids = make(map[string]struct{})
			seen[grade] = ids
		}
		for _, ch := range chunks {
			if _, dup := ids[ch.ID]; dup {
				l.logger.Warn("dropping duplicate chunk id", zap.Int("grade", grade), zap.String("id", ch.ID))
				continue
			}
			ids[ch.ID] = struct{}{}
			c.Grades[grade] = append(c.Grades[grade], ch)
		}
		l.logger.Debug("loaded chunk file", zap.String("file", name), zap.Int("grade", grade), zap.Int("chunks", len(chunks)))
	}
	l.logger.Info("corpus loaded", zap.Int("grades", len(c.Grades)), zap.Int("chunks", c.Len()))
	return c, nil
}

// GradeFromPath infers the grade from "class N" anywhere in the path or a
// leading "N_" in the file name.
func GradeFromPath(p string) (int, bool) {
	if m := classPattern.FindAllStringSubmatch(p, -1); len(m) > 0 {
		if g, err := strconv.Atoi(m[len(m)-1][1]); err == nil {
			return g, true
		}
	}
	if m := leadingNumber.FindStringSubmatch(path.Base(p)); m != nil {
		if g, err := strconv.Atoi(m[1]); err == nil {
			return g, true
		}
	}
	return 0, false
}

type record struct {
	ID       string          `json:"id"`
	ChunkID  string          `json:"chunk_id"`
	Text     string          `json:"text"`
	Metadata json.RawMessage `json:"metadata"`
}

// readChunkFile parses one file atomically: any malformed line rejects it.
func readChunkFile(fsys fs.FS, name string) ([]domain.Chunk, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []domain.Chunk
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := rec.ID
		if id == "" {
			id = rec.ChunkID
		}
		if id == "" {
			return nil, fmt.Errorf("line %d: missing id", line)
		}
		ch := domain.Chunk{ID: id, Text: rec.Text}
		if len(rec.Metadata) > 0 && string(rec.Metadata) != "null" {
			md, err := decodeMetadata(rec.Metadata)
			if err != nil {
				return nil, fmt.Errorf("line %d metadata: %w", line, err)
			}
			ch.Metadata = md
		}
		chunks = append(chunks, ch)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := attachSiblingMetadata(fsys, name, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// attachSiblingMetadata fills chunks lacking inline metadata from the
// line-aligned "<prefix>_metadata.jsonl" next to the chunk file.
func attachSiblingMetadata(fsys fs.FS, name string, chunks []domain.Chunk) error {
	sibling := strings.TrimSuffix(name, chunkSuffix) + metadataSuffix
	f, err := fsys.Open(sibling)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	row := 0
	for sc.Scan() && row < len(chunks) {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if chunks[row].Metadata == nil {
			md, err := decodeMetadata([]byte(raw))
			if err != nil {
				return fmt.Errorf("%s line %d: %w", sibling, row+1, err)
			}
			chunks[row].Metadata = md
		}
		row++
	}
	return sc.Err()
}

// flexible accepts a JSON string or number.
type flexible string

func (f *flexible) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexible(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexible(n.String())
	return nil
}

func decodeMetadata(raw []byte) (*domain.ChunkMetadata, error) {
	var m struct {
		Grade      flexible `json:"grade"`
		Subject    string   `json:"subject"`
		Chapter    string   `json:"chapter"`
		PageNo     flexible `json:"page_no"`
		SourceFile string   `json:"source_file"`
		Language   string   `json:"language"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	page, _ := strconv.Atoi(string(m.PageNo))
	return &domain.ChunkMetadata{
		Grade:      string(m.Grade),
		Subject:    m.Subject,
		Chapter:    m.Chapter,
		PageNo:     page,
		SourceFile: m.SourceFile,
		Language:   m.Language,
	}, nil
}
