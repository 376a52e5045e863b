package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xhad/quickstart/internal/models"
)

// record is the on-disk shape of a document. Pointer fields distinguish a
// missing key from an empty value.
type record struct {
	Name       *string   `json:"name"`
	Prompt     *string   `json:"prompt"`
	Language   *string   `json:"language"`
	Readme     *string   `json:"readme"`
	Code       *string   `json:"code"`
	Codespaces *string   `json:"codespaces"`
	Embedding  []float32 `json:"embedding"`
}

func (r record) document(i int) (models.Document, error) {
	required := []struct {
		field string
		value *string
	}{
		{"name", r.Name},
		{"prompt", r.Prompt},
		{"readme", r.Readme},
		{"code", r.Code},
		{"codespaces", r.Codespaces},
	}
	for _, f := range required {
		if f.value == nil {
			return models.Document{}, fmt.Errorf("%w: record %d is missing %q", ErrCorpusLoad, i, f.field)
		}
	}

	doc := models.Document{
		Name:       *r.Name,
		Prompt:     *r.Prompt,
		Readme:     *r.Readme,
		Code:       *r.Code,
		Codespaces: *r.Codespaces,
	}
	if r.Language != nil {
		doc.Language = *r.Language
	}
	if len(r.Embedding) > 0 {
		doc.Embedding = r.Embedding
	}
	return doc, nil
}

func newRecord(doc models.Document) record {
	embedding := doc.Embedding
	if embedding == nil {
		embedding = []float32{}
	}
	return record{
		Name:       &doc.Name,
		Prompt:     &doc.Prompt,
		Language:   &doc.Language,
		Readme:     &doc.Readme,
		Code:       &doc.Code,
		Codespaces: &doc.Codespaces,
		Embedding:  embedding,
	}
}

// Load reads a snapshot file.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusLoad, err)
	}
	defer f.Close()

	return LoadFrom(f)
}

// LoadFrom decodes a snapshot stream.
func LoadFrom(r io.Reader) (*Corpus, error) {
	var records []record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: invalid snapshot: %v", ErrCorpusLoad, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: invalid snapshot: unexpected data after the document array", ErrCorpusLoad)
	}

	c := &Corpus{docs: make([]models.Document, 0, len(records))}
	for i, rec := range records {
		doc, err := rec.document(i)
		if err != nil {
			return nil, err
		}
		c.docs = append(c.docs, doc)
	}
	return c, nil
}

// WriteTo encodes the corpus as an indented JSON array.
func (c *Corpus) WriteTo(w io.Writer) (int64, error) {
	records := make([]record, len(c.docs))
	for i, doc := range c.docs {
		records[i] = newRecord(doc)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	n, err := w.Write(data)
	return int64(n), err
}

// Save replaces the snapshot at path. The data is written to a temporary file
// in the same directory and renamed over the destination, so readers see
// either the old or the new snapshot.
func (c *Corpus) Save(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if _, err = c.WriteTo(tmp); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
