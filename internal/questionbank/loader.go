package questionbank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ErrInvalidBank is returned when a bank document is not valid JSON or does
// not match BankSchema.
type ErrInvalidBank struct {
	Source string
	Err    error
}

func (e *ErrInvalidBank) Error() string {
	return fmt.Sprintf("invalid question bank %s: %v", e.Source, e.Err)
}

func (e *ErrInvalidBank) Unwrap() error { return e.Err }

// document is the JSON layout of a bank file.
type document struct {
	Version   int        `json:"version"`
	Questions []Question `json:"questions"`
}

// Load reads a bank document from r. Questions that fail Validate are left
// out of the bank and reported by Bank.Rejected; only a malformed document
// is an error.
func Load(r io.Reader, source string) (*Bank, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", source, err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ErrInvalidBank{Source: source, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	schema, err := bankSchema()
	if err != nil {
		return nil, fmt.Errorf("question bank schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, &ErrInvalidBank{Source: source, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, &ErrInvalidBank{Source: source, Err: err}
	}

	valid, rejected := Partition(doc.Questions)
	b := NewBank(valid)
	b.rejected = rejected
	return b, nil
}

// LoadFile loads a bank document from path.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()
	return Load(f, path)
}

// Encode writes questions as a bank document.
func Encode(w io.Writer, questions []Question) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Version: 1, Questions: questions})
}
