package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	Name   string   `json:"name"`
	Passed bool     `json:"passed"`
	Errors []string `json:"errors,omitempty"`
}

func (p *phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// defaultedStore is a store whose numeric fields were partly replaced by
// fallback values.
type defaultedStore struct {
	Index  int      `json:"index"`
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

type validateResult struct {
	File      string           `json:"file"`
	Stores    int              `json:"stores"`
	Valid     bool             `json:"valid"`
	Phases    []*phase         `json:"phases"`
	Defaulted []defaultedStore `json:"defaulted,omitempty"`
	Summary   *domain.Summary  `json:"summary,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a store-list dump for data-quality problems",
		Long: `Check a saved store-list response for data-quality problems.

The file may hold the backend envelope ({"success": true, "data": [...]})
or a bare array of store objects. Validation fails when the envelope is
malformed, when a store has no usable id, or when two stores share an id.
Stores whose numeric fields fall back to defaults are reported but do not
fail validation.`,
		Example: `  storectl validate tiendas.json
  storectl validate tiendas.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, opts *RootOptions, path string) error {
	f := opts.formatter(cmd)

	body, err := os.ReadFile(path)
	if err != nil {
		_ = f.Error(fmt.Sprintf("read %s: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "read file", err)
	}

	result := validateResult{File: path}
	parse := &phase{Name: "parse"}
	ids := &phase{Name: "ids"}
	result.Phases = []*phase{parse, ids}

	objects, records := parseDump(body, parse)
	result.Stores = len(records)

	if parse.passed() {
		for i, r := range records {
			if !r.IsValidID() {
				ids.errorf("store[%d] %q has no usable id (raw %s)", i, r.Name, rawID(objects[i]))
			}
		}
		_, dups := domain.IndexByID(records)
		for _, id := range dups {
			ids.errorf("id %d is shared by more than one store", id)
		}
		for i, obj := range objects {
			if fields := domain.DefaultedFields(obj); len(fields) > 0 {
				result.Defaulted = append(result.Defaulted, defaultedStore{
					Index: i, ID: records[i].ID, Name: records[i].Name, Fields: fields,
				})
			}
		}
		s := domain.Summarize(records)
		result.Summary = &s
	}

	result.Valid = true
	for _, p := range result.Phases {
		p.Passed = p.passed()
		result.Valid = result.Valid && p.Passed
	}

	if err := f.Success(result, func(w io.Writer) { writeValidateText(w, result) }); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func (p *phase) passed() bool { return len(p.Errors) == 0 }

// parseDump returns the raw store objects and the records built from them.
// Envelopes go through the same decoder the service uses; bare arrays are
// built directly. Both must be well-formed JSON.
func parseDump(body []byte, p *phase) ([]gjson.Result, []domain.StoreRecord) {
	trimmed := bytes.TrimSpace(body)
	if !gjson.ValidBytes(trimmed) {
		p.errorf("file is not valid JSON")
		return nil, nil
	}

	var objects []gjson.Result
	if len(trimmed) > 0 && trimmed[0] == '[' {
		objects = gjson.ParseBytes(trimmed).Array()
	} else {
		if _, err := domain.DecodeStoresResponse(trimmed); err != nil {
			p.errorf("%v", err)
			return nil, nil
		}
		objects = gjson.GetBytes(trimmed, "data").Array()
	}
	return objects, buildAll(objects)
}

func buildAll(objects []gjson.Result) []domain.StoreRecord {
	out := make([]domain.StoreRecord, len(objects))
	for i, o := range objects {
		out[i] = domain.BuildStoreRecord(o)
	}
	return out
}

func rawID(obj gjson.Result) string {
	v := obj.Get("_id")
	if !v.Exists() {
		return "missing"
	}
	return v.Raw
}

func writeValidateText(w io.Writer, r validateResult) {
	fmt.Fprintf(w, "%s: %d stores\n", r.File, r.Stores)
	for _, p := range r.Phases {
		status := "PASS"
		if !p.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s\n", status, p.Name)
		for _, e := range p.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if len(r.Defaulted) > 0 {
		fmt.Fprintf(w, "%d stores use default values:\n", len(r.Defaulted))
		for _, d := range r.Defaulted {
			fmt.Fprintf(w, "  - store[%d] %q: %v\n", d.Index, d.Name, d.Fields)
		}
	}
	if r.Summary != nil {
		fmt.Fprintf(w, "Tiers: %d excellent, %d good, %d needs attention\n",
			r.Summary.Excellent, r.Summary.Good, r.Summary.NeedsAttention)
	}
}
