/*
jobtypes.go - Job type reference data from YAML

PURPOSE:
  Job types are reference data maintained by an administrator. This reads
  them from a file so a fresh database can be seeded by `tracker jobtypes
  import` or by `serve` when seed.job_types_file is set.

FORMAT:
  job_types:
    - name: Install
      credits: 2.5
    - name: Repair
      credits: "1.25"

  Credits are read from the literal text, never through float64.
*/
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/job-tracker/tracker"
	"gopkg.in/yaml.v3"
)

type jobTypesFile struct {
	JobTypes []struct {
		Name    string `yaml:"name"`
		Credits string `yaml:"credits"`
	} `yaml:"job_types"`
}

// LoadJobTypes parses and validates a job types document. Names must be unique.
func LoadJobTypes(r io.Reader) ([]tracker.JobType, error) {
	var doc jobTypesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse job types: %w", err)
	}

	seen := make(map[string]bool, len(doc.JobTypes))
	result := make([]tracker.JobType, 0, len(doc.JobTypes))
	for i, raw := range doc.JobTypes {
		credits, err := decimal.NewFromString(raw.Credits)
		if err != nil {
			return nil, fmt.Errorf("job_types[%d] %q: invalid credits %q: %w", i, raw.Name, raw.Credits, tracker.ErrValidation)
		}
		jt := tracker.JobType{Name: raw.Name, Credits: credits}
		if err := jt.Validate(); err != nil {
			return nil, fmt.Errorf("job_types[%d]: %w", i, err)
		}
		if seen[jt.Name] {
			return nil, fmt.Errorf("job_types[%d]: duplicate name %q: %w", i, jt.Name, tracker.ErrValidation)
		}
		seen[jt.Name] = true
		result = append(result, jt)
	}
	return result, nil
}

// LoadJobTypesFile is LoadJobTypes on a path.
func LoadJobTypesFile(path string) ([]tracker.JobType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadJobTypes(f)
}

// JobTypeSaver is the store method the importer needs.
type JobTypeSaver interface {
	UpsertJobType(ctx context.Context, name string, credits decimal.Decimal) (tracker.JobType, error)
}

// ImportJobTypes upserts every job type by name and returns them with IDs set.
func ImportJobTypes(ctx context.Context, store JobTypeSaver, jobTypes []tracker.JobType) ([]tracker.JobType, error) {
	saved := make([]tracker.JobType, 0, len(jobTypes))
	for _, jt := range jobTypes {
		s, err := store.UpsertJobType(ctx, jt.Name, jt.Credits)
		if err != nil {
			return saved, err
		}
		saved = append(saved, s)
	}
	return saved, nil
}
