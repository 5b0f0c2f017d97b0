package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

// DefaultChunkSize is used whenever a job is given a missing or non-positive chunk size.
const DefaultChunkSize = 5

// Identifier is an opaque token referring to one unit of work, such as a record key.
type Identifier string

// String returns the identifier as a plain string.
func (id Identifier) String() string { return string(id) }

// Identifiers converts plain strings into identifiers, preserving order.
func Identifiers(values ...string) []Identifier {
	ids := make([]Identifier, len(values))
	for i, v := range values {
		ids[i] = Identifier(v)
	}
	return ids
}

// JobArguments is the caller-supplied input of one job. It is immutable for the job's lifetime.
type JobArguments struct {
	// IDs is the explicit identifier set. Nil means the item source supplies the full universe.
	IDs []Identifier `json:"ids"`
	// Limit caps the number of items processed. Zero or negative means no cap.
	Limit int `json:"limit,omitempty"`
	// ChunkSize is the number of items processed per step. Zero or negative means DefaultChunkSize.
	ChunkSize int `json:"chunk_size,omitempty"`
}

// HasExplicitIDs reports whether the caller supplied an identifier list.
func (a JobArguments) HasExplicitIDs() bool {
	return a.IDs != nil
}

// AsMap returns the arguments in the shape used for reports and failure details.
func (a JobArguments) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"limit":      a.Limit,
		"chunk_size": a.ChunkSize,
	}
	if a.IDs != nil {
		m["ids"] = identifierStrings(a.IDs)
	}
	return m
}

// String renders the arguments as JSON.
func (a JobArguments) String() string {
	data, err := json.Marshal(a.AsMap())
	if err != nil {
		return fmt.Sprintf("%v", a.AsMap())
	}
	return string(data)
}

// ParseJobArguments builds JobArguments from the three raw input fields of a job request.
//
// rawIDs is a comma-delimited list; surrounding whitespace and empty entries are dropped and
// an empty field means "use the full source". rawLimit must be empty or a non-negative integer.
// rawChunkSize must be empty or an integer; a non-positive value is kept and later resolved to
// DefaultChunkSize by the partitioner. All field errors are reported together.
func ParseJobArguments(rawIDs, rawLimit, rawChunkSize string) (JobArguments, error) {
	var args JobArguments
	var errs *multierror.Error

	args.IDs = ParseIdentifierList(rawIDs)

	if s := strings.TrimSpace(rawLimit); s != "" {
		limit, err := strconv.Atoi(s)
		switch {
		case err != nil:
			errs = multierror.Append(errs, fmt.Errorf("limit %q is not an integer", rawLimit))
		case limit < 0:
			errs = multierror.Append(errs, fmt.Errorf("limit %d must not be negative", limit))
		default:
			args.Limit = limit
		}
	}

	if s := strings.TrimSpace(rawChunkSize); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("chunk size %q is not an integer", rawChunkSize))
		} else {
			args.ChunkSize = size
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return JobArguments{}, exception.NewValidationError("arguments", "invalid job arguments", err)
	}
	return args, nil
}

// ParseIdentifierList splits a comma-delimited identifier list.
// It returns nil when the list holds no non-empty entry.
func ParseIdentifierList(raw string) []Identifier {
	var ids []Identifier
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, Identifier(p))
		}
	}
	return ids
}

func identifierStrings(ids []Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
