// Package ids provides the opaque 128-bit identifiers used to name
// lineages, jobs, and organisms.
package ids

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// LineageId identifies a persistent genetic line across generations
// and islands.
type LineageId uuid.UUID

// JobId identifies one island simulation job.
type JobId uuid.UUID

// OrganismId identifies a single living organism within one island.
type OrganismId uuid.UUID

// NewLineageId returns a freshly generated LineageId.
func NewLineageId() LineageId { return LineageId(uuid.New()) }

// NewJobId returns a freshly generated JobId.
func NewJobId() JobId { return JobId(uuid.New()) }

// NewOrganismId returns a freshly generated OrganismId.
func NewOrganismId() OrganismId { return OrganismId(uuid.New()) }

func (l LineageId) String() string   { return uuid.UUID(l).String() }
func (j JobId) String() string       { return uuid.UUID(j).String() }
func (o OrganismId) String() string  { return uuid.UUID(o).String() }

// Hash satisfies census-style Key interfaces that group records by a
// cheap integer hash rather than the full 128-bit value.
func (l LineageId) Hash() uint64 { return hashUUID(uuid.UUID(l)) }

func hashUUID(u uuid.UUID) uint64 {
	var h uint64
	for i, b := range u {
		h ^= uint64(b) << (8 * uint(i%8))
	}
	return h
}

func (l LineageId) MarshalJSON() ([]byte, error)  { return json.Marshal(l.String()) }
func (j JobId) MarshalJSON() ([]byte, error)      { return json.Marshal(j.String()) }
func (o OrganismId) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (l *LineageId) UnmarshalJSON(b []byte) error { return unmarshalInto(b, (*uuid.UUID)(l)) }
func (j *JobId) UnmarshalJSON(b []byte) error      { return unmarshalInto(b, (*uuid.UUID)(j)) }
func (o *OrganismId) UnmarshalJSON(b []byte) error { return unmarshalInto(b, (*uuid.UUID)(o)) }

func unmarshalInto(b []byte, dst *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("ids: %w", err)
	}
	*dst = u
	return nil
}
