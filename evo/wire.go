package evo

import (
	"bytes"
	"encoding/gob"

	"github.com/evosim/evo-wasm/evoerr"
)

// encodeJob gob-encodes a job for the store's opaque JobRecord.Body;
// the HTTP surface (C11) encodes the same IslandJob as JSON instead.
func encodeJob(job IslandJob) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(job); err != nil {
		return nil, evoerr.New(evoerr.Serialization, "evo.encodeJob", err)
	}
	return buf.Bytes(), nil
}

// decodeJob reverses encodeJob.
func decodeJob(data []byte) (IslandJob, error) {
	var job IslandJob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&job); err != nil {
		return IslandJob{}, evoerr.New(evoerr.Serialization, "evo.decodeJob", err)
	}
	return job, nil
}
