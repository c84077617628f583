package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/ids"
)

// fileImage is the single gob-encoded value a filestore keeps on disk;
// every mutation rewrites the whole image, which is acceptable at this
// system's scale and consistent with how checkpoints are themselves
// encoded.
type fileImage struct {
	Genomes     map[ids.LineageId]GenomeRecord
	Jobs        map[ids.JobId]JobRecord
	Checkpoints []CheckpointRecord
}

type filestore struct {
	mu   sync.Mutex
	path string
	img  fileImage
}

// NewFileStore loads path if it exists, or starts from an empty image.
func NewFileStore(path string) (Store, error) {
	fs := &filestore{
		path: path,
		img: fileImage{
			Genomes: make(map[ids.LineageId]GenomeRecord),
			Jobs:    make(map[ids.JobId]JobRecord),
		},
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, evoerr.New(evoerr.Io, "store.NewFileStore", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&fs.img); err != nil {
		return nil, evoerr.New(evoerr.Serialization, "store.NewFileStore", err)
	}
	return fs, nil
}

// save rewrites the file atomically: encode to a temp file in the same
// directory, then rename over the target.
func (fs *filestore) save() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fs.img); err != nil {
		return evoerr.New(evoerr.Serialization, "store.save", err)
	}
	tmp := fs.path + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return evoerr.New(evoerr.Io, "store.save", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return evoerr.New(evoerr.Io, "store.save", err)
	}
	return nil
}

func (fs *filestore) PutGenome(id ids.LineageId, rec GenomeRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.img.Genomes[id] = rec
	return fs.save()
}

func (fs *filestore) GetGenome(id ids.LineageId) (GenomeRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	rec, ok := fs.img.Genomes[id]
	if !ok {
		return GenomeRecord{}, ErrNotFound
	}
	return rec, nil
}

func (fs *filestore) ListGenomes() ([]GenomeRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]GenomeRecord, 0, len(fs.img.Genomes))
	for _, rec := range fs.img.Genomes {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineageID.String() < out[j].LineageID.String() })
	return out, nil
}

func (fs *filestore) PutJob(id ids.JobId, rec JobRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.img.Jobs[id] = rec
	return fs.save()
}

func (fs *filestore) GetJob(id ids.JobId) (JobRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	rec, ok := fs.img.Jobs[id]
	if !ok {
		return JobRecord{}, ErrNotFound
	}
	return rec, nil
}

func (fs *filestore) AppendCheckpoint(rec CheckpointRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.img.Checkpoints = append(fs.img.Checkpoints, rec)
	return fs.save()
}

func (fs *filestore) LatestCheckpoint() (CheckpointRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.img.Checkpoints) == 0 {
		return CheckpointRecord{}, ErrNotFound
	}
	return fs.img.Checkpoints[len(fs.img.Checkpoints)-1], nil
}

func (fs *filestore) PruneCheckpoints(keep int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.img.Checkpoints) <= keep {
		return nil
	}
	fs.img.Checkpoints = fs.img.Checkpoints[len(fs.img.Checkpoints)-keep:]
	return fs.save()
}

func (fs *filestore) CountLineages() (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.img.Genomes), nil
}
