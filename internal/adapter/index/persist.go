package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"rdb/internal/domain"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
	keyCount      = []byte("count")
)

// Save persists the index as two co-located artifacts: a bbolt vector file
// and a JSON metadata file holding the chunk array in index order. Both are
// written to temp files and renamed into place so a successful Save never
// leaves a partial index next to mismatched metadata.
func Save(vectors [][]float32, chunks []domain.Chunk, indexPath, metadataPath string) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("refusing to save: %d vectors but %d chunks", len(vectors), len(chunks))
	}

	for _, p := range []string{indexPath, metadataPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	tmpIndex := indexPath + ".tmp"
	tmpMeta := metadataPath + ".tmp"

	if err := writeVectorFile(tmpIndex, vectors); err != nil {
		os.Remove(tmpIndex)
		return err
	}

	metaData, err := json.Marshal(chunks)
	if err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}
	if err := os.WriteFile(tmpMeta, metaData, 0644); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := os.Rename(tmpIndex, indexPath); err != nil {
		os.Remove(tmpIndex)
		os.Remove(tmpMeta)
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	if err := os.Rename(tmpMeta, metadataPath); err != nil {
		os.Remove(tmpMeta)
		return fmt.Errorf("failed to move metadata into place: %w", err)
	}

	return nil
}

func writeVectorFile(path string, vectors [][]float32) error {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer db.Close()

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyDimension, encodeUint32(uint32(dim))); err != nil {
			return err
		}
		if err := meta.Put(keyCount, encodeUint32(uint32(len(vectors)))); err != nil {
			return err
		}

		b, err := tx.CreateBucketIfNotExists(bucketVectors)
		if err != nil {
			return err
		}
		for i, v := range vectors {
			if len(v) != dim {
				return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
			}
			if err := b.Put(encodeUint32(uint32(i)), encodeVector(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads the two index artifacts and builds a Flat index. A missing
// artifact yields ErrUnavailable; a vector/chunk count mismatch is a fatal
// load error.
func Load(indexPath, metadataPath string) (*Flat, error) {
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("%w: index file not found: %s", ErrUnavailable, indexPath)
	}
	if _, err := os.Stat(metadataPath); err != nil {
		return nil, fmt.Errorf("%w: metadata file not found: %s", ErrUnavailable, metadataPath)
	}

	vectors, err := readVectorFile(indexPath)
	if err != nil {
		return nil, err
	}

	metaData, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(metaData, &chunks); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("index corrupt: %d vectors but %d chunks", len(vectors), len(chunks))
	}

	return NewFlat(vectors, chunks)
}

func readVectorFile(path string) ([][]float32, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer db.Close()

	var vectors [][]float32
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("vector file missing meta bucket")
		}
		count := decodeUint32(meta.Get(keyCount))
		dim := decodeUint32(meta.Get(keyDimension))

		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vector file missing vectors bucket")
		}

		vectors = make([][]float32, 0, count)
		for i := uint32(0); i < count; i++ {
			raw := b.Get(encodeUint32(i))
			if raw == nil {
				return fmt.Errorf("vector file corrupt: missing vector %d", i)
			}
			v, err := decodeVector(raw)
			if err != nil {
				return fmt.Errorf("vector %d: %w", i, err)
			}
			if uint32(len(v)) != dim {
				return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
			}
			vectors = append(vectors, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func encodeUint32(n uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, n)
	return buf
}

func decodeUint32(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("truncated vector data (%d bytes)", len(raw))
	}
	v := make([]float32, len(raw)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return v, nil
}
