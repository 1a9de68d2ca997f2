// Package bolt persists precomputed per-grade embedding vectors in a single
// bbolt file. Rows keep the order of the grade's chunks so they can be
// reattached after loading.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// ErrNoGrade is returned when the file holds no vectors for a grade.
var ErrNoGrade = errors.New("no vectors for grade")

const gradePrefix = "grade/"

var bucketMeta = []byte("meta")

type storedVector struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"v"`
}

type gradeMeta struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	Count     int    `json:"count"`
}

// Grade is one grade's vectors in row order.
type Grade struct {
	Model     string
	Dimension int
	IDs       []string
	Vectors   [][]float64
}

// File is a bbolt-backed vector file.
type File struct {
	db *bbolt.DB
}

// Open opens or creates the vector file at path.
func Open(path string) (*File, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open vector file %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create meta bucket: %w", err)
	}
	return &File{db: db}, nil
}

// Close releases the file lock.
func (f *File) Close() error { return f.db.Close() }

func gradeBucket(grade int) []byte {
	return []byte(gradePrefix + strconv.Itoa(grade))
}

func rowKey(row int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(row))
	return k
}

// PutGrade replaces every vector stored for grade.
func (f *File) PutGrade(grade int, model string, ids []string, vectors [][]float64) error {
	if len(ids) != len(vectors) {
		return errors.New("ids and vectors length mismatch")
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	return f.db.Update(func(tx *bbolt.Tx) error {
		name := gradeBucket(grade)
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		for i, v := range vectors {
			if len(v) != dim {
				return fmt.Errorf("vector dimension mismatch at row %d: expected %d, got %d", i, dim, len(v))
			}
			data, err := json.Marshal(storedVector{ID: ids[i], Vector: v})
			if err != nil {
				return err
			}
			if err := b.Put(rowKey(i), data); err != nil {
				return err
			}
		}
		meta, err := json.Marshal(gradeMeta{Model: model, Dimension: dim, Count: len(ids)})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(name, meta)
	})
}

// LoadGrade reads a grade's vectors in row order.
func (f *File) LoadGrade(grade int) (Grade, error) {
	var out Grade
	err := f.db.View(func(tx *bbolt.Tx) error {
		name := gradeBucket(grade)
		b := tx.Bucket(name)
		raw := tx.Bucket(bucketMeta).Get(name)
		if b == nil || raw == nil {
			return ErrNoGrade
		}
		var meta gradeMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("decode grade %d meta: %w", grade, err)
		}
		out.Model = meta.Model
		out.Dimension = meta.Dimension
		out.IDs = make([]string, 0, meta.Count)
		out.Vectors = make([][]float64, 0, meta.Count)
		// Big-endian keys iterate in row order.
		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decode grade %d row %d: %w", grade, binary.BigEndian.Uint64(k), err)
			}
			out.IDs = append(out.IDs, stored.ID)
			out.Vectors = append(out.Vectors, stored.Vector)
			return nil
		})
	})
	if err != nil {
		return Grade{}, err
	}
	return out, nil
}

// Grades lists the grades present in the file in ascending order.
func (f *File) Grades() ([]int, error) {
	var grades []int
	err := f.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).ForEach(func(k, _ []byte) error {
			g, err := strconv.Atoi(strings.TrimPrefix(string(k), gradePrefix))
			if err != nil {
				return nil
			}
			grades = append(grades, g)
			return nil
		})
	})
	sort.Ints(grades)
	return grades, err
}
