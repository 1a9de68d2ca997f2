package bolt

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestPutAndLoadGrade(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ids := make([]string, 300)
	vectors := make([][]float64, 300)
	for i := range ids {
		ids[i] = "5__math__p1__c" + string(rune('a'+i%26))
		vectors[i] = []float64{float64(i), 1}
	}
	if err := f.PutGrade(5, "openai:test", ids, vectors); err != nil {
		t.Fatal(err)
	}
	g, err := f.LoadGrade(5)
	if err != nil {
		t.Fatal(err)
	}
	if g.Model != "openai:test" || g.Dimension != 2 || len(g.Vectors) != 300 {
		t.Fatalf("unexpected grade %+v", g.Model)
	}
	for i, v := range g.Vectors {
		if v[0] != float64(i) {
			t.Fatalf("row %d out of order: %v", i, v)
		}
	}
}

func TestPutGradeReplaces(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	_ = f.PutGrade(6, "m", []string{"a", "b"}, [][]float64{{1}, {2}})
	_ = f.PutGrade(6, "m", []string{"c"}, [][]float64{{3}})
	g, err := f.LoadGrade(6)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.IDs) != 1 || g.IDs[0] != "c" {
		t.Fatalf("expected replacement, got %v", g.IDs)
	}
}

func TestLoadMissingGrade(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.LoadGrade(9); !errors.Is(err, ErrNoGrade) {
		t.Fatalf("expected ErrNoGrade, got %v", err)
	}
}

func TestGradesSorted(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, g := range []int{10, 5, 8} {
		if err := f.PutGrade(g, "m", []string{"x"}, [][]float64{{1}}); err != nil {
			t.Fatal(err)
		}
	}
	grades, err := f.Grades()
	if err != nil {
		t.Fatal(err)
	}
	if len(grades) != 3 || grades[0] != 5 || grades[1] != 8 || grades[2] != 10 {
		t.Fatalf("unexpected grades %v", grades)
	}
}

func TestPutGradeValidates(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.PutGrade(1, "m", []string{"a"}, nil); err == nil {
		t.Error("expected length mismatch")
	}
	if err := f.PutGrade(1, "m", []string{"a", "b"}, [][]float64{{1, 2}, {1}}); err == nil {
		t.Error("expected dimension mismatch")
	}
}
