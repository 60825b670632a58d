package fragmat

import (
	"errors"
	"math"
	"testing"

	"github.com/ecotools/fragsim/internal/kinet"
)

func TestEvenSplitRows(t *testing.T) {
	m, err := New(5, PolicyEven)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		want := 1 / float64(5-i-1)
		for j := 0; j < 5; j++ {
			got := m.Frac(i, j)
			if j <= i {
				if got != 0 {
					t.Errorf("f[%d][%d] should be 0, got %g", i, j, got)
				}
				continue
			}
			if math.Abs(got-want) > 1e-15 {
				t.Errorf("f[%d][%d] should be %g, got %g", i, j, want, got)
			}
		}
	}
}

func TestEvenSplitRowSums(t *testing.T) {
	for _, k := range []int{2, 3, 7, 24} {
		m, err := New(k, PolicyEven)
		if err != nil {
			t.Fatalf("build failed for K=%d: %v", k, err)
		}
		for i := 0; i < k-1; i++ {
			sum := 0.0
			for j := 0; j < k; j++ {
				sum += m.Frac(i, j)
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("K=%d row %d sums to %g", k, i, sum)
			}
		}
	}
}

func TestFinestRowZero(t *testing.T) {
	for _, policy := range []Policy{PolicyEven, PolicyCascade} {
		m, err := New(4, policy)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		for j := 0; j < 4; j++ {
			if m.Frac(3, j) != 0 {
				t.Errorf("policy %s: finest row entry %d is %g, want 0", policy, j, m.Frac(3, j))
			}
		}
	}
}

func TestSingleClassZeroMatrix(t *testing.T) {
	// A lone class has nowhere to fragment to; the 1x1 matrix must be zero
	// and must not trip a division by zero.
	m, err := New(1, PolicyEven)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if m.Frac(0, 0) != 0 {
		t.Errorf("1x1 matrix should be zero, got %g", m.Frac(0, 0))
	}
}

func TestCascade(t *testing.T) {
	m, err := New(4, PolicyCascade)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if j == i+1 {
				want = 1
			}
			if m.Frac(i, j) != want {
				t.Errorf("cascade f[%d][%d]: got %g, want %g", i, j, m.Frac(i, j), want)
			}
		}
	}
}

func TestInvalidBuild(t *testing.T) {
	if _, err := New(0, PolicyEven); err == nil {
		t.Error("expected error for K=0")
	}

	_, err := New(3, Policy("random"))
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
	var cfgErr *kinet.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}
