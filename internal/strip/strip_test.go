package strip

import (
	"testing"
)

func TestStrconv_Cases(t *testing.T) {
	cases := []struct {
		in   uint64
		want uint64
	}{
		{100, 1},
		{1_000, 1},
		{1_000_000, 1},
		{1_000_000_000, 1},
		{120, 12},
		{7, 7},
		{10, 1},
		{101, 101},
		{990, 99},
	}
	for _, c := range cases {
		got, err := Strconv(c.in)
		if err != nil {
			t.Fatalf("Strconv(%d): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Strconv(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDiv_Cases(t *testing.T) {
	cases := []struct {
		in   uint64
		want uint64
	}{
		{100, 1},
		{1_000, 1},
		{1_000_000, 1},
		{1_000_000_000, 1},
		{120, 12},
		{7, 7},
		{10, 1},
		{101, 101},
		{990, 99},
	}
	for _, c := range cases {
		if got := Div(c.in); got != c.want {
			t.Errorf("Div(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStrconv_ZeroFails(t *testing.T) {
	// str(0).rstrip('0') is the empty string; the parse error must
	// surface, not be swallowed.
	if got, err := Strconv(0); err == nil {
		t.Errorf("Strconv(0) = %d, expected parse error", got)
	}
}

func TestDiv_ZeroGuarded(t *testing.T) {
	if got := Div(0); got != 0 {
		t.Errorf("Div(0) = %d, want 0", got)
	}
}

// Both implementations must agree on every positive input.
func TestAgreement(t *testing.T) {
	inputs := []uint64{1, 7, 10, 100, 120, 999, 1_000, 40_960, 57_000,
		1_000_000, 123_456_700, 1_000_000_000, 18_446_744_073_709_551_610}
	for n := uint64(1); n < 5_000; n++ {
		inputs = append(inputs, n)
	}
	for _, n := range inputs {
		s, err := Strconv(n)
		if err != nil {
			t.Fatalf("Strconv(%d): %v", n, err)
		}
		d := Div(n)
		if s != d {
			t.Errorf("disagreement at %d: Strconv=%d Div=%d", n, s, d)
		}
	}
}

// Stripping a stripped value is a no-op: the last digit is nonzero.
func TestIdempotence(t *testing.T) {
	for _, n := range []uint64{100, 120, 7, 1_000_000_000, 909_000} {
		once := Div(n)
		if once%10 == 0 && once != 0 {
			t.Fatalf("Div(%d) = %d still ends in zero", n, once)
		}
		if twice := Div(once); twice != once {
			t.Errorf("Div(Div(%d)): got %d, want %d", n, twice, once)
		}

		sOnce, err := Strconv(n)
		if err != nil {
			t.Fatalf("Strconv(%d): %v", n, err)
		}
		sTwice, err := Strconv(sOnce)
		if err != nil {
			t.Fatalf("Strconv(%d): %v", sOnce, err)
		}
		if sTwice != sOnce {
			t.Errorf("Strconv(Strconv(%d)): got %d, want %d", n, sTwice, sOnce)
		}
	}
}

// sink prevents the compiler from eliminating the benchmarked call.
var sink uint64

func benchmarkStrconv(b *testing.B, n uint64) {
	for i := 0; i < b.N; i++ {
		v, _ := Strconv(n)
		sink += v
	}
}

func benchmarkDiv(b *testing.B, n uint64) {
	for i := 0; i < b.N; i++ {
		sink += Div(n)
	}
}

func BenchmarkStrconv100(b *testing.B) { benchmarkStrconv(b, 100) }
func BenchmarkDiv100(b *testing.B) { benchmarkDiv(b, 100) }
func BenchmarkStrconv1K(b *testing.B) { benchmarkStrconv(b, 1_000) }
func BenchmarkDiv1K(b *testing.B) { benchmarkDiv(b, 1_000) }
func BenchmarkStrconv1M(b *testing.B) { benchmarkStrconv(b, 1_000_000) }
func BenchmarkDiv1M(b *testing.B) { benchmarkDiv(b, 1_000_000) }
func BenchmarkStrconv1B(b *testing.B) { benchmarkStrconv(b, 1_000_000_000) }
func BenchmarkDiv1B(b *testing.B) { benchmarkDiv(b, 1_000_000_000) }
