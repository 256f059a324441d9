package dtype

import (
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	for dt := Float16; dt <= Bool; dt++ {
		parsed, ok := Parse(dt.String())
		if !ok {
			t.Fatalf("Parse(%q) failed", dt.String())
		}
		if parsed != dt {
			t.Errorf("Parse(%q) = %v, want %v", dt.String(), parsed, dt)
		}
	}

	if _, ok := Parse("complex128"); ok {
		t.Error("expected Parse to reject unknown dtype")
	}
}

func TestSizes(t *testing.T) {
	cases := map[DataType]int{
		Float16:  2,
		BFloat16: 2,
		Float32:  4,
		Float64:  8,
		Int32:    4,
		Int64:    8,
		Uint8:    1,
		Bool:     1,
	}
	for dt, want := range cases {
		if got := dt.Size(); got != want {
			t.Errorf("%s.Size() = %d, want %d", dt, got, want)
		}
	}
}

func TestHalfConversions(t *testing.T) {
	f16 := []float32{0, 0.5, 1, -2, 65504}
	got := Float16ToFloat32(Float32ToFloat16(f16))
	for i, v := range f16 {
		if got[i] != v {
			t.Errorf("float16 round trip of %v = %v", v, got[i])
		}
	}

	bf16 := []float32{0, 0.5, 1, -2}
	gotB := BFloat16ToFloat32(Float32ToBFloat16(bf16))
	for i, v := range bf16 {
		if gotB[i] != v {
			t.Errorf("bfloat16 round trip of %v = %v", v, gotB[i])
		}
	}
}

func TestShape(t *testing.T) {
	s := Shape{2, 3}
	if s.NumElements() != 6 {
		t.Errorf("NumElements = %d, want 6", s.NumElements())
	}
	if !s.Equal(Shape{2, 3}) || s.Equal(Shape{3, 2}) {
		t.Error("Equal misbehaves")
	}
	if s.RowElements() != 3 {
		t.Errorf("RowElements = %d, want 3", s.RowElements())
	}
}
