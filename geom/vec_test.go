package geom

import (
	"math"
	"testing"
)

func TestVector3_Cross(t *testing.T) {
	tests := []struct {
		name   string
		v, w   Vector3
		expect Vector3
	}{
		{"x cross y", V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{"y cross x", V3(0, 1, 0), V3(1, 0, 0), V3(0, 0, -1)},
		{"parallel", V3(2, 0, 0), V3(5, 0, 0), V3(0, 0, 0)},
		{"general", V3(1, 2, 3), V3(4, 5, 6), V3(-3, 6, -3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Cross(tt.w)
			if got != tt.expect {
				t.Errorf("%v.Cross(%v) = %v, want %v", tt.v, tt.w, got, tt.expect)
			}
		})
	}
}

func TestVector3_Normalize(t *testing.T) {
	v := V3(3, 0, 4).Normalize()
	if math.Abs(v.Length()-1) > 1e-12 {
		t.Errorf("expected unit length, got %v", v.Length())
	}
	if !V3(0, 0, 0).Normalize().IsZero() {
		t.Error("expected zero vector to normalize to zero")
	}
}

func TestVector3_Dot(t *testing.T) {
	if got := V3(1, 2, 3).Dot(V3(4, -5, 6)); got != 12 {
		t.Errorf("expected 12, got %v", got)
	}
}

func TestBox3_Union(t *testing.T) {
	a := BoxOf(V3(0, 0, 0), V3(1, 1, 1))
	b := BoxOf(V3(-1, 2, 0.5))

	u := a.Union(b)
	if u.Min != V3(-1, 0, 0) || u.Max != V3(1, 2, 1) {
		t.Errorf("unexpected union %+v", u)
	}

	if got := EmptyBox().Union(a); got != a {
		t.Errorf("empty union should be identity, got %+v", got)
	}
	if !EmptyBox().IsEmpty() {
		t.Error("expected EmptyBox to be empty")
	}
}

func TestBox3_Transform(t *testing.T) {
	b := BoxOf(V3(0, 0, 0), V3(2, 1, 1))
	got := b.Transform(Translate(1, 1, 1).Multiply(RotateZ(90)))

	want := BoxOf(V3(0, 1, 1), V3(1, 3, 2))
	if !got.Min.Approx(want.Min, 1e-9) || !got.Max.Approx(want.Max, 1e-9) {
		t.Errorf("Transform = %+v, want %+v", got, want)
	}
}
