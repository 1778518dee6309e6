package ldraw

import (
	"fmt"
	"strings"
)

// BFCCertification is the back-face culling status declared by a page.
type BFCCertification uint8

const (
	// BFCUnknown means the page makes no statement.
	BFCUnknown BFCCertification = iota
	// BFCNoCertify means the page is declared uncertified.
	BFCNoCertify
	// BFCCertifyCCW means polygons are wound counter-clockwise.
	BFCCertifyCCW
	// BFCCertifyCW means polygons are wound clockwise.
	BFCCertifyCW
)

// IsCertified reports whether culling is enabled by the certification.
func (c BFCCertification) IsCertified() bool {
	return c == BFCCertifyCCW || c == BFCCertifyCW
}

// Winding returns the default winding of the certification.
func (c BFCCertification) Winding() Winding {
	if c == BFCCertifyCW {
		return WindingCW
	}
	return WindingCCW
}

// String returns the header line text, or "" for BFCUnknown.
func (c BFCCertification) String() string {
	switch c {
	case BFCNoCertify:
		return "0 BFC NOCERTIFY"
	case BFCCertifyCCW:
		return "0 BFC CERTIFY CCW"
	case BFCCertifyCW:
		return "0 BFC CERTIFY CW"
	}
	return ""
}

// BFCMode is the statement made by a culling flag.
type BFCMode uint8

const (
	// BFCClip enables culling.
	BFCClip BFCMode = iota
	// BFCNoClip disables culling.
	BFCNoClip
	// BFCCW switches to clockwise winding.
	BFCCW
	// BFCCCW switches to counter-clockwise winding.
	BFCCCW
	// BFCClipCW enables culling with clockwise winding.
	BFCClipCW
	// BFCClipCCW enables culling with counter-clockwise winding.
	BFCClipCCW
	// BFCInvertNext inverts the winding of the next reference only.
	BFCInvertNext
)

var bfcModeNames = [...]string{
	BFCClip:       "CLIP",
	BFCNoClip:     "NOCLIP",
	BFCCW:         "CW",
	BFCCCW:        "CCW",
	BFCClipCW:     "CLIP CW",
	BFCClipCCW:    "CLIP CCW",
	BFCInvertNext: "INVERTNEXT",
}

// String returns the string representation of a BFCMode.
func (m BFCMode) String() string {
	if int(m) < len(bfcModeNames) {
		return bfcModeNames[m]
	}
	return "UNKNOWN"
}

// ParseBFCMode reads the text that follows "0 BFC".
func ParseBFCMode(s string) (BFCMode, bool) {
	s = strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	switch s {
	case "CW CLIP":
		return BFCClipCW, true
	case "CCW CLIP":
		return BFCClipCCW, true
	}
	for i, name := range bfcModeNames {
		if name == s {
			return BFCMode(i), true
		}
	}
	return 0, false
}

// BFCFlag is a culling statement affecting the elements after it.
type BFCFlag struct {
	ElementBase
	mode BFCMode
}

// NewBFCFlag returns a culling flag.
func NewBFCFlag(mode BFCMode) *BFCFlag {
	f := &BFCFlag{mode: mode}
	f.Init(f)
	return f
}

// Kind returns KindBFCFlag.
func (f *BFCFlag) Kind() ElementKind { return KindBFCFlag }

// Mode returns the statement.
func (f *BFCFlag) Mode() BFCMode { return f.mode }

// SetMode changes the statement.
func (f *BFCFlag) SetMode(m BFCMode) error {
	if m > BFCInvertNext {
		return fmt.Errorf("%w: culling mode %d", ErrInvalidArgument, m)
	}
	return setProperty(&f.ElementBase, "Mode", &f.mode, m, f.SetMode)
}

// Clip returns the enablement set by the flag, if it sets one.
func (f *BFCFlag) Clip() (enabled, ok bool) {
	switch f.mode {
	case BFCClip, BFCClipCW, BFCClipCCW:
		return true, true
	case BFCNoClip:
		return false, true
	}
	return false, false
}

// Winding returns the winding set by the flag, if it sets one.
func (f *BFCFlag) Winding() (w Winding, ok bool) {
	switch f.mode {
	case BFCCW, BFCClipCW:
		return WindingCW, true
	case BFCCCW, BFCClipCCW:
		return WindingCCW, true
	}
	return WindingCCW, false
}

// Clone returns an unattached copy.
func (f *BFCFlag) Clone() Element { return NewBFCFlag(f.mode) }

// Emit writes the flag. Flags only appear in library output; see emitFlag
// for how collections rewrite them.
func (f *BFCFlag) Emit(b *CodeBuilder, ec *EmitContext) {
	if ec.Standard != StandardPartsLibrary {
		return
	}
	b.WriteLine("0 BFC " + f.mode.String())
}

// emitFlag writes f on behalf of its collection. In library output for a
// certified page, a flag that only changes the winding is dropped and the
// winding of the following geometry is flipped instead; a flag that
// changes enablement is written as a bare CLIP or NOCLIP.
func (f *BFCFlag) emitFlag(b *CodeBuilder, ec *EmitContext) {
	if ec.Standard != StandardPartsLibrary {
		return
	}
	if !ec.optimiseFlags() || f.mode == BFCInvertNext {
		f.Emit(b, ec)
		if w, ok := f.Winding(); ok && ec.bfc != nil {
			ec.bfc.output = w
			ec.bfc.local = w
			ec.Winding = w
		}
		if v, ok := f.Clip(); ok && ec.bfc != nil {
			ec.bfc.enabled = v
		}
		return
	}
	if v, ok := f.Clip(); ok && v != ec.bfc.enabled {
		if v {
			b.WriteLine("0 BFC CLIP")
		} else {
			b.WriteLine("0 BFC NOCLIP")
		}
		ec.bfc.enabled = v
	}
	if w, ok := f.Winding(); ok && w != ec.bfc.local {
		ec.bfc.local = w
		ec.Winding = ec.Winding.Invert()
	}
}
