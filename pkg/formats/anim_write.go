package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// PaddingMode selects how the opaque padding blocks are written.
type PaddingMode int

const (
	// PaddingPreserve re-emits decoded padding bytes when their lengths still
	// match the bone list, and falls back to constants otherwise.
	PaddingPreserve PaddingMode = iota
	// PaddingConstant always writes 0x0C, 0x08 and 0x00 blocks.
	PaddingConstant
)

// String returns the config name of the mode.
func (m PaddingMode) String() string {
	switch m {
	case PaddingPreserve:
		return "preserve"
	case PaddingConstant:
		return "constant"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParsePaddingMode maps a config name to a PaddingMode. Empty means preserve.
func ParsePaddingMode(s string) (PaddingMode, error) {
	switch s {
	case "", "preserve":
		return PaddingPreserve, nil
	case "constant":
		return PaddingConstant, nil
	default:
		return 0, fmt.Errorf("unknown padding mode %q", s)
	}
}

// Encode writes the model in binary form using PaddingPreserve.
func (a *ANIM) Encode(w io.Writer) error {
	return a.EncodeWithMode(w, PaddingPreserve)
}

// EncodeWithMode writes the model in binary form. Bone and frame counts are
// taken from the live slices; header values are written as held.
func (a *ANIM) EncodeWithMode(w io.Writer, mode PaddingMode) error {
	if err := a.checkArity(); err != nil {
		return err
	}

	e := &binWriter{w: w}

	// Header
	e.u32(a.Version)
	e.u32(a.Unknown0)
	e.f32(a.FrameRate)
	if err := e.str(a.SkeletonName, "skeleton name"); err != nil {
		return err
	}
	e.u32(a.FlagCount)
	e.f32(a.PlayTime)

	// Bones
	e.u32(uint32(len(a.Bones)))
	for i, bone := range a.Bones {
		if err := e.str(bone.Name, fmt.Sprintf("bone %d name", i)); err != nil {
			return err
		}
		e.u32(uint32(bone.ParentID))
	}

	e.u32(a.Unknown1)
	e.u32(a.Unknown2)

	// Padding
	n := len(a.Bones)
	e.pad(a.Padding.BoneA, n, ANIMPadBoneA, mode)
	e.pad(a.Padding.BoneB, n, ANIMPadBoneB, mode)
	e.pad(a.Padding.Trailer, ANIMPadTrailerLen, ANIMPadTrailer, mode)

	// Frames
	e.u32(a.TransformCount)
	e.u32(a.QuaternionCount)
	e.u32(uint32(len(a.Frames)))
	for _, frame := range a.Frames {
		for _, v := range frame.Transforms {
			e.f32(v.X)
			e.f32(v.Y)
			e.f32(v.Z)
		}
		for _, q := range frame.Quaternions {
			e.u16(uint16(q.X))
			e.u16(uint16(q.Y))
			e.u16(uint16(q.Z))
			e.u16(uint16(q.W))
		}
	}

	if e.err != nil {
		return fmt.Errorf("writing ANIM: %w", e.err)
	}
	return nil
}

// Bytes returns the binary form of the model.
func (a *ANIM) Bytes(mode PaddingMode) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.EncodeWithMode(&buf, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the binary form of the model to path.
func (a *ANIM) WriteFile(path string, mode PaddingMode) error {
	data, err := a.Bytes(mode)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// checkArity verifies every frame matches the cross-wired counts.
func (a *ANIM) checkArity() error {
	for i, f := range a.Frames {
		if uint32(len(f.Transforms)) != a.QuaternionCount {
			return fmt.Errorf("%w: frame %d has %d transforms, quaternion count is %d",
				ErrANIMFrameArity, i, len(f.Transforms), a.QuaternionCount)
		}
		if uint32(len(f.Quaternions)) != a.TransformCount {
			return fmt.Errorf("%w: frame %d has %d quaternions, transform count is %d",
				ErrANIMFrameArity, i, len(f.Quaternions), a.TransformCount)
		}
	}
	return nil
}

// binWriter writes little-endian fields and keeps the first error.
type binWriter struct {
	w   io.Writer
	buf [4]byte
	err error
}

func (e *binWriter) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *binWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(e.buf[:2], v)
	e.write(e.buf[:2])
}

func (e *binWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *binWriter) f32(v float32) {
	e.u32(math.Float32bits(v))
}

// str writes a u16 length prefix and the raw bytes of s.
func (e *binWriter) str(s, what string) error {
	if len(s) > MaxANIMStringLen {
		return fmt.Errorf("%w: %s is %d bytes", ErrANIMFieldTooLong, what, len(s))
	}
	e.u16(uint16(len(s)))
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
	return nil
}

// pad writes n bytes: the decoded block when preserving and its length still
// fits, otherwise n copies of fill.
func (e *binWriter) pad(stored []byte, n int, fill byte, mode PaddingMode) {
	if mode == PaddingPreserve && len(stored) == n {
		e.write(stored)
		return
	}
	e.write(bytes.Repeat([]byte{fill}, n))
}
