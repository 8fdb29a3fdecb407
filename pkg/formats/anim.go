// Package formats provides codecs for skeletal animation file formats.
// ANIM (skeleton animation) format parser.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ANIM format errors.
var (
	ErrTruncatedANIMData       = errors.New("truncated ANIM data")
	ErrANIMFieldTooLong        = errors.New("ANIM field exceeds 16-bit length prefix")
	ErrMalformedANIMText       = errors.New("malformed ANIM text")
	ErrANIMFrameArity          = errors.New("ANIM frame arity mismatch")
	ErrUnrepresentableANIMName = errors.New("ANIM name cannot be represented as text")
)

// Values observed in every well-formed file.
const (
	ANIMVersion    uint32  = 8
	ANIMUnknown0   uint32  = 1
	ANIMUnknown1   uint32  = 6
	ANIMUnknown2   uint32  = 1
	ANIMDefaultFPS float32 = 20

	ANIMPadBoneA      byte = 0x0C
	ANIMPadBoneB      byte = 0x08
	ANIMPadTrailer    byte = 0x00
	ANIMPadTrailerLen      = 16

	// MaxANIMStringLen is the longest text a 16-bit length prefix can describe.
	MaxANIMStringLen = math.MaxUint16
)

// maxPrealloc caps slice capacity taken from untrusted counts.
const maxPrealloc = 4096

// Bone is a named joint. ParentID is -1 for roots; any other index is legal,
// including forward references and cycles.
type Bone struct {
	Name     string
	ParentID int32
}

// Vector3 is a per-bone translation.
type Vector3 struct {
	X, Y, Z float32
}

// RawQuat is a rotation quantized to signed 16-bit fixed point.
type RawQuat struct {
	X, Y, Z, W int16
}

// IdentityRawQuat is the format's default rotation. W is the minimum of the
// int16 range, not +1.
var IdentityRawQuat = RawQuat{W: math.MinInt16}

// Frame is one time sample. len(Transforms) equals the file's QuaternionCount
// and len(Quaternions) equals its TransformCount; the swap is part of the format.
type Frame struct {
	Transforms  []Vector3
	Quaternions []RawQuat
}

// Padding holds the opaque blocks between the bone list and the frame header.
type Padding struct {
	BoneA   []byte // one byte per bone, conventionally 0x0C
	BoneB   []byte // one byte per bone, conventionally 0x08
	Trailer []byte // 16 bytes, conventionally 0x00
}

// ANIM represents a parsed skeleton animation file.
type ANIM struct {
	Version      uint32
	Unknown0     uint32
	FrameRate    float32
	SkeletonName string
	FlagCount    uint32
	PlayTime     float32 // total play time in seconds
	Bones        []Bone
	Unknown1     uint32
	Unknown2     uint32
	Padding      Padding

	// TransformCount sizes each frame's quaternion list and QuaternionCount
	// sizes each frame's transform list.
	TransformCount  uint32
	QuaternionCount uint32
	Frames          []Frame
}

// NewANIM returns an empty model carrying the header defaults.
func NewANIM() *ANIM {
	return &ANIM{
		Version:   ANIMVersion,
		Unknown0:  ANIMUnknown0,
		FrameRate: ANIMDefaultFPS,
		Unknown1:  ANIMUnknown1,
		Unknown2:  ANIMUnknown2,
	}
}

// NewFrame returns a frame sized for the given counts, filled with zero
// translations and identity rotations.
func NewFrame(transformCount, quaternionCount uint32) Frame {
	f := Frame{
		Transforms:  make([]Vector3, quaternionCount),
		Quaternions: make([]RawQuat, transformCount),
	}
	for i := range f.Quaternions {
		f.Quaternions[i] = IdentityRawQuat
	}
	return f
}

// ParseANIM parses an ANIM file from raw bytes.
func ParseANIM(data []byte) (*ANIM, error) {
	return DecodeANIM(bytes.NewReader(data))
}

// ParseANIMFile parses an ANIM file from disk.
func ParseANIMFile(path string) (*ANIM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ANIM file: %w", err)
	}
	return ParseANIM(data)
}

// DecodeANIM reads one ANIM model from r. Fields are consumed strictly in
// order; any short read fails the whole decode.
func DecodeANIM(r io.Reader) (*ANIM, error) {
	d := &binReader{r: r}
	anim := &ANIM{}

	// Header
	var err error
	if anim.Version, err = d.u32("version"); err != nil {
		return nil, err
	}
	if anim.Unknown0, err = d.u32("unknown0"); err != nil {
		return nil, err
	}
	if anim.FrameRate, err = d.f32("frame rate"); err != nil {
		return nil, err
	}
	if anim.SkeletonName, err = d.str("skeleton name"); err != nil {
		return nil, err
	}
	if anim.FlagCount, err = d.u32("flag count"); err != nil {
		return nil, err
	}
	if anim.PlayTime, err = d.f32("play time"); err != nil {
		return nil, err
	}

	// Bones
	boneCount, err := d.u32("bone count")
	if err != nil {
		return nil, err
	}
	anim.Bones = make([]Bone, 0, capHint(boneCount))
	for i := uint32(0); i < boneCount; i++ {
		bone, err := d.bone(i)
		if err != nil {
			return nil, err
		}
		anim.Bones = append(anim.Bones, bone)
	}

	if anim.Unknown1, err = d.u32("unknown1"); err != nil {
		return nil, err
	}
	if anim.Unknown2, err = d.u32("unknown2"); err != nil {
		return nil, err
	}

	// Padding
	if anim.Padding.BoneA, err = d.bytes(len(anim.Bones), "bone padding A"); err != nil {
		return nil, err
	}
	if anim.Padding.BoneB, err = d.bytes(len(anim.Bones), "bone padding B"); err != nil {
		return nil, err
	}
	if anim.Padding.Trailer, err = d.bytes(ANIMPadTrailerLen, "trailer padding"); err != nil {
		return nil, err
	}

	// Frames
	if anim.TransformCount, err = d.u32("transform count"); err != nil {
		return nil, err
	}
	if anim.QuaternionCount, err = d.u32("quaternion count"); err != nil {
		return nil, err
	}
	frameCount, err := d.u32("frame count")
	if err != nil {
		return nil, err
	}

	anim.Frames = make([]Frame, 0, capHint(frameCount))
	for i := uint32(0); i < frameCount; i++ {
		frame, err := d.frame(i, anim.TransformCount, anim.QuaternionCount)
		if err != nil {
			return nil, err
		}
		anim.Frames = append(anim.Frames, frame)
	}

	return anim, nil
}

// binReader reads little-endian fields sequentially from a stream.
type binReader struct {
	r   io.Reader
	buf [4]byte
}

func (d *binReader) fill(p []byte, what string) error {
	if _, err := io.ReadFull(d.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: reading %s", ErrTruncatedANIMData, what)
		}
		return fmt.Errorf("reading %s: %w", what, err)
	}
	return nil
}

func (d *binReader) u16(what string) (uint16, error) {
	if err := d.fill(d.buf[:2], what); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(d.buf[:2]), nil
}

func (d *binReader) u32(what string) (uint32, error) {
	if err := d.fill(d.buf[:4], what); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(d.buf[:4]), nil
}

func (d *binReader) f32(what string) (float32, error) {
	v, err := d.u32(what)
	return math.Float32frombits(v), err
}

func (d *binReader) bytes(n int, what string) ([]byte, error) {
	b := make([]byte, n)
	if err := d.fill(b, what); err != nil {
		return nil, err
	}
	return b, nil
}

// str reads a u16 length prefix followed by that many opaque bytes.
func (d *binReader) str(what string) (string, error) {
	n, err := d.u16(what + " length")
	if err != nil {
		return "", err
	}
	b, err := d.bytes(int(n), what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *binReader) bone(i uint32) (Bone, error) {
	name, err := d.str(fmt.Sprintf("bone %d name", i))
	if err != nil {
		return Bone{}, err
	}
	parent, err := d.u32(fmt.Sprintf("bone %d parent", i))
	if err != nil {
		return Bone{}, err
	}
	return Bone{Name: name, ParentID: int32(parent)}, nil
}

func (d *binReader) frame(i, transformCount, quaternionCount uint32) (Frame, error) {
	// Cross-wired: QuaternionCount transforms, TransformCount quaternions.
	frame := Frame{
		Transforms:  make([]Vector3, 0, capHint(quaternionCount)),
		Quaternions: make([]RawQuat, 0, capHint(transformCount)),
	}

	var b [12]byte
	for j := uint32(0); j < quaternionCount; j++ {
		if err := d.fill(b[:12], fmt.Sprintf("frame %d transform %d", i, j)); err != nil {
			return Frame{}, err
		}
		frame.Transforms = append(frame.Transforms, Vector3{
			X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		})
	}

	for j := uint32(0); j < transformCount; j++ {
		if err := d.fill(b[:8], fmt.Sprintf("frame %d quaternion %d", i, j)); err != nil {
			return Frame{}, err
		}
		frame.Quaternions = append(frame.Quaternions, RawQuat{
			X: int16(binary.LittleEndian.Uint16(b[0:2])),
			Y: int16(binary.LittleEndian.Uint16(b[2:4])),
			Z: int16(binary.LittleEndian.Uint16(b[4:6])),
			W: int16(binary.LittleEndian.Uint16(b[6:8])),
		})
	}

	return frame, nil
}

func capHint(n uint32) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}
