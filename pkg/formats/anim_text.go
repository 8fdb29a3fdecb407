package formats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/animconv/pkg/charset"
)

// maxTextLine bounds a single text line; names may use the full 16-bit range.
const maxTextLine = 1 << 20

// TextOptions controls the text form.
type TextOptions struct {
	// Charset transcodes names; nil keeps raw bytes.
	Charset *charset.Codec
	// Precision is the number of significant digits for floats.
	// 0 writes the shortest form that parses back to the same float32.
	Precision int
	// SymmetricQuaternions negates Y and Z on import as well as on export.
	// Off by default: existing text files expect the one-sided negation.
	SymmetricQuaternions bool
}

// WriteText writes the model in its line-oriented text form. Each bone line
// echoes the bone's position; it is informational only.
func (a *ANIM) WriteText(w io.Writer, opts TextOptions) error {
	if err := a.checkArity(); err != nil {
		return err
	}

	skeleton, err := textName(opts.Charset, a.SkeletonName, "skeleton name")
	if err != nil {
		return err
	}
	if strings.ContainsAny(skeleton, "\r\n") {
		return fmt.Errorf("%w: skeleton name contains a line break", ErrUnrepresentableANIMName)
	}

	bw := bufio.NewWriter(w)
	ff := func(v float32) string {
		return formatFloat(v, opts.Precision)
	}

	fmt.Fprintf(bw, "%d\n%d\n%s\n%s\n%d\n%s\n",
		a.Version, a.Unknown0, ff(a.FrameRate), skeleton, a.FlagCount, ff(a.PlayTime))

	fmt.Fprintf(bw, "%d\n", len(a.Bones))
	for i, bone := range a.Bones {
		name, err := textName(opts.Charset, bone.Name, fmt.Sprintf("bone %d name", i))
		if err != nil {
			return err
		}
		if strings.ContainsAny(name, "\r\n") || strings.TrimRight(name, " \t") != name {
			return fmt.Errorf("%w: bone %d name %q", ErrUnrepresentableANIMName, i, name)
		}
		fmt.Fprintf(bw, "%s %d %d\n", name, i, bone.ParentID)
	}

	fmt.Fprintf(bw, "%d\n%d\n%d\n", a.TransformCount, a.QuaternionCount, len(a.Frames))

	for _, frame := range a.Frames {
		for _, v := range frame.Transforms {
			fmt.Fprintf(bw, "%s %s %s\n", ff(v.X), ff(v.Y), ff(v.Z))
		}
		for _, raw := range frame.Quaternions {
			q := DecodeQuat(raw)
			fmt.Fprintf(bw, "%s %s %s %s\n", ff(q.X), ff(q.Y), ff(q.Z), ff(q.W))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing ANIM text: %w", err)
	}
	return nil
}

// ParseANIMText reads the text form. Fields absent from the text
// (Unknown1, Unknown2, padding) take the well-formed defaults, so the binary
// writer emits constant padding for the result. A binary file that stores
// other Unknown1/Unknown2 values does not survive binary -> text -> binary
// unchanged.
func ParseANIMText(r io.Reader, opts TextOptions) (*ANIM, error) {
	t := newTextReader(r)
	anim := NewANIM()

	var err error
	if anim.Version, err = t.u32("version"); err != nil {
		return nil, err
	}
	if anim.Unknown0, err = t.u32("unknown0"); err != nil {
		return nil, err
	}
	if anim.FrameRate, err = t.f32("frame rate"); err != nil {
		return nil, err
	}
	skeleton, err := t.line("skeleton name")
	if err != nil {
		return nil, err
	}
	if anim.SkeletonName, err = rawName(opts.Charset, skeleton, "skeleton name"); err != nil {
		return nil, err
	}
	if anim.FlagCount, err = t.u32("flag count"); err != nil {
		return nil, err
	}
	if anim.PlayTime, err = t.f32("play time"); err != nil {
		return nil, err
	}

	boneCount, err := t.u32("bone count")
	if err != nil {
		return nil, err
	}
	anim.Bones = make([]Bone, 0, capHint(boneCount))
	for i := uint32(0); i < boneCount; i++ {
		bone, err := t.bone(i, opts.Charset)
		if err != nil {
			return nil, err
		}
		anim.Bones = append(anim.Bones, bone)
	}

	if anim.TransformCount, err = t.u32("transform count"); err != nil {
		return nil, err
	}
	if anim.QuaternionCount, err = t.u32("quaternion count"); err != nil {
		return nil, err
	}
	frameCount, err := t.u32("frame count")
	if err != nil {
		return nil, err
	}

	encode := EncodeQuat
	if opts.SymmetricQuaternions {
		encode = EncodeQuatSymmetric
	}

	anim.Frames = make([]Frame, 0, capHint(frameCount))
	for i := uint32(0); i < frameCount; i++ {
		frame := Frame{
			Transforms:  make([]Vector3, 0, capHint(anim.QuaternionCount)),
			Quaternions: make([]RawQuat, 0, capHint(anim.TransformCount)),
		}
		for j := uint32(0); j < anim.QuaternionCount; j++ {
			v, err := t.floats(fmt.Sprintf("frame %d transform %d", i, j), 3)
			if err != nil {
				return nil, err
			}
			frame.Transforms = append(frame.Transforms, Vector3{X: v[0], Y: v[1], Z: v[2]})
		}
		for j := uint32(0); j < anim.TransformCount; j++ {
			v, err := t.floats(fmt.Sprintf("frame %d quaternion %d", i, j), 4)
			if err != nil {
				return nil, err
			}
			frame.Quaternions = append(frame.Quaternions, encode(Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}))
		}
		anim.Frames = append(anim.Frames, frame)
	}

	if err := t.end(); err != nil {
		return nil, err
	}
	return anim, nil
}

// textReader hands out lines with their line numbers for error messages.
type textReader struct {
	sc *bufio.Scanner
	n  int
}

func newTextReader(r io.Reader) *textReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTextLine)
	return &textReader{sc: sc}
}

// line returns the next line verbatim, minus a trailing CR.
func (t *textReader) line(what string) (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", fmt.Errorf("reading %s: %w", what, err)
		}
		return "", fmt.Errorf("%w: reading %s at line %d", ErrTruncatedANIMData, what, t.n+1)
	}
	t.n++
	return strings.TrimSuffix(t.sc.Text(), "\r"), nil
}

// nonBlank returns the next line that holds something besides whitespace.
func (t *textReader) nonBlank(what string) (string, error) {
	for {
		l, err := t.line(what)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(l) != "" {
			return l, nil
		}
	}
}

// fields returns the whitespace-separated tokens of the next non-blank line.
func (t *textReader) fields(what string) ([]string, error) {
	l, err := t.nonBlank(what)
	if err != nil {
		return nil, err
	}
	return strings.Fields(l), nil
}

func (t *textReader) malformed(what string, format string, args ...any) error {
	return fmt.Errorf("%w: %s at line %d: %s", ErrMalformedANIMText, what, t.n, fmt.Sprintf(format, args...))
}

func (t *textReader) u32(what string) (uint32, error) {
	f, err := t.fields(what)
	if err != nil {
		return 0, err
	}
	if len(f) != 1 {
		return 0, t.malformed(what, "expected 1 value, got %d", len(f))
	}
	v, err := strconv.ParseUint(f[0], 10, 32)
	if err != nil {
		return 0, t.malformed(what, "%q is not an unsigned 32-bit integer", f[0])
	}
	return uint32(v), nil
}

func (t *textReader) f32(what string) (float32, error) {
	v, err := t.floats(what, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (t *textReader) floats(what string, n int) ([]float32, error) {
	f, err := t.fields(what)
	if err != nil {
		return nil, err
	}
	if len(f) != n {
		return nil, t.malformed(what, "expected %d values, got %d", n, len(f))
	}
	out := make([]float32, n)
	for i, tok := range f {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, t.malformed(what, "%q is not a float", tok)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// bone parses "name index parent". The name is everything before the last
// two tokens, so it may contain spaces. The index is skipped.
func (t *textReader) bone(i uint32, cs *charset.Codec) (Bone, error) {
	what := fmt.Sprintf("bone %d", i)
	l, err := t.nonBlank(what)
	if err != nil {
		return Bone{}, err
	}

	rest, parentTok := cutLastField(l)
	name, indexTok := cutLastField(rest)
	if parentTok == "" || indexTok == "" {
		return Bone{}, t.malformed(what, "expected \"name index parent\", got %q", l)
	}

	parent, err := strconv.ParseInt(parentTok, 10, 32)
	if err != nil {
		return Bone{}, t.malformed(what, "parent %q is not a signed 32-bit integer", parentTok)
	}

	raw, err := rawName(cs, name, what+" name")
	if err != nil {
		return Bone{}, err
	}
	return Bone{Name: raw, ParentID: int32(parent)}, nil
}

// end fails if anything but blank lines follows the last frame.
func (t *textReader) end() error {
	for t.sc.Scan() {
		t.n++
		if strings.TrimSpace(t.sc.Text()) != "" {
			return t.malformed("end of file", "unexpected content after last frame")
		}
	}
	if err := t.sc.Err(); err != nil {
		return fmt.Errorf("reading end of file: %w", err)
	}
	return nil
}

// cutLastField splits s into the text before its last whitespace-separated
// token (right-trimmed) and the token itself.
func cutLastField(s string) (before, last string) {
	s = strings.TrimRight(s, " \t")
	i := strings.LastIndexAny(s, " \t")
	if i < 0 {
		return "", s
	}
	return strings.TrimRight(s[:i], " \t"), s[i+1:]
}

func formatFloat(v float32, precision int) string {
	if precision <= 0 {
		precision = -1
	}
	return strconv.FormatFloat(float64(v), 'g', precision, 32)
}

func textName(cs *charset.Codec, raw, what string) (string, error) {
	s, err := cs.ToText(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnrepresentableANIMName, what, err)
	}
	return s, nil
}

func rawName(cs *charset.Codec, text, what string) (string, error) {
	s, err := cs.FromText(text)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedANIMText, what, err)
	}
	return s, nil
}
