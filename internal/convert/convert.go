// Package convert runs one ANIM conversion: binary to text or text to binary,
// chosen by the input file's extension.
package convert

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/animconv/pkg/formats"
)

// File extensions understood by the converter. Matching is case-sensitive.
const (
	ExtBinary = ".anim"
	ExtText   = ".txt"
)

// Conversion errors.
var (
	ErrInputOpen            = errors.New("input file couldn't be opened")
	ErrOutputOpen           = errors.New("output file couldn't be opened")
	ErrUnsupportedExtension = errors.New("extension of input file must be .txt or .anim")
)

// Direction is the conversion to perform.
type Direction int

const (
	ToText   Direction = iota // .anim -> .txt
	ToBinary                  // .txt -> .anim
)

// String returns a short description of the direction.
func (d Direction) String() string {
	switch d {
	case ToText:
		return "anim->txt"
	case ToBinary:
		return "txt->anim"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// Options configures a conversion.
type Options struct {
	Text    formats.TextOptions
	Padding formats.PaddingMode
	// Output overrides the derived output path.
	Output string
	// Logger receives progress; nil discards it.
	Logger *zap.Logger
}

// Plan returns the direction and output path for inPath. The output sits next
// to the input with the counterpart extension.
func Plan(inPath string) (Direction, string, error) {
	ext := filepath.Ext(inPath)
	base := inPath[:len(inPath)-len(ext)]
	switch ext {
	case ExtBinary:
		return ToText, base + ExtText, nil
	case ExtText:
		return ToBinary, base + ExtBinary, nil
	default:
		return 0, "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, inPath)
	}
}

// File converts inPath and returns the path written. The output is rendered
// in memory and moved into place only when the conversion succeeds, so a
// failed conversion leaves any existing output file untouched.
func File(inPath string, opts Options) (string, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dir, outPath, err := Plan(inPath)
	if err != nil {
		return "", err
	}
	if opts.Output != "" {
		outPath = opts.Output
	}
	if filepath.Clean(outPath) == filepath.Clean(inPath) {
		return "", fmt.Errorf("%w: output would overwrite input %s", ErrOutputOpen, inPath)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInputOpen, err)
	}
	defer in.Close()

	log.Debug("converting",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Stringer("direction", dir))

	var (
		buf  bytes.Buffer
		anim *formats.ANIM
	)
	switch dir {
	case ToText:
		anim, err = BinaryToText(in, &buf, opts.Text)
	case ToBinary:
		anim, err = TextToBinary(in, &buf, opts.Text, opts.Padding)
	}
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return "", err
	}

	log.Info("converted",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.String("skeleton", anim.SkeletonName),
		zap.Int("bones", len(anim.Bones)),
		zap.Int("frames", len(anim.Frames)),
		zap.Uint32("transform_count", anim.TransformCount),
		zap.Uint32("quaternion_count", anim.QuaternionCount))

	return outPath, nil
}

// writeFileAtomic writes data to a temp file beside path and renames it over
// path. The temp file is removed on any failure.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputOpen, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrOutputOpen, path, err)
	}
	return nil
}

// BinaryToText decodes a binary model from r and writes its text form to w.
// The decoded model is returned for reporting.
func BinaryToText(r io.Reader, w io.Writer, opts formats.TextOptions) (*formats.ANIM, error) {
	anim, err := formats.DecodeANIM(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("decoding ANIM: %w", err)
	}
	if err := anim.WriteText(w, opts); err != nil {
		return nil, fmt.Errorf("writing text: %w", err)
	}
	return anim, nil
}

// TextToBinary parses a text model from r and writes its binary form to w.
func TextToBinary(r io.Reader, w io.Writer, opts formats.TextOptions, mode formats.PaddingMode) (*formats.ANIM, error) {
	anim, err := formats.ParseANIMText(r, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing text: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := anim.EncodeWithMode(bw, mode); err != nil {
		return nil, fmt.Errorf("encoding ANIM: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("encoding ANIM: %w", err)
	}
	return anim, nil
}
