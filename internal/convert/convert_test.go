package convert

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/animconv/pkg/formats"
)

func sampleANIM() *formats.ANIM {
	anim := formats.NewANIM()
	anim.SkeletonName = "humanoid01"
	anim.PlayTime = 0.5
	anim.Bones = []formats.Bone{
		{Name: "animroot", ParentID: -1},
		{Name: "pelvis", ParentID: 0},
	}
	anim.TransformCount = 2
	anim.QuaternionCount = 2
	anim.Padding = formats.Padding{
		BoneA:   []byte{0x0C, 0x0C},
		BoneB:   []byte{0x08, 0x08},
		Trailer: make([]byte, 16),
	}
	for i := 0; i < 3; i++ {
		f := formats.NewFrame(2, 2)
		f.Transforms[1] = formats.Vector3{X: float32(i), Y: 0.5, Z: -1}
		anim.Frames = append(anim.Frames, f)
	}
	return anim
}

func TestPlan(t *testing.T) {
	tests := []struct {
		in      string
		dir     Direction
		out     string
		wantErr bool
	}{
		{"walk.anim", ToText, "walk.txt", false},
		{filepath.Join("a", "b", "walk.txt"), ToBinary, filepath.Join("a", "b", "walk.anim"), false},
		{"x.y.anim", ToText, "x.y.txt", false},
		{"walk.ANIM", 0, "", true},
		{"walk.bin", 0, "", true},
		{"walk", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dir, out, err := Plan(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedExtension) {
					t.Errorf("expected ErrUnsupportedExtension, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if dir != tt.dir || out != tt.out {
				t.Errorf("Plan(%q) = %v %q, want %v %q", tt.in, dir, out, tt.dir, tt.out)
			}
		})
	}
}

func TestFile_BinaryToTextAndBack(t *testing.T) {
	tmpDir := t.TempDir()
	animPath := filepath.Join(tmpDir, "walk.anim")

	orig, err := sampleANIM().Bytes(formats.PaddingPreserve)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if err := os.WriteFile(animPath, orig, 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	txtPath, err := File(animPath, Options{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("File(anim): %v", err)
	}
	if txtPath != filepath.Join(tmpDir, "walk.txt") {
		t.Errorf("unexpected output path %s", txtPath)
	}

	entries := logs.FilterMessage("converted").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 converted log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["bones"]; got != int64(2) {
		t.Errorf("expected bones=2 in log, got %v", got)
	}

	text, err := os.ReadFile(txtPath)
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	if !strings.Contains(string(text), "\nhumanoid01\n") {
		t.Errorf("text output missing skeleton name:\n%s", text)
	}

	// Encode the text to a fresh binary and compare with the original.
	if err := os.Remove(animPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	back, err := File(txtPath, Options{})
	if err != nil {
		t.Fatalf("File(txt): %v", err)
	}
	data, err := os.ReadFile(back)
	if err != nil {
		t.Fatalf("read binary: %v", err)
	}

	// Quaternions here are identity, which survives requantization exactly.
	if !bytes.Equal(data, orig) {
		t.Error("binary -> text -> binary changed the file")
	}
}

func TestFile_OutputOverride(t *testing.T) {
	tmpDir := t.TempDir()
	animPath := filepath.Join(tmpDir, "walk.anim")
	if err := sampleANIM().WriteFile(animPath, formats.PaddingConstant); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	want := filepath.Join(tmpDir, "edited", "walk_copy.txt")
	if err := os.MkdirAll(filepath.Dir(want), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, err := File(animPath, Options{Output: want})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("override output missing: %v", err)
	}

	if _, err := File(animPath, Options{Output: animPath}); !errors.Is(err, ErrOutputOpen) {
		t.Errorf("expected ErrOutputOpen when output is the input, got %v", err)
	}
}

func TestFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := File(filepath.Join(tmpDir, "walk.fbx"), Options{})
		if !errors.Is(err, ErrUnsupportedExtension) {
			t.Errorf("expected ErrUnsupportedExtension, got %v", err)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := File(filepath.Join(tmpDir, "missing.anim"), Options{})
		if !errors.Is(err, ErrInputOpen) {
			t.Errorf("expected ErrInputOpen, got %v", err)
		}
	})

	t.Run("unwritable output", func(t *testing.T) {
		in := filepath.Join(tmpDir, "ok.anim")
		if err := sampleANIM().WriteFile(in, formats.PaddingConstant); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		_, err := File(in, Options{Output: filepath.Join(tmpDir, "no", "such", "dir", "ok.txt")})
		if !errors.Is(err, ErrOutputOpen) {
			t.Errorf("expected ErrOutputOpen, got %v", err)
		}
	})

	t.Run("truncated binary removes output", func(t *testing.T) {
		data, err := sampleANIM().Bytes(formats.PaddingConstant)
		if err != nil {
			t.Fatalf("Bytes: %v", err)
		}
		in := filepath.Join(tmpDir, "cut.anim")
		if err := os.WriteFile(in, data[:30], 0644); err != nil {
			t.Fatalf("write: %v", err)
		}

		_, err = File(in, Options{})
		if !errors.Is(err, formats.ErrTruncatedANIMData) {
			t.Errorf("expected ErrTruncatedANIMData, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(tmpDir, "cut.txt")); !os.IsNotExist(statErr) {
			t.Error("partial text output should be removed")
		}
	})

	t.Run("malformed text removes output", func(t *testing.T) {
		in := filepath.Join(tmpDir, "bad.txt")
		if err := os.WriteFile(in, []byte("8\n1\ntwenty\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}

		_, err := File(in, Options{})
		if !errors.Is(err, formats.ErrMalformedANIMText) {
			t.Errorf("expected ErrMalformedANIMText, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(tmpDir, "bad.anim")); !os.IsNotExist(statErr) {
			t.Error("partial binary output should be removed")
		}
	})
}

func TestFile_FailedDecodeKeepsExistingOutput(t *testing.T) {
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "walk.anim")
	out := filepath.Join(tmpDir, "walk.txt")

	if err := os.WriteFile(in, []byte{8, 0, 0}, 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	edited := []byte("hand-edited text\n")
	if err := os.WriteFile(out, edited, 0644); err != nil {
		t.Fatalf("write existing output: %v", err)
	}

	if _, err := File(in, Options{}); !errors.Is(err, formats.ErrTruncatedANIMData) {
		t.Fatalf("expected ErrTruncatedANIMData, got %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("existing output was removed: %v", err)
	}
	if !bytes.Equal(got, edited) {
		t.Errorf("existing output changed to %q", got)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only input and existing output, got %v", names)
	}
}

func TestFile_ReplacesExistingOutput(t *testing.T) {
	tmpDir := t.TempDir()
	in := filepath.Join(tmpDir, "walk.anim")
	if err := sampleANIM().WriteFile(in, formats.PaddingConstant); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out := filepath.Join(tmpDir, "walk.txt")
	if err := os.WriteFile(out, []byte("stale\n"), 0644); err != nil {
		t.Fatalf("write existing output: %v", err)
	}

	if _, err := File(in, Options{}); err != nil {
		t.Fatalf("File: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.HasPrefix(string(got), "stale") || !strings.Contains(string(got), "\nhumanoid01\n") {
		t.Errorf("output not replaced:\n%s", got)
	}
}

func TestTextToBinary_PaddingMode(t *testing.T) {
	anim := sampleANIM()
	var text bytes.Buffer
	if err := anim.WriteText(&text, formats.TextOptions{}); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	var out bytes.Buffer
	parsed, err := TextToBinary(&text, &out, formats.TextOptions{}, formats.PaddingPreserve)
	if err != nil {
		t.Fatalf("TextToBinary: %v", err)
	}
	if parsed.Padding.BoneA != nil {
		t.Error("text form carries no padding")
	}

	decoded, err := formats.ParseANIM(out.Bytes())
	if err != nil {
		t.Fatalf("ParseANIM: %v", err)
	}
	if !bytes.Equal(decoded.Padding.BoneA, []byte{0x0C, 0x0C}) || !bytes.Equal(decoded.Padding.BoneB, []byte{0x08, 0x08}) {
		t.Errorf("expected constant padding, got % x / % x", decoded.Padding.BoneA, decoded.Padding.BoneB)
	}
}

func TestDirectionString(t *testing.T) {
	if ToText.String() != "anim->txt" || ToBinary.String() != "txt->anim" {
		t.Errorf("unexpected strings %s %s", ToText, ToBinary)
	}
}
