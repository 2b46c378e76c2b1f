package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/EchoTools/texfmt/pkg/archive"
	"github.com/EchoTools/texfmt/pkg/dds"
	"github.com/EchoTools/texfmt/pkg/pixel"
)

var quadrants = [4]color.NRGBA{
	{R: 200, G: 40, B: 40, A: 255},
	{R: 40, G: 200, B: 40, A: 255},
	{R: 40, G: 40, B: 200, A: 255},
	{R: 240, G: 240, B: 240, A: 255},
}

// quadrantImage fills each quarter of a width×height image with one colour.
func quadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			q := 0
			if x >= width/2 {
				q++
			}
			if y >= height/2 {
				q += 2
			}
			img.SetNRGBA(x, y, quadrants[q])
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"texfmt"}, args...))
	return out.String() + errOut.String(), err
}

func assertImagesNear(t *testing.T, want, got image.Image, tolerance int) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	wb, gb := want.Bounds(), got.Bounds()
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			w := color.NRGBAModel.Convert(want.At(wb.Min.X+x, wb.Min.Y+y)).(color.NRGBA)
			g := color.NRGBAModel.Convert(got.At(gb.Min.X+x, gb.Min.Y+y)).(color.NRGBA)
			for _, d := range []int{
				int(w.R) - int(g.R), int(w.G) - int(g.G), int(w.B) - int(g.B), int(w.A) - int(g.A),
			} {
				if d < -tolerance || d > tolerance {
					t.Fatalf("pixel (%d,%d): want %v, got %v", x, y, w, g)
				}
			}
		}
	}
}

func TestEncodeDecodeCommands(t *testing.T) {
	dir := t.TempDir()
	src := quadrantImage(8, 8)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, src)

	tests := []struct {
		format    string
		tolerance int
		extra     []string
		output    string
	}{
		{"Dxt1", 4, nil, "out.png"},
		{"Dxt5", 4, []string{"--compress"}, "out.bmp"},
		{"Dxt3", 4, []string{"--dx10"}, "out.tiff"},
		{"A8R8G8B8", 0, []string{"--mips", "0"}, "out.png"},
		{"X8R8G8B8", 0, nil, "out.tif"},
		{"Dxt1", 4, []string{"--algorithm", "range"}, "out.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.format+"-"+tt.output, func(t *testing.T) {
			ddsPath := filepath.Join(dir, tt.format+".dds")
			args := append([]string{"encode", "--format", tt.format}, tt.extra...)
			_, err := run(t, append(args, in, ddsPath)...)
			require.NoError(t, err)

			out := filepath.Join(dir, tt.format+"-"+tt.output)
			_, err = run(t, "decode", ddsPath, out)
			require.NoError(t, err)

			got, err := readImage(out)
			require.NoError(t, err)
			assertImagesNear(t, src, got, tt.tolerance)
		})
	}
}

func TestIdentifyCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, quadrantImage(4, 4))

	plain := filepath.Join(dir, "plain.dds")
	packed := filepath.Join(dir, "packed.dds")
	_, err := run(t, "encode", "--format", "X8R8G8B8", in, plain)
	require.NoError(t, err)
	_, err = run(t, "encode", "--format", "Dxt5", "--compress", "--level", "3", in, packed)
	require.NoError(t, err)

	data, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.True(t, archive.IsArchive(data))

	out, err := run(t, "identify", plain, packed)
	require.NoError(t, err)
	assert.Equal(t, plain+": X8R8G8B8\n"+packed+": Dxt5\n", out)
}

func TestIdentifyCommandMissingFile(t *testing.T) {
	exiter := cli.OsExiter
	cli.OsExiter = func(int) {}
	defer func() { cli.OsExiter = exiter }()

	out, err := run(t, "identify", filepath.Join(t.TempDir(), "missing.dds"))
	assert.Error(t, err)
	assert.Contains(t, out, "missing.dds")
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, quadrantImage(8, 8))

	ddsPath := filepath.Join(dir, "out.dds")
	_, err := run(t, "encode", "--format", "Dxt1", "--mips", "0", "--compress", in, ddsPath)
	require.NoError(t, err)

	out, err := run(t, "info", ddsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Archive: zstd")
	assert.Contains(t, out, "Dimensions: 8x8")
	assert.Contains(t, out, "Mip levels: 4")
	assert.Contains(t, out, "Format: Dxt1")
	assert.Contains(t, out, "Surface size: 32 bytes")
	assert.Contains(t, out, "Mip chain size: 56 bytes")
}

func TestOddSizedBlockTexture(t *testing.T) {
	codec := pixel.NewCodec()
	// Split at x=4 so every block, padding included, holds one colour.
	src := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			src.SetNRGBA(x, y, quadrants[x/4])
		}
	}

	var buf bytes.Buffer
	require.NoError(t, encodeTexture(&buf, codec, src, pixel.Dxt5, encodeOptions{mips: 1}))
	// 6x6 occupies 2x2 blocks.
	assert.Equal(t, dds.LegacySize+4*16, buf.Len())

	img, err := decodeTexture(codec, buf.Bytes())
	require.NoError(t, err)
	assertImagesNear(t, src, img, 4)
}

func TestEncodeTextureMipChain(t *testing.T) {
	codec := pixel.NewCodec()

	var buf bytes.Buffer
	require.NoError(t, encodeTexture(&buf, codec, quadrantImage(16, 4), pixel.L8, encodeOptions{}))

	h, err := dds.ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	// 16x4, 8x2, 4x1, 2x1, 1x1
	assert.Equal(t, 5, h.Mips())
	assert.Equal(t, int(h.DataOffset())+dds.MipChainSize(pixel.L8, 16, 4, 5), buf.Len())
}

func TestEncodeTextureUnsupported(t *testing.T) {
	err := encodeTexture(&bytes.Buffer{}, pixel.NewCodec(), quadrantImage(4, 4), pixel.A16B16G16R16, encodeOptions{})
	assert.Error(t, err)
}

func TestMipChain(t *testing.T) {
	levels := mipChain(quadrantImage(8, 2), 0)
	var sizes []image.Point
	for _, l := range levels {
		sizes = append(sizes, l.Bounds().Size())
	}
	assert.Equal(t, []image.Point{{8, 2}, {4, 1}, {2, 1}, {1, 1}}, sizes)

	assert.Len(t, mipChain(quadrantImage(8, 8), 2), 2)
	assert.Len(t, mipChain(quadrantImage(1, 1), 0), 1)
}

func TestPadToBlocks(t *testing.T) {
	// 1x1 pixel expands to a full 4x4 block of copies.
	out, w, h := padToBlocks([]byte{1, 2, 3, 4}, 1, 1)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
	assert.Equal(t, bytes.Repeat([]byte{1, 2, 3, 4}, 16), out)

	same := make([]byte, 4*4*4)
	out, w, h = padToBlocks(same, 4, 4)
	assert.Equal(t, same, out)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
}

func TestImageEncoderFor(t *testing.T) {
	for _, name := range []string{"a.png", "b.BMP", "c.tif", "d.Tiff", "f.gif"} {
		_, err := imageEncoderFor(name)
		assert.NoError(t, err, name)
	}
	_, err := imageEncoderFor("e.jpg")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), ".jpg"))
}
