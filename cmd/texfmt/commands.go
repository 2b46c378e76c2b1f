package main

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/EchoTools/texfmt/pkg/archive"
	"github.com/EchoTools/texfmt/pkg/dds"
	"github.com/EchoTools/texfmt/pkg/pixel"
)

type identifyResult struct {
	format pixel.Format
	err    error
}

// identifyAction classifies every file argument in parallel and prints the
// results in argument order.
func identifyAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	paths := c.Args().Slice()

	// Ordered futures: one result channel per path, queued in order and
	// bounded so at most a few per CPU are in flight.
	futures := make(chan chan identifyResult, runtime.NumCPU()*2)
	go func() {
		defer close(futures)
		for _, path := range paths {
			ch := make(chan identifyResult, 1)
			futures <- ch
			go func(path string) {
				f, err := identifyFile(path)
				ch <- identifyResult{f, err}
			}(path)
		}
	}()

	failed := 0
	i := 0
	for ch := range futures {
		res := <-ch
		if res.err != nil {
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", paths[i], res.err)
			failed++
		} else {
			fmt.Fprintf(c.App.Writer, "%s: %s\n", paths[i], res.format)
		}
		i++
	}

	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d files could not be identified", failed, len(paths)), 1)
	}
	return nil
}

// identifyFile reads only as much of the file as identification needs. For
// archives that means decompressing the start of the payload.
func identifyFile(path string) (pixel.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return pixel.Unknown, err
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return pixel.Unknown, fmt.Errorf("read magic: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return pixel.Unknown, err
	}
	if magic != archive.Magic {
		return pixel.Identify(f)
	}

	ar, err := archive.NewReader(f)
	if err != nil {
		return pixel.Unknown, err
	}
	defer ar.Close()

	head := make([]byte, pixel.MinHeaderSize)
	n, err := io.ReadFull(ar, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return pixel.Unknown, fmt.Errorf("read archived header: %w", err)
	}
	return pixel.Identify(bytes.NewReader(head[:n]))
}

// readTexture loads a DDS file, unwrapping it first if it is archived.
func readTexture(path string) (data []byte, archived bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	if !archive.IsArchive(data) {
		return data, false, nil
	}
	data, err = archive.Decompress(data)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

func infoAction(c *cli.Context) error {
	if c.NArg() != 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	path := c.Args().First()

	data, archived, err := readTexture(path)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	h, err := dds.ReadHeader(bytes.NewReader(data))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	f := h.Format()
	w := c.App.Writer
	fmt.Fprintf(w, "File: %s\n", path)
	if archived {
		fmt.Fprintf(w, "Archive: zstd, %d bytes uncompressed\n", len(data))
	}
	fmt.Fprintf(w, "Dimensions: %dx%d\n", h.Width, h.Height)
	fmt.Fprintf(w, "Mip levels: %d\n", h.Mips())
	fmt.Fprintf(w, "Format: %s\n", f)
	if h.DX10 != nil {
		fmt.Fprintf(w, "DXGI format: %s (%d)\n", dds.FormatName(h.DX10.DXGIFormat), h.DX10.DXGIFormat)
	}
	fmt.Fprintf(w, "Data offset: 0x%x\n", h.DataOffset())
	if size := dds.SurfaceSize(f, int(h.Width), int(h.Height)); size > 0 {
		chain := dds.MipChainSize(f, int(h.Width), int(h.Height), h.Mips())
		fmt.Fprintf(w, "Surface size: %d bytes\n", size)
		fmt.Fprintf(w, "Mip chain size: %d bytes (%.2f KB)\n", chain, float64(chain)/1024)
	}
	return nil
}

func decodeAction(c *cli.Context) error {
	if c.NArg() != 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	enc, err := imageEncoderFor(out)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	codec, err := newCodec(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	data, _, err := readTexture(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	img, err := decodeTexture(codec, data)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("%s: %w", in, err), 1)
	}

	if err := writeImage(out, img, enc); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

// decodeTexture converts the top mip level of a DDS file to an image.
func decodeTexture(codec *pixel.Codec, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	h, err := dds.ReadHeader(r)
	if err != nil {
		return nil, err
	}
	f := h.Format()
	if !f.Supported() {
		return nil, fmt.Errorf("%s: %w", f, pixel.ErrUnsupportedFormat)
	}

	native, err := dds.ReadSurface(r, h, f)
	if err != nil {
		return nil, err
	}

	// Block-compressed surfaces are stored in whole blocks, so a surface
	// whose sides are not multiples of 4 decodes at the padded size and is
	// cropped afterwards.
	width, height := int(h.Width), int(h.Height)
	pw, ph := width, height
	if f.Compressed() {
		pw, ph = roundUp4(width), roundUp4(height)
	}

	canonical, err := codec.DecodeImage(f, native, pw, ph)
	if err != nil {
		return nil, err
	}
	img, err := pixel.ToNRGBA(canonical, pw, ph)
	if err != nil {
		return nil, err
	}
	if pw == width && ph == height {
		return img, nil
	}
	return img.SubImage(image.Rect(0, 0, width, height)), nil
}

func encodeAction(c *cli.Context) error {
	if c.NArg() != 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	f, err := pixel.ParseFormat(c.String("format"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	codec, err := newCodec(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	img, err := readImage(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var buf bytes.Buffer
	opts := encodeOptions{mips: int(c.Uint("mips")), dx10: c.Bool("dx10")}
	if err := encodeTexture(&buf, codec, img, f, opts); err != nil {
		return cli.NewExitError(fmt.Errorf("%s: %w", in, err), 1)
	}

	dst, err := os.Create(out)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer dst.Close()

	if c.Bool("compress") {
		err = archive.Encode(dst, buf.Bytes(), archive.WithCompressionLevel(c.Int("level")))
	} else {
		_, err = dst.Write(buf.Bytes())
	}
	if err != nil {
		return cli.NewExitError(fmt.Errorf("write %s: %w", out, err), 1)
	}
	if err := dst.Close(); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

type encodeOptions struct {
	mips int // 0 means a full chain down to 1×1
	dx10 bool
}

// encodeTexture writes img as a DDS file of format f with its mip chain.
func encodeTexture(w io.Writer, codec *pixel.Codec, img image.Image, f pixel.Format, opts encodeOptions) error {
	if !f.Supported() {
		return fmt.Errorf("%s: %w", f, pixel.ErrUnsupportedFormat)
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("empty image: %w", pixel.ErrInvalidDimensions)
	}

	levels := mipChain(img, opts.mips)

	var surface []byte
	for _, level := range levels {
		native, err := encodeLevel(codec, level, f)
		if err != nil {
			return err
		}
		surface = append(surface, native...)
	}

	newHeader := dds.NewHeader
	if opts.dx10 {
		newHeader = dds.NewDX10Header
	}
	h, err := newHeader(f, uint32(b.Dx()), uint32(b.Dy()), uint32(len(levels)))
	if err != nil {
		return err
	}
	return dds.Write(w, h, surface)
}

// encodeLevel converts one mip level, padding block-compressed levels to
// whole blocks by repeating the last row and column.
func encodeLevel(codec *pixel.Codec, img image.Image, f pixel.Format) ([]byte, error) {
	canonical := pixel.FromImage(img)
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if f.Compressed() {
		canonical, width, height = padToBlocks(canonical, width, height)
	}
	return codec.EncodeImage(f, canonical, width, height)
}

func roundUp4(n int) int {
	return (n + 3) &^ 3
}

// padToBlocks extends a canonical buffer to multiples of 4 in both
// dimensions with edge pixels.
func padToBlocks(canonical []byte, width, height int) ([]byte, int, int) {
	pw, ph := roundUp4(width), roundUp4(height)
	if pw == width && ph == height {
		return canonical, width, height
	}

	out := make([]byte, pw*ph*pixel.CanonicalStride)
	for y := 0; y < ph; y++ {
		sy := min(y, height-1)
		for x := 0; x < pw; x++ {
			sx := min(x, width-1)
			src := (sy*width + sx) * pixel.CanonicalStride
			copy(out[(y*pw+x)*pixel.CanonicalStride:], canonical[src:src+pixel.CanonicalStride])
		}
	}
	return out, pw, ph
}
