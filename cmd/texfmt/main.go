// texfmt - DDS pixel format identification and conversion
//
// Identifies the pixel encoding of legacy DDS textures and converts them
// to and from ordinary images. Block-compressed formats (DXT1/3/5) are
// decoded and encoded in pure Go. Files may be wrapped in a zstd archive;
// archived inputs are detected automatically.
//
// Usage:
//
//	texfmt identify a.dds b.dds            # print each file's pixel format
//	texfmt info a.dds                      # header details
//	texfmt decode in.dds out.png           # DDS → PNG, BMP, GIF or TIFF
//	texfmt encode --format Dxt5 in.png out.dds
package main

import (
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/EchoTools/texfmt/pkg/archive"
	"github.com/EchoTools/texfmt/pkg/bc"
	"github.com/EchoTools/texfmt/pkg/pixel"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "texfmt"
	app.Usage = "DDS pixel format identification and conversion"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			EnvVars: []string{"TEXFMT_VERBOSE"},
			Usage:   "log conversions to stderr",
		},
		&cli.StringFlag{
			Name:    "algorithm",
			EnvVars: []string{"TEXFMT_ALGORITHM"},
			Value:   bc.IterativeClusterFit.String(),
			Usage:   "block colour fit: range, cluster or iterative",
		},
		&cli.BoolFlag{
			Name:  "perceptual",
			Usage: "weight colour error by perceived luminance",
		},
	}

	app.Before = func(c *cli.Context) error {
		pixel.SetLogger(newLogger(c.Bool("verbose"), c.App.ErrWriter))
		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:      "identify",
			Usage:     "Print the pixel format of each file",
			ArgsUsage: "FILE...",
			Action:    identifyAction,
		},
		{
			Name:      "info",
			Usage:     "Show DDS header details",
			ArgsUsage: "FILE",
			Action:    infoAction,
		},
		{
			Name:      "decode",
			Usage:     "Convert a DDS texture to PNG, BMP, GIF or TIFF",
			ArgsUsage: "IN OUT",
			Action:    decodeAction,
		},
		{
			Name:      "encode",
			Usage:     "Convert an image to a DDS texture",
			ArgsUsage: "IN OUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "format",
					Aliases:  []string{"f"},
					Usage:    "pixel format, e.g. Dxt1, Dxt5, A8R8G8B8",
					Required: true,
				},
				&cli.UintFlag{
					Name:  "mips",
					Value: 1,
					Usage: "mip levels to generate, 0 for a full chain",
				},
				&cli.BoolFlag{
					Name:  "dx10",
					Usage: "write a DX10 extended header",
				},
				&cli.BoolFlag{
					Name:    "compress",
					Aliases: []string{"z"},
					Usage:   "wrap the output in a zstd archive",
				},
				&cli.IntFlag{
					Name:  "level",
					Value: archive.DefaultCompressionLevel,
					Usage: "zstd compression level",
				},
			},
			Action: encodeAction,
		},
	}

	return app
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if !verbose {
		return nil
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// codecParams builds block codec parameters from the global flags.
func codecParams(c *cli.Context) (bc.Params, error) {
	p := bc.DefaultParams
	alg, err := bc.ParseAlgorithm(c.String("algorithm"))
	if err != nil {
		return p, err
	}
	p.Algorithm = alg
	if c.Bool("perceptual") {
		p.Weights = bc.PerceptualWeights
	}
	return p, nil
}

func newCodec(c *cli.Context) (*pixel.Codec, error) {
	p, err := codecParams(c)
	if err != nil {
		return nil, err
	}
	return pixel.NewCodec(pixel.WithBlockCodec(bc.NewCodec(p))), nil
}
