package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/clipshelf/clipshelf/internal/ocr"
	"github.com/clipshelf/clipshelf/internal/selection"
)

// OCRExtractCommand recognizes text in an image file from the command line,
// useful for checking tesseract installs and trained data.
type OCRExtractCommand struct {
	ImagePath string
	Engine    string
	Languages string
	MaxWidth  int

	X           float64
	Y           float64
	Width       float64
	Height      float64
	ImageWidth  float64
	ImageHeight float64
}

func NewOCRExtractCommand() *OCRExtractCommand {
	return &OCRExtractCommand{}
}

func (cmd *OCRExtractCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("ocr", flag.ExitOnError)

	fs.StringVar(&cmd.ImagePath, "file", "", "Path to the image file (required)")
	fs.StringVar(&cmd.Engine, "engine", "tesseract", "Recognition engine: tesseract or canned")
	fs.StringVar(&cmd.Languages, "lang", "eng", "Comma-separated trained-data hints, e.g. eng,jpn")
	fs.IntVar(&cmd.MaxWidth, "max-width", ocr.DefaultMaxWidth, "Scale wider images down to this width before recognition")

	fs.Float64Var(&cmd.X, "x", 0, "Selection area left edge in native pixels")
	fs.Float64Var(&cmd.Y, "y", 0, "Selection area top edge in native pixels")
	fs.Float64Var(&cmd.Width, "width", 0, "Selection area width in native pixels")
	fs.Float64Var(&cmd.Height, "height", 0, "Selection area height in native pixels")
	fs.Float64Var(&cmd.ImageWidth, "image-width", 0, "Native image width the selection was made against")
	fs.Float64Var(&cmd.ImageHeight, "image-height", 0, "Native image height the selection was made against")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s ocr -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Recognize text in an image. Without selection flags the whole image is\n")
		fmt.Fprintf(os.Stderr, "recognized; pass all six of -x -y -width -height -image-width -image-height\n")
		fmt.Fprintf(os.Stderr, "to crop to a region first.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ImagePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	if cmd.Engine != "tesseract" && cmd.Engine != "canned" {
		return fmt.Errorf("unknown engine %q", cmd.Engine)
	}

	return nil
}

func (cmd *OCRExtractCommand) area() *selection.Area {
	if cmd.Width <= 0 || cmd.Height <= 0 || cmd.ImageWidth <= 0 || cmd.ImageHeight <= 0 {
		return nil
	}
	return &selection.Area{
		X:           cmd.X,
		Y:           cmd.Y,
		Width:       cmd.Width,
		Height:      cmd.Height,
		ImageWidth:  cmd.ImageWidth,
		ImageHeight: cmd.ImageHeight,
	}
}

func (cmd *OCRExtractCommand) Run() error {
	if _, err := os.Stat(cmd.ImagePath); os.IsNotExist(err) {
		return fmt.Errorf("image file not found: %s", cmd.ImagePath)
	}

	var engine ocr.Engine
	if cmd.Engine == "canned" {
		engine = ocr.NewCannedEngine()
	} else {
		engine = ocr.NewTesseractEngine()
	}

	adapter := ocr.NewAdapter(engine,
		ocr.WithLanguages(strings.Split(cmd.Languages, ",")...),
		ocr.WithMaxWidth(cmd.MaxWidth),
	)

	result := adapter.ExtractTextFromFile(context.Background(), cmd.ImagePath, cmd.area())
	if result.Err != "" {
		return fmt.Errorf("recognition failed: %s", result.Err)
	}

	fmt.Println(result.Text)
	if result.Confidence != nil {
		fmt.Fprintf(os.Stderr, "confidence: %.2f\n", *result.Confidence)
	}
	return nil
}
