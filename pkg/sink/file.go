package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/io"
	"github.com/Traubert/nlp-tools/pkg/render/dot"
)

// Supported file formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// Formats lists every format FileSink can write.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG}

// FileSink writes <Dir>/<name>.<format> for every configured format.
type FileSink struct {
	Dir     string
	Formats []string // defaults to json only
	DOT     dot.Options
}

// NewFileSink creates a file sink after validating the formats and creating
// dir.
func NewFileSink(dir string, formats []string, opts dot.Options) (*FileSink, error) {
	for _, f := range formats {
		if err := apperrors.ValidateFormat(f, Formats); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileSink{Dir: dir, Formats: formats, DOT: opts}, nil
}

// Export implements Exporter.
func (s *FileSink) Export(ctx context.Context, g graph.Layoutable, name string) error {
	if err := apperrors.ValidateName(name); err != nil {
		return err
	}
	formats := s.Formats
	if len(formats) == 0 {
		formats = []string{FormatJSON}
	}
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.Dir, name+"."+f)
		if err := s.write(ctx, g, f, path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func (s *FileSink) write(ctx context.Context, g graph.Layoutable, format, path string) error {
	switch format {
	case FormatJSON:
		return io.ExportJSON(g, path)
	case FormatDOT:
		return os.WriteFile(path, []byte(dot.ToDOT(g, s.DOT)), 0644)
	case FormatSVG:
		svg, err := dot.RenderSVG(ctx, dot.ToDOT(g, s.DOT))
		if err != nil {
			return err
		}
		return os.WriteFile(path, svg, 0644)
	default:
		return apperrors.ValidateFormat(format, Formats)
	}
}
