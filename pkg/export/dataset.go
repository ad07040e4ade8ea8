package export

import "fmt"

// Dataset defines tabular export content. Every row carries one cell per header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("%s row %d has %d cells, want %d", kind, i+1, len(row), len(d.Headers))
		}
	}
	return nil
}

// Renderers returns the built-in renderers keyed by file extension.
func Renderers() map[string]Renderer {
	renderers := []Renderer{NewCSVExporter(), NewPDFExporter(), NewXLSXExporter()}
	out := make(map[string]Renderer, len(renderers))
	for _, r := range renderers {
		out[r.Extension()] = r
	}
	return out
}
