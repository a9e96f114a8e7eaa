package markdown

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// GenerateChromaCSS produces the stylesheet for class-based syntax
// highlighting. The dark variant has every .chroma selector scoped under
// .dark so a theme can toggle it with a document class.
func GenerateChromaCSS(lightStyle, darkStyle string) (lightCSS, darkCSS string, err error) {
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	var lightBuf bytes.Buffer
	if err := formatter.WriteCSS(&lightBuf, styles.Get(lightStyle)); err != nil {
		return "", "", fmt.Errorf("generate light CSS: %w", err)
	}

	var darkBuf bytes.Buffer
	if err := formatter.WriteCSS(&darkBuf, styles.Get(darkStyle)); err != nil {
		return "", "", fmt.Errorf("generate dark CSS: %w", err)
	}

	return lightBuf.String(), strings.ReplaceAll(darkBuf.String(), ".chroma", ".dark .chroma"), nil
}
