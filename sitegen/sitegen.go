// Package sitegen turns the scraper's JSON output into script files a
// static site can load without fetch calls: each JSON document becomes a
// .js file assigning the data to a window global. It can also copy the
// generated files into a website's asset tree and keep the product index
// embedded in the site's index.html up to date.
package sitegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// dataFiles maps each main-tree JSON file to the window variable the
// browser viewer expects.
var dataFiles = []struct {
	Name     string
	Variable string
}{
	{"feedback.json", "feedbackData"},
	{"roadmap.json", "roadmapData"},
	{"organization.json", "organizationData"},
}

// ConvertJSONFile rewrites one JSON document as a JavaScript file that
// assigns the data to window.<variableName>. The output lands next to the
// input with a _data.js suffix; its path is returned.
func ConvertJSONFile(jsonPath, variableName string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", jsonPath, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return "", fmt.Errorf("parse %s: %w", jsonPath, err)
	}

	jsPath := strings.TrimSuffix(jsonPath, ".json") + "_data.js"

	var out bytes.Buffer
	out.WriteString("// Auto-generated JavaScript file for static site usage\n")
	fmt.Fprintf(&out, "// Original JSON: %s\n", filepath.Base(jsonPath))
	fmt.Fprintf(&out, "// Generated on: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&out, "window.%s = %s;\n", variableName, pretty.String())

	if err := os.WriteFile(jsPath, out.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", jsPath, err)
	}
	return jsPath, nil
}

// ConvertProductData converts every known main-tree JSON file under
// productDir, skipping files a disabled scraper never produced. Returns
// the generated script paths.
func ConvertProductData(productDir string, logger *slog.Logger) []string {
	var generated []string
	for _, f := range dataFiles {
		jsonPath := filepath.Join(productDir, f.Name)
		if _, err := os.Stat(jsonPath); err != nil {
			logger.Info("Skipping data file conversion", "file", f.Name, "reason", "not found")
			continue
		}
		jsPath, err := ConvertJSONFile(jsonPath, f.Variable)
		if err != nil {
			logger.Error("Failed to convert data file", "file", f.Name, "error", err)
			continue
		}
		logger.Info("Converted data file", "file", f.Name, "script", filepath.Base(jsPath))
		generated = append(generated, jsPath)
	}
	return generated
}

// CopyToSite copies generated script files into the website's asset tree
// at <siteDir>/data/<product>/.
func CopyToSite(siteDir, product string, files []string) error {
	destDir := filepath.Join(siteDir, "data", product)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create site data directory: %w", err)
	}
	for _, src := range files {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}
		dest := filepath.Join(destDir, filepath.Base(src))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	return nil
}

// Product is one entry of the viewer's product index.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type productIndex struct {
	Products []Product `json:"products"`
}

const indexMarker = "const productIndex ="

// UpdateProductIndex rewrites the `const productIndex = {...};` object
// embedded in the site's index HTML so it includes product, replacing an
// existing entry with the same ID.
func UpdateProductIndex(indexPath string, product Product) error {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", indexPath, err)
	}
	html := string(data)

	markerAt := strings.Index(html, indexMarker)
	if markerAt < 0 {
		return fmt.Errorf("%s: no product index found", indexPath)
	}
	start := strings.Index(html[markerAt:], "{")
	if start < 0 {
		return fmt.Errorf("%s: malformed product index", indexPath)
	}
	start += markerAt

	end, err := matchBrace(html, start)
	if err != nil {
		return fmt.Errorf("%s: %w", indexPath, err)
	}

	var index productIndex
	if err := json.Unmarshal([]byte(html[start:end+1]), &index); err != nil {
		return fmt.Errorf("parse product index: %w", err)
	}

	replaced := false
	for i := range index.Products {
		if index.Products[i].ID == product.ID {
			index.Products[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		index.Products = append(index.Products, product)
	}

	updated, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode product index: %w", err)
	}

	out := html[:start] + string(updated) + html[end+1:]
	if err := os.WriteFile(indexPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", indexPath, err)
	}
	return nil
}

// matchBrace finds the index of the brace closing the one at start,
// skipping braces inside string literals.
func matchBrace(s string, start int) (int, error) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated product index object")
}
