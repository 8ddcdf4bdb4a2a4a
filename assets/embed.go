package assets

import (
	"bufio"
	"embed"
	"strings"
	"text/template"
)

//go:embed commentary.tmpl system.txt greetings.txt
var FS embed.FS

// readLines returns the non-empty, non-comment lines of an embedded file.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// CommentaryTemplate parses the per-guess prompt template.
func CommentaryTemplate() (*template.Template, error) {
	return template.ParseFS(FS, "commentary.tmpl")
}

// SystemInstruction returns the host persona sent alongside every prompt.
func SystemInstruction() (string, error) {
	lines, err := readLines("system.txt")
	if err != nil {
		return "", err
	}
	return strings.Join(lines, " "), nil
}

func Greetings() ([]string, error) {
	return readLines("greetings.txt")
}
