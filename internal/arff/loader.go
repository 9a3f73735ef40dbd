package arff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// maxLineBytes bounds a single line of input.
const maxLineBytes = 4 * 1024 * 1024

// Loader reads tables from files on disk.
type Loader struct{}

var _ contract.TableLoader = Loader{} // Compile-time check

// Load opens source and parses it.
func (Loader) Load(source string) (*schema.Table, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

type token struct {
	text   string
	quoted bool
}

type parser struct {
	table    schema.Table
	attrs    []schema.Attribute
	seenData bool
	inHeader bool
	line     int
}

// Read parses a whole table from r. Files written in append mode repeat the
// header; every repeated header must declare the same attributes.
func Read(r io.Reader) (*schema.Table, error) {
	p := &parser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(strings.TrimSpace(sc.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !p.seenData {
		return nil, fmt.Errorf("no %s section found", dataKeyword)
	}
	return &p.table, nil
}

func (p *parser) parseLine(line string) error {
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return nil
	}
	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, relationKeyword):
		name, _, err := scanWord(strings.TrimSpace(line[len(relationKeyword):]))
		if err != nil {
			return fmt.Errorf("bad relation: %w", err)
		}
		if !p.seenData {
			p.table.Relation = name
		}
		p.attrs = nil
		p.inHeader = true
		return nil
	case strings.HasPrefix(lower, attributeKeyword):
		if !p.inHeader {
			return fmt.Errorf("%s outside of a header", attributeKeyword)
		}
		attr, err := parseAttribute(strings.TrimSpace(line[len(attributeKeyword):]))
		if err != nil {
			return err
		}
		p.attrs = append(p.attrs, attr)
		return nil
	case strings.HasPrefix(lower, dataKeyword):
		return p.startData()
	}

	if !p.seenData || p.inHeader {
		return fmt.Errorf("unexpected line before %s: %q", dataKeyword, line)
	}
	row, err := parseRow(line, p.table.Schema)
	if err != nil {
		return err
	}
	p.table.Rows = append(p.table.Rows, row)
	return nil
}

func (p *parser) startData() error {
	if !p.inHeader {
		return fmt.Errorf("%s without a header", dataKeyword)
	}
	s, err := schema.NewSchema(p.attrs...)
	if err != nil {
		return err
	}
	if p.seenData && !s.Equal(p.table.Schema) {
		return fmt.Errorf("%w: appended header %s differs from %s", schema.ErrSchemaMismatch, s, p.table.Schema)
	}
	p.table.Schema = s
	p.seenData = true
	p.inHeader = false
	return nil
}

func parseAttribute(rest string) (schema.Attribute, error) {
	name, rest, err := scanWord(rest)
	if err != nil {
		return schema.Attribute{}, fmt.Errorf("bad attribute name: %w", err)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return schema.Attribute{}, fmt.Errorf("attribute %q has no type", name)
	}
	// Nominal attributes carry free-form labels.
	if strings.HasPrefix(rest, "{") {
		return schema.Attribute{Name: name, Type: schema.StringType}, nil
	}
	typ, err := schema.ParseAttributeType(strings.Fields(rest)[0])
	if err != nil {
		return schema.Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
	}
	return schema.Attribute{Name: name, Type: typ}, nil
}

func parseRow(line string, s schema.Schema) (schema.Record, error) {
	if strings.HasPrefix(line, "{") {
		return nil, fmt.Errorf("sparse rows are not supported")
	}
	toks, err := splitRow(line)
	if err != nil {
		return nil, err
	}
	if len(toks) != s.Len() {
		return nil, fmt.Errorf("%w: %d values for %d attributes", schema.ErrSchemaMismatch, len(toks), s.Len())
	}
	row := make(schema.Record, len(toks))
	for i, tok := range toks {
		attr := s.At(i)
		if tok.quoted && attr.Type == schema.StringType {
			row[i] = schema.Text(tok.text)
			continue
		}
		v, err := schema.ParseValue(attr.Type, tok.text)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: bad %s value %q", attr.Name, attr.Type, tok.text)
		}
		row[i] = v
	}
	return row, nil
}

// scanWord reads one possibly quoted word and returns it with the remainder.
func scanWord(s string) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("missing name")
	}
	if s[0] == '\'' || s[0] == '"' {
		word, next, err := readQuoted(s, 0)
		if err != nil {
			return "", "", err
		}
		return word, s[next:], nil
	}
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, "", nil
	}
	return s[:end], s[end:], nil
}

func splitRow(line string) ([]token, error) {
	var toks []token
	i := 0
	for {
		i = skipSpace(line, i)
		var t token
		if i < len(line) && (line[i] == '\'' || line[i] == '"') {
			text, next, err := readQuoted(line, i)
			if err != nil {
				return nil, err
			}
			t = token{text: text, quoted: true}
			i = skipSpace(line, next)
			if i < len(line) && line[i] != ',' {
				return nil, fmt.Errorf("unexpected %q after quoted value at column %d", line[i], i+1)
			}
		} else {
			end := len(line)
			if j := strings.IndexByte(line[i:], ','); j >= 0 {
				end = i + j
			}
			t = token{text: strings.TrimSpace(line[i:end])}
			i = end
		}
		toks = append(toks, t)
		if i >= len(line) {
			return toks, nil
		}
		i++ // comma
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// readQuoted reads a quoted token starting at s[start] and returns its
// unescaped text and the index just past the closing quote.
func readQuoted(s string, start int) (string, int, error) {
	q := s[start]
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		if c == q {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, fmt.Errorf("unterminated quote starting at column %d", start+1)
}
