package symfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type parser struct {
	doc     *Document
	line    int
	section Section
	inEnums bool
	frame   *Frame
}

// Parse reads a document written by Write or a compatible tool. Comment
// lines and unknown keys inside frames are ignored.
func Parse(r io.Reader) (*Document, error) {
	p := &parser{doc: &Document{Sections: make(map[Section][]Frame)}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.flush()
	return p.doc, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

// flush stores the current frame. A continued frame takes its identifier
// from the frame it continues.
func (p *parser) flush() {
	if p.frame == nil {
		return
	}
	frames := p.doc.Sections[p.section]
	if p.frame.Continued && len(frames) > 0 {
		prev := frames[len(frames)-1]
		p.frame.ID, p.frame.Extended = prev.ID, prev.Extended
	}
	p.doc.Sections[p.section] = append(frames, *p.frame)
	p.frame = nil
}

func (p *parser) parseLine(line string) error {
	switch {
	case line == "" || strings.HasPrefix(line, "//"):
		return nil
	case strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}"):
		p.flush()
		name := line[1 : len(line)-1]
		p.inEnums = name == "ENUMS"
		if !p.inEnums {
			switch s := Section(name); s {
			case Send, Receive, SendReceive:
				p.section = s
			default:
				return p.errorf("unknown section %q", name)
			}
		}
		return nil
	case p.inEnums:
		p.doc.Enums = append(p.doc.Enums, line)
		return nil
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		if p.section == "" {
			return p.errorf("frame outside a section")
		}
		p.flush()
		p.frame = &Frame{Name: line[1 : len(line)-1], Continued: true}
		return nil
	}

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return p.errorf("expected key=value, got %q", line)
	}
	if p.frame == nil {
		return p.header(key, value)
	}
	return p.frameLine(key, value)
}

func (p *parser) header(key, value string) error {
	switch key {
	case "FormatVersion":
		v, _, _ := strings.Cut(value, "//")
		p.doc.FormatVersion = strings.TrimSpace(v)
	case "Title":
		title, err := strconv.Unquote(value)
		if err != nil {
			return p.errorf("bad title %s", value)
		}
		p.doc.Title = title
	default:
		return p.errorf("unexpected %s outside a frame", key)
	}
	return nil
}

func (p *parser) frameLine(key, value string) error {
	f := p.frame
	switch key {
	case "ID":
		id, err := parseNumber(value)
		if err != nil {
			return p.errorf("bad ID %q", value)
		}
		f.ID = uint32(id)
		f.Continued = false
	case "Type":
		switch value {
		case "Extended":
			f.Extended = true
		case "Standard":
			f.Extended = false
		default:
			return p.errorf("bad Type %q", value)
		}
	case "DLC":
		n, err := strconv.Atoi(value)
		if err != nil {
			return p.errorf("bad DLC %q", value)
		}
		f.DLC = n
	case "CycleTime":
		f.CycleTime = value
	case "Mux":
		m, err := p.mux(value)
		if err != nil {
			return err
		}
		f.Mux = m
	case "Var":
		v, err := p.variable(value)
		if err != nil {
			return err
		}
		f.Vars = append(f.Vars, v)
	}
	return nil
}

// parseNumber reads decimal or h-suffixed hexadecimal.
func parseNumber(s string) (uint64, error) {
	if h, ok := strings.CutSuffix(s, "h"); ok {
		return strconv.ParseUint(h, 16, 32)
	}
	return strconv.ParseUint(s, 10, 32)
}

func parseBits(s string) (start, length int, err error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected start,length")
	}
	if start, err = strconv.Atoi(a); err != nil {
		return 0, 0, err
	}
	if length, err = strconv.Atoi(b); err != nil {
		return 0, 0, err
	}
	return start, length, nil
}

// mux reads `<name> <start>,<length> <value>`.
func (p *parser) mux(value string) (*Mux, error) {
	fields := strings.Fields(value)
	if len(fields) < 3 {
		return nil, p.errorf("bad Mux %q", value)
	}
	start, length, err := parseBits(fields[1])
	if err != nil {
		return nil, p.errorf("bad Mux bits %q: %v", fields[1], err)
	}
	v, err := parseNumber(fields[2])
	if err != nil {
		return nil, p.errorf("bad Mux value %q", fields[2])
	}
	return &Mux{Name: fields[0], Start: start, Length: length, Value: int(v)}, nil
}

// variable reads `<name> <signed|unsigned> <start>,<length> [/f:<factor>]`.
func (p *parser) variable(value string) (Var, error) {
	fields := strings.Fields(value)
	if len(fields) < 3 {
		return Var{}, p.errorf("bad Var %q", value)
	}
	v := Var{Name: fields[0]}
	switch fields[1] {
	case "signed":
		v.Signed = true
	case "unsigned":
	default:
		return Var{}, p.errorf("bad Var signedness %q", fields[1])
	}
	start, length, err := parseBits(fields[2])
	if err != nil {
		return Var{}, p.errorf("bad Var bits %q: %v", fields[2], err)
	}
	v.Start, v.Length = start, length
	for _, opt := range fields[3:] {
		if factor, ok := strings.CutPrefix(opt, "/f:"); ok {
			v.Factor = factor
		}
	}
	return v, nil
}
