// Package symfile reads and writes PCAN symbol (.sym) documents.
package symfile

import (
	"fmt"
	"io"
)

const (
	FormatVersion = "5.0"
	DefaultTitle  = "canmatrix-Export"
)

// Section names a frame list of the document.
type Section string

const (
	Send        Section = "SEND"
	Receive     Section = "RECEIVE"
	SendReceive Section = "SENDRECEIVE"
)

var sectionOrder = []Section{Send, Receive, SendReceive}

type Document struct {
	FormatVersion string
	Title         string
	// Enums holds the raw lines of the {ENUMS} section.
	Enums    []string
	Sections map[Section][]Frame
}

// New returns an empty document with the default header.
func New(title string) *Document {
	if title == "" {
		title = DefaultTitle
	}
	return &Document{
		FormatVersion: FormatVersion,
		Title:         title,
		Sections:      make(map[Section][]Frame),
	}
}

// Frame is one [Name] block. A continued frame repeats the previous frame
// for another multiplexer value and carries no ID or Type line.
type Frame struct {
	Name      string
	Continued bool
	ID        uint32
	Extended  bool
	DLC       int
	// CycleTime is the decimal text of the cycle time, empty when unset.
	CycleTime string
	Mux       *Mux
	Vars      []Var
}

type Mux struct {
	Name   string
	Start  int
	Length int
	Value  int
}

type Var struct {
	Name   string
	Signed bool
	Start  int
	Length int
	// Factor is the decimal text of a scale factor other than 1, else empty.
	Factor string
}

func (v Var) signedness() string {
	if v.Signed {
		return "signed"
	}
	return "unsigned"
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Write renders doc. {ENUMS} and {SENDRECEIVE} are always present, the
// other sections only when they hold frames. Every frame is followed by a
// blank line.
func Write(doc *Document, w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("FormatVersion=%s // Do not edit this line!\n", doc.FormatVersion)
	ew.printf("Title=%q\n", doc.Title)

	ew.printf("{ENUMS}\n")
	for _, line := range doc.Enums {
		ew.printf("%s\n", line)
	}
	ew.printf("\n\n")

	for _, section := range sectionOrder {
		frames := doc.Sections[section]
		if len(frames) == 0 && section != SendReceive {
			continue
		}
		ew.printf("{%s}\n\n", section)
		for _, f := range frames {
			writeFrame(ew, f)
		}
	}
	return ew.err
}

func writeFrame(ew *errWriter, f Frame) {
	ew.printf("[%s]\n", f.Name)
	if !f.Continued {
		ew.printf("ID=%Xh\n", f.ID)
		if f.Extended {
			ew.printf("Type=Extended\n")
		} else {
			ew.printf("Type=Standard\n")
		}
	}
	ew.printf("DLC=%d\n", f.DLC)
	if f.CycleTime != "" {
		ew.printf("CycleTime=%s\n", f.CycleTime)
	}
	if f.Mux != nil {
		ew.printf("Mux=%s %d,%d %d\n", f.Mux.Name, f.Mux.Start, f.Mux.Length, f.Mux.Value)
	}
	for _, v := range f.Vars {
		ew.printf("Var=%s %s %d,%d", v.Name, v.signedness(), v.Start, v.Length)
		if v.Factor != "" {
			ew.printf(" /f:%s", v.Factor)
		}
		ew.printf("\n")
	}
	ew.printf("\n")
}
