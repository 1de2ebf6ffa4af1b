// Package symgen builds PCAN symbol documents from a symbols model.
package symgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/drewr95/pm/internal/ident"
	"github.com/drewr95/pm/internal/model"
	"github.com/drewr95/pm/internal/symfile"
)

// DefaultMuxBits is the selector width used when a multiplexed message has
// no selector signal.
const DefaultMuxBits = 8

var ErrMissingMultiplexerID = errors.New("multiplexer has no identifier")

type Options struct {
	Title string
	// Parameters, when set, must resolve every signal's parameter reference.
	Parameters model.Index
}

// Build converts a symbols root into a document. Messages are emitted in
// child order into the {SENDRECEIVE} section.
//
// A multiplexed message that holds signals but no multiplexer is left out
// of the document entirely.
func Build(root *model.Node, opts Options) (*symfile.Document, error) {
	doc := symfile.New(opts.Title)
	g := &generator{opts: opts}

	var frames []symfile.Frame
	for _, child := range root.Children() {
		var (
			built []symfile.Frame
			err   error
		)
		switch d := child.Data.(type) {
		case *model.Message:
			built, err = g.message(child, d)
		case *model.MultiplexedMessage:
			built, err = g.multiplexedMessage(child, d)
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, built...)
	}
	doc.Sections[symfile.SendReceive] = frames
	return doc, nil
}

// Generate builds and writes the document for root.
func Generate(root *model.Node, opts Options) (string, error) {
	doc, err := Build(root, opts)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := symfile.Write(doc, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

type generator struct {
	opts Options
}

var one = apd.New(1, 0)

func decimalText(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	return d.Text('f')
}

func (g *generator) message(n *model.Node, d *model.Message) ([]symfile.Frame, error) {
	name, err := ident.Upper(n.Name)
	if err != nil {
		return nil, err
	}
	vars, err := g.vars(n.Children(), 0)
	if err != nil {
		return nil, err
	}
	return []symfile.Frame{{
		Name:      name,
		ID:        d.Identifier,
		Extended:  d.Extended,
		DLC:       d.Length,
		CycleTime: decimalText(d.CycleTime),
		Vars:      vars,
	}}, nil
}

// multiplexedMessage emits one frame per multiplexer. The first bare signal
// is the selector, further bare signals are common to all values and follow
// it in the first frame. Signals of each multiplexer start at bit 0.
func (g *generator) multiplexedMessage(n *model.Node, d *model.MultiplexedMessage) ([]symfile.Frame, error) {
	name, err := ident.Upper(n.Name)
	if err != nil {
		return nil, err
	}

	var signals, multiplexers []*model.Node
	for _, child := range n.Children() {
		switch child.Kind() {
		case model.KindSignal:
			signals = append(signals, child)
		case model.KindMultiplexer:
			multiplexers = append(multiplexers, child)
		}
	}

	base := symfile.Frame{Name: name, ID: d.Identifier, Extended: d.Extended}
	if len(multiplexers) == 0 {
		if len(signals) > 0 {
			return nil, nil
		}
		return []symfile.Frame{base}, nil
	}

	muxBits := DefaultMuxBits
	var common []symfile.Var
	if len(signals) > 0 {
		if _, err := g.parameter(signals[0]); err != nil {
			return nil, err
		}
		muxBits = signals[0].Data.(*model.Signal).Bits
		if common, err = g.vars(signals[1:], muxBits); err != nil {
			return nil, err
		}
	}

	var frames []symfile.Frame
	for i, m := range multiplexers {
		md := m.Data.(*model.Multiplexer)
		if md.Identifier == nil {
			return nil, fmt.Errorf("%w: %q in %q", ErrMissingMultiplexerID, m.Name, n.Name)
		}
		muxName, err := ident.Upper(m.Name)
		if err != nil {
			return nil, err
		}
		vars, err := g.vars(m.Children(), 0)
		if err != nil {
			return nil, err
		}

		f := base
		f.Continued = i > 0
		f.DLC = md.Length
		f.CycleTime = decimalText(md.CycleTime)
		f.Mux = &symfile.Mux{Name: muxName, Start: 0, Length: muxBits, Value: *md.Identifier}
		if i == 0 {
			f.Vars = append(common, vars...)
		} else {
			f.Vars = vars
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// vars lays signals out back to back from bit start.
func (g *generator) vars(signals []*model.Node, start int) ([]symfile.Var, error) {
	var vars []symfile.Var
	for _, n := range signals {
		d, ok := n.Data.(*model.Signal)
		if !ok {
			continue
		}
		if _, err := g.parameter(n); err != nil {
			return nil, err
		}
		name, err := ident.Upper(n.Name)
		if err != nil {
			return nil, err
		}
		v := symfile.Var{Name: name, Signed: d.Signed, Start: start, Length: d.Bits}
		if d.Factor != nil && d.Factor.Cmp(one) != 0 {
			v.Factor = decimalText(d.Factor)
		}
		vars = append(vars, v)
		start += d.Bits
	}
	return vars, nil
}

func (g *generator) parameter(n *model.Node) (*model.Node, error) {
	if g.opts.Parameters == nil {
		return nil, nil
	}
	d := n.Data.(*model.Signal)
	p, err := model.ResolveKind(g.opts.Parameters, "parameter_uuid", d.ParameterUUID, model.KindParameter)
	if err != nil {
		return nil, fmt.Errorf("signal %q: %w", n.Name, err)
	}
	return p, nil
}
