package tables

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/drewr95/pm/internal/logger"
	"github.com/drewr95/pm/internal/model"
)

var (
	// ErrConsistency reports a parameter table argument that does not match
	// the table's own reference.
	ErrConsistency = errors.New("table consistency error")
	// ErrMultipleCurves reports a combination spanning more than one curve
	// dimension.
	ErrMultipleCurves = errors.New("more than one curve dimension in a combination")
)

// Update rebuilds the children of a static-modbus Table from the parameter
// table it references. params resolves parameter_table_uuid. When explicit
// is not nil it is used instead of the resolved table and must be the
// referenced one.
//
// Existing children are matched by block path, by parameter uuid for points
// and by node uuid otherwise, so an unchanged source produces the same nodes
// again. Unmatched old nodes are discarded.
func Update(table *model.Node, params model.Index, explicit *model.Node) error {
	d, ok := table.Data.(*model.Table)
	if !ok {
		return fmt.Errorf("%w: expected %s, got %s", model.ErrWrongKind, model.KindTable, table.Kind())
	}

	old := make(map[string]*model.Node)
	for _, n := range table.RecursivelyRemoveChildren() {
		old[mergeKey(n)] = n
	}

	if d.ParameterTableUUID == uuid.Nil {
		return nil
	}

	pt := explicit
	if pt == nil {
		var err error
		pt, err = model.ResolveKind(params, "parameter_table_uuid", d.ParameterTableUUID, model.KindParameterTable)
		if err != nil {
			return err
		}
	} else if pt.UUID != d.ParameterTableUUID {
		return fmt.Errorf("%w: table %q references %s, got %s", ErrConsistency, table.Name, d.ParameterTableUUID, pt.UUID)
	}

	m := &materializer{table: table, old: old, masters: make(map[uuid.UUID]*model.Node)}
	if err := m.addMasters(pt); err != nil {
		return err
	}

	blocks := 0
	for _, combo := range Combinations(pt) {
		if notFirstCurve(combo) {
			continue
		}
		if err := m.addBlock(pt, combo); err != nil {
			return err
		}
		blocks++
	}

	logger.Printf("materialized table %q: %d master points, %d blocks", table.Name, len(m.masters), blocks)
	return nil
}

func mergeKey(n *model.Node) string {
	switch d := n.Data.(type) {
	case *model.TableRepeatingBlock:
		return "path:" + model.PathKey(d.Path)
	case *model.FunctionData:
		if d.ParameterUUID != uuid.Nil {
			return "param:" + d.ParameterUUID.String()
		}
	}
	return "uuid:" + n.UUID.String()
}

type materializer struct {
	table   *model.Node
	old     map[string]*model.Node
	masters map[uuid.UUID]*model.Node
}

func (m *materializer) point(parameter uuid.UUID) *model.Node {
	if n, ok := m.old["param:"+parameter.String()]; ok {
		delete(m.old, "param:"+parameter.String())
		return n
	}
	return model.NewFunctionData(parameter)
}

// addMasters creates one point for the first element of every array section
// and for every element of every group section.
func (m *materializer) addMasters(pt *model.Node) error {
	for _, section := range ArraysAndGroups(pt) {
		elements := section.Children()
		if section.Kind() == model.KindArray && len(elements) > 0 {
			elements = elements[:1]
		}
		for _, element := range elements {
			n := m.point(element.UUID)
			if err := m.table.AppendChild(n); err != nil {
				return err
			}
			m.masters[element.UUID] = n
		}
	}
	return nil
}

// notFirstCurve reports whether the combination selects any curve other than
// the first one.
func notFirstCurve(combo []*model.Node) bool {
	for _, layer := range combo {
		parent := layer.Parent()
		if parent != nil && parent.Name == CurvesName && parent.Child(0).Name != layer.Name {
			return true
		}
	}
	return false
}

func curveCount(combo []*model.Node) (int, error) {
	var curves []*model.Node
	for _, layer := range combo {
		if parent := layer.Parent(); parent != nil && parent.Name == CurvesName {
			curves = append(curves, parent)
		}
	}
	switch len(curves) {
	case 0:
		return 0, nil
	case 1:
		return curves[0].Len(), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrMultipleCurves, len(curves))
}

func (m *materializer) addBlock(pt *model.Node, combo []*model.Node) error {
	repeats, err := curveCount(combo)
	if err != nil {
		return err
	}

	path := uuidsOf(combo)
	key := "path:" + model.PathKey(path)
	block, ok := m.old[key]
	if ok {
		delete(m.old, key)
	} else {
		var names []string
		for _, layer := range combo {
			if parent := layer.Parent(); parent == nil || parent.Name != CurvesName {
				names = append(names, layer.Name)
			}
		}
		block = model.NewRepeatingBlock(strings.Join(names, " - "), path)
	}
	block.Data.(*model.TableRepeatingBlock).Repeats = repeats
	if err := m.table.AppendChild(block); err != nil {
		return err
	}

	leaf, err := leafElement(pt, path)
	if err != nil {
		return err
	}

	// groups before the first array, then the arrays, then the rest
	var before, after []*model.Node
	var arrays [][]*model.Node
	current := &before
	for _, section := range leaf.Children() {
		if _, isArray := section.Data.(*model.TableArrayElement); isArray {
			current = &after
			arrays = append(arrays, section.Children())
			continue
		}
		*current = append(*current, section.Children()...)
	}

	for _, element := range before {
		if err := m.addPoint(block, element, originalOf(element)); err != nil {
			return err
		}
	}
	for _, element := range transpose(arrays) {
		first := element.Parent().Child(0)
		if err := m.addPoint(block, element, originalOf(first)); err != nil {
			return err
		}
	}
	for _, element := range after {
		if err := m.addPoint(block, element, originalOf(element)); err != nil {
			return err
		}
	}
	return nil
}

func originalOf(n *model.Node) uuid.UUID {
	if d, ok := n.Data.(*model.Parameter); ok {
		return d.Original
	}
	return uuid.Nil
}

// transpose interleaves parallel arrays index-major, stopping at the
// shortest.
func transpose(arrays [][]*model.Node) []*model.Node {
	if len(arrays) == 0 {
		return nil
	}
	shortest := len(arrays[0])
	for _, a := range arrays[1:] {
		shortest = min(shortest, len(a))
	}
	var out []*model.Node
	for i := 0; i < shortest; i++ {
		for _, a := range arrays {
			out = append(out, a[i])
		}
	}
	return out
}

func (m *materializer) addPoint(block, element *model.Node, master uuid.UUID) error {
	ref, ok := m.masters[master]
	if !ok {
		return fmt.Errorf("%w: no master point for %q (original %s)", ErrConsistency, element.Name, master)
	}
	rd := ref.Data.(*model.FunctionData)

	n := m.point(element.UUID)
	d := n.Data.(*model.FunctionData)
	d.Units = rd.Units
	d.TypeUUID = rd.TypeUUID
	d.Size = rd.Size
	d.EnumerationUUID = rd.EnumerationUUID
	return block.AppendChild(n)
}
