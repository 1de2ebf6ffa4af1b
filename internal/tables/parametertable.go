package tables

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/drewr95/pm/internal/model"
)

// CurvesName marks the dimension enumeration whose enumerators become the
// repeats of a block rather than separate blocks.
const CurvesName = "Curves"

// combinationTreeName names the generated TableGroupElement holding the
// per-combination copies.
const combinationTreeName = "Tree"

// Dimensions returns the dimension enumerations of a parameter table in
// child order.
func Dimensions(pt *model.Node) []*model.Node {
	var dims []*model.Node
	for _, c := range pt.Children() {
		if c.Kind() == model.KindEnumeration {
			dims = append(dims, c)
		}
	}
	return dims
}

// ArraysAndGroups returns the array and group sections of a parameter table
// in child order.
func ArraysAndGroups(pt *model.Node) []*model.Node {
	var sections []*model.Node
	for _, c := range pt.Children() {
		switch c.Kind() {
		case model.KindArray, model.KindGroup:
			sections = append(sections, c)
		}
	}
	return sections
}

// CombinationTree returns the generated element tree of a parameter table,
// or nil before the first UpdateParameterTable.
func CombinationTree(pt *model.Node) *model.Node {
	for _, c := range pt.Children() {
		if c.Kind() == model.KindTableGroupElement {
			return c
		}
	}
	return nil
}

// Combinations returns the cartesian product of the dimension enumerators,
// first dimension outermost. A table without dimensions, or with an empty
// dimension, has no combinations.
func Combinations(pt *model.Node) [][]*model.Node {
	dims := Dimensions(pt)
	if len(dims) == 0 {
		return nil
	}

	combos := [][]*model.Node{nil}
	for _, dim := range dims {
		values := dim.Children()
		next := make([][]*model.Node, 0, len(combos)*len(values))
		for _, prefix := range combos {
			for _, v := range values {
				combo := make([]*model.Node, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, v))
			}
		}
		combos = next
	}
	return combos
}

func uuidsOf(nodes []*model.Node) []uuid.UUID {
	ids := make([]uuid.UUID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.UUID
	}
	return ids
}

// UpdateParameterTable regenerates the combination tree of a parameter table.
// Every combination gets a chain of TableGroupElements, one per dimension,
// whose leaf holds a copy of each section with a copy of each of its
// parameters. Copies are matched to the previous tree by (path, original) so
// regeneration keeps their uuids.
func UpdateParameterTable(pt *model.Node) error {
	if pt.Kind() != model.KindParameterTable {
		return fmt.Errorf("%w: expected %s, got %s", model.ErrWrongKind, model.KindParameterTable, pt.Kind())
	}

	group := CombinationTree(pt)
	if group == nil {
		group = model.New(combinationTreeName, &model.TableGroupElement{})
		if err := pt.AppendChild(group); err != nil {
			return err
		}
	}

	old := snapshotCombinationTree(group)
	reuse := func(key string, create func() *model.Node) *model.Node {
		if n, ok := old[key]; ok {
			delete(old, key)
			return n
		}
		return create()
	}

	sections := ArraysAndGroups(pt)
	layers := make(map[string]*model.Node)
	for _, combo := range Combinations(pt) {
		parent := group
		for i, layer := range combo {
			path := uuidsOf(combo[:i+1])
			key := layerKey(path)
			n, ok := layers[key]
			if !ok {
				n = reuse(key, func() *model.Node {
					return model.New(layer.Name, &model.TableGroupElement{Path: path})
				})
				n.Name = layer.Name
				if err := parent.AppendChild(n); err != nil {
					return err
				}
				layers[key] = n
			}
			parent = n
		}

		leafPath := uuidsOf(combo)
		for _, section := range sections {
			if err := copySection(parent, leafPath, section, reuse); err != nil {
				return err
			}
		}
	}
	return nil
}

func copySection(leaf *model.Node, path []uuid.UUID, section *model.Node, reuse func(string, func() *model.Node) *model.Node) error {
	copied := reuse(sectionKey(path, section.UUID), func() *model.Node {
		if section.Kind() == model.KindArray {
			return model.New(section.Name, &model.TableArrayElement{Original: section.UUID})
		}
		return model.New(section.Name, &model.TableGroupElement{Original: section.UUID})
	})
	copied.Name = section.Name
	if err := leaf.AppendChild(copied); err != nil {
		return err
	}

	for _, element := range section.Children() {
		master, ok := element.Data.(*model.Parameter)
		if !ok {
			continue
		}
		p := reuse(parameterKey(path, element.UUID), func() *model.Node {
			return model.New(element.Name, &model.Parameter{Original: element.UUID})
		})
		p.Name = element.Name
		d := p.Data.(*model.Parameter)
		d.Type = master.Type
		d.AccessLevelUUID = master.AccessLevelUUID
		d.EnumerationUUID = master.EnumerationUUID
		if err := copied.AppendChild(p); err != nil {
			return err
		}
	}
	return nil
}

func layerKey(path []uuid.UUID) string {
	return "layer:" + model.PathKey(path)
}

func sectionKey(path []uuid.UUID, original uuid.UUID) string {
	return "section:" + model.PathKey(path) + ":" + original.String()
}

func parameterKey(path []uuid.UUID, original uuid.UUID) string {
	return "param:" + model.PathKey(path) + ":" + original.String()
}

// snapshotCombinationTree keys every node below group by its derivation and
// then detaches them all.
func snapshotCombinationTree(group *model.Node) map[string]*model.Node {
	keys := make(map[*model.Node]string)
	for _, layer := range group.Children() {
		keyLayers(layer, keys)
	}

	old := make(map[string]*model.Node)
	for _, n := range group.RecursivelyRemoveChildren() {
		if key, ok := keys[n]; ok {
			old[key] = n
		}
	}
	return old
}

func keyLayers(n *model.Node, keys map[*model.Node]string) {
	d, ok := n.Data.(*model.TableGroupElement)
	if !ok || d.Original != uuid.Nil {
		return
	}
	keys[n] = layerKey(d.Path)
	for _, c := range n.Children() {
		var original uuid.UUID
		switch cd := c.Data.(type) {
		case *model.TableGroupElement:
			if cd.Original == uuid.Nil {
				keyLayers(c, keys)
				continue
			}
			original = cd.Original
		case *model.TableArrayElement:
			original = cd.Original
		default:
			continue
		}
		keys[c] = sectionKey(d.Path, original)
		for _, p := range c.Children() {
			if pd, ok := p.Data.(*model.Parameter); ok {
				keys[p] = parameterKey(d.Path, pd.Original)
			}
		}
	}
}

// leafElement finds the generated element for a full combination path.
func leafElement(pt *model.Node, path []uuid.UUID) (*model.Node, error) {
	group := CombinationTree(pt)
	if group == nil {
		return nil, fmt.Errorf("parameter table %q has no combination tree: %w", pt.Name, model.ErrNotFound)
	}
	want := model.PathKey(path)
	var found *model.Node
	group.Walk(func(n *model.Node) {
		if found != nil {
			return
		}
		if d, ok := n.Data.(*model.TableGroupElement); ok && d.Original == uuid.Nil && len(d.Path) > 0 && model.PathKey(d.Path) == want {
			found = n
		}
	})
	if found == nil {
		return nil, fmt.Errorf("combination %s of parameter table %q: %w", want, pt.Name, model.ErrNotFound)
	}
	return found, nil
}
