package registers

import (
	"github.com/google/uuid"

	"github.com/drewr95/pm/internal/model"
)

// Register is one placed point of the static-modbus map. Offsets count
// 16-bit registers from the start of the map.
type Register struct {
	Offset        int
	Size          int
	Type          string
	Name          string
	Units         string
	ParameterUUID uuid.UUID
	Node          *model.Node
	// Block names the repeating block the point was placed from, with Repeat
	// counting its instances from zero. Both are empty outside tables.
	Block  string
	Repeat int
}

// Layout places every point below root in child order and checks each size
// against the catalog. Tables contribute their master points and then each
// repeating block max(repeats, 1) times. When params is not nil every point's
// parameter reference must resolve in it and names the register.
func Layout(root *model.Node, catalog *Catalog, params model.Index) ([]Register, error) {
	l := &layout{catalog: catalog, params: params}
	for _, child := range root.Children() {
		if err := l.place(child, "", 0); err != nil {
			return nil, err
		}
	}
	return l.registers, nil
}

type layout struct {
	catalog   *Catalog
	params    model.Index
	offset    int
	registers []Register
}

func (l *layout) place(n *model.Node, block string, repeat int) error {
	switch d := n.Data.(type) {
	case *model.FunctionData:
		return l.point(n, d.ParameterUUID, d.TypeUUID, d.Size, d.Units, block, repeat)
	case *model.FunctionDataBitfield:
		return l.point(n, d.ParameterUUID, d.TypeUUID, d.Size, "", block, repeat)
	case *model.Table:
		for _, child := range n.Children() {
			if child.Kind() != model.KindTableRepeatingBlock {
				if err := l.place(child, block, repeat); err != nil {
					return err
				}
			}
		}
		for _, child := range n.Children() {
			if child.Kind() == model.KindTableRepeatingBlock {
				if err := l.place(child, block, repeat); err != nil {
					return err
				}
			}
		}
	case *model.TableRepeatingBlock:
		count := max(d.Repeats, 1)
		for i := 0; i < count; i++ {
			for _, child := range n.Children() {
				if err := l.place(child, n.Name, i); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (l *layout) point(n *model.Node, parameter, typeUUID uuid.UUID, size int, units, block string, repeat int) error {
	name := n.Name
	if l.params != nil {
		p, err := model.ResolveKind(l.params, "parameter_uuid", parameter, model.KindParameter)
		if err != nil {
			return err
		}
		if p != nil {
			name = p.Name
		}
	}
	if name == "" {
		name = n.UUID.String()
	}

	def, err := l.catalog.CheckSize(name, typeUUID, size)
	if err != nil {
		return err
	}

	l.registers = append(l.registers, Register{
		Offset:        l.offset,
		Size:          size,
		Type:          def.Name,
		Name:          name,
		Units:         units,
		ParameterUUID: parameter,
		Node:          n,
		Block:         block,
		Repeat:        repeat,
	})
	l.offset += size
	return nil
}
