package authz

import "fmt"

// Action is the closed set of operations a permission row can grant. Routing
// metadata names actions by their wire names (guardar, editar, listar,
// eliminar, descargar); everything past the route table works with the enum.
type Action int

const (
	ActionCreate Action = iota
	ActionEdit
	ActionList
	ActionDelete
	ActionDownload
)

const (
	wireCreate   = "guardar"
	wireEdit     = "editar"
	wireList     = "listar"
	wireDelete   = "eliminar"
	wireDownload = "descargar"
)

// ParseAction maps a wire name to its Action. Unknown names are a routing
// metadata defect, reported as ErrUnknownAction.
func ParseAction(name string) (Action, error) {
	switch name {
	case wireCreate:
		return ActionCreate, nil
	case wireEdit:
		return ActionEdit, nil
	case wireList:
		return ActionList, nil
	case wireDelete:
		return ActionDelete, nil
	case wireDownload:
		return ActionDownload, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return wireCreate
	case ActionEdit:
		return wireEdit
	case ActionList:
		return wireList
	case ActionDelete:
		return wireDelete
	case ActionDownload:
		return wireDownload
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) valid() bool {
	return a >= ActionCreate && a <= ActionDownload
}
