package execution

import (
	"fmt"

	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// Predicate compares one field of a tuple against a constant operand.
type Predicate struct {
	fieldIndex int
	op         primitives.Predicate
	operand    types.Field
}

func NewPredicate(fieldIndex int, op primitives.Predicate, operand types.Field) *Predicate {
	return &Predicate{
		fieldIndex: fieldIndex,
		op:         op,
		operand:    operand,
	}
}

// Filter reports whether t satisfies the predicate.
func (p *Predicate) Filter(t *tuple.Tuple) (bool, error) {
	field, err := t.GetField(p.fieldIndex)
	if err != nil {
		return false, err
	}
	if field == nil {
		return false, fmt.Errorf("field %d is not set", p.fieldIndex)
	}
	return field.Compare(p.op, p.operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("f[%d] %s %s", p.fieldIndex, p.op, p.operand)
}
