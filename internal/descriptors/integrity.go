package descriptors

import (
	"fmt"

	"github.com/JamesPrial/holon-descriptors/internal/store"
	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

// Integrity returns the store-side validator for descriptor records. It
// decodes and validates every created or updated entry against its kind and
// refuses to update or delete type headers. Deletes of descriptors are
// always allowed.
func Integrity(opts ...descriptor.Option) store.Validator {
	return func(op store.Op, kind descriptor.EntityKind, entry []byte) error {
		if kind == descriptor.KindTypeHeader && op != store.OpCreate {
			return fmt.Errorf("type headers can be neither updated nor deleted")
		}
		if op == store.OpDelete {
			return nil
		}

		v, err := descriptor.DecodeKind(kind, entry)
		if err != nil {
			return err
		}
		switch v := v.(type) {
		case descriptor.HolonDescriptor:
			return descriptor.ValidateHolonDescriptor(v, opts...)
		case descriptor.PropertyDescriptor:
			return descriptor.ValidatePropertyDescriptor(v, opts...)
		case descriptor.TypeHeader:
			_, err := descriptor.ValidateTypeHeader(v, opts...)
			return err
		default:
			return fmt.Errorf("unsupported entry type %T", v)
		}
	}
}
