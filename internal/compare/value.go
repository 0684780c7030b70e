package compare

import (
	"fmt"
	"math"
	"reflect"

	"github.com/objgraph-labs/objgraph/internal/classify"
)

// compareLeaf compares two atomic values of the same type. A strongly-typed
// Equal method on the type wins over generic comparison; time.Time reaches
// this path that way.
func (c *Comparison) compareLeaf(left, right reflect.Value, desc *classify.Descriptor, path string) {
	if equal, ok := desc.CallEqual(left, right); ok {
		if !equal {
			c.diff(path, fmt.Sprintf("values differ: %s != %s", formatValue(left), formatValue(right)))
		}
		return
	}

	switch left.Kind() {
	case reflect.Bool:
		if left.Bool() != right.Bool() {
			c.diff(path, fmt.Sprintf("values differ: %t != %t", left.Bool(), right.Bool()))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if left.Int() != right.Int() {
			c.diff(path, fmt.Sprintf("values differ: %d != %d", left.Int(), right.Int()))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if left.Uint() != right.Uint() {
			c.diff(path, fmt.Sprintf("values differ: %d != %d", left.Uint(), right.Uint()))
		}
	case reflect.Float32, reflect.Float64:
		if !c.floatsEqual(left.Float(), right.Float()) {
			c.diff(path, fmt.Sprintf("values differ: %g != %g", left.Float(), right.Float()))
		}
	case reflect.Complex64, reflect.Complex128:
		lc, rc := left.Complex(), right.Complex()
		if !c.floatsEqual(real(lc), real(rc)) || !c.floatsEqual(imag(lc), imag(rc)) {
			c.diff(path, fmt.Sprintf("values differ: %v != %v", lc, rc))
		}
	case reflect.String:
		if left.String() != right.String() {
			c.diff(path, fmt.Sprintf("values differ: %q != %q", left.String(), right.String()))
		}
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		// Identity comparison only; identical references were already resolved
		// upstream, so reaching here with distinct pointers is a difference.
		if left.Pointer() != right.Pointer() {
			c.diff(path, fmt.Sprintf("references differ: distinct %s values", left.Kind()))
		}
	default:
		if !shallowEqual(left, right) {
			c.diff(path, fmt.Sprintf("values differ: %s != %s", formatValue(left), formatValue(right)))
		}
	}
}

// floatsEqual applies the configured numeric equality policy. NaN is equal to
// NaN, infinities are equal only with matching sign, and finite values go
// through either decimal rounding or tolerance comparison.
func (c *Comparison) floatsEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	if c.opts.DecimalPrecision >= 0 {
		return roundTo(a, c.opts.DecimalPrecision) == roundTo(b, c.opts.DecimalPrecision)
	}
	tol := c.opts.FloatTolerance
	if c.opts.UseRelativeFloatTolerance {
		tol *= math.Max(math.Abs(a), math.Abs(b))
	}
	return math.Abs(a-b) <= tol
}

func roundTo(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}

// unwrapInterface resolves an interface value to its dynamic value. A nil
// interface becomes the invalid value, which the nil checks treat as nil.
func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// isNilValue reports whether v is absent: either invalid (a nil interface{})
// or a nil value of a nillable kind.
func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

// isEmptyValue reports whether v is the loose-mode equivalent of nil: an empty
// string or a zero-length collection.
func isEmptyValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	default:
		return false
	}
}

func nilMismatchMessage(leftNil bool, nonNil reflect.Value) string {
	if leftNil {
		return fmt.Sprintf("left is nil, right is %s", formatValue(nonNil))
	}
	return fmt.Sprintf("left is %s, right is nil", formatValue(nonNil))
}

// sameReference reports whether left and right are the same referenced object.
// Only pointer-like kinds carry identity.
func sameReference(left, right reflect.Value) bool {
	if !left.IsValid() || !right.IsValid() || left.Kind() != right.Kind() {
		return false
	}
	switch left.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return left.Pointer() == right.Pointer()
	default:
		return false
	}
}

// shallowEqual is the generic equality used when deep traversal is disabled
// for a member and as the last-resort leaf fallback. Unexported values cannot
// be boxed; they degrade to a string rendering comparison.
func shallowEqual(left, right reflect.Value) bool {
	if !left.IsValid() || !right.IsValid() {
		return left.IsValid() == right.IsValid()
	}
	if left.Type() != right.Type() {
		return false
	}
	if left.CanInterface() && right.CanInterface() {
		return reflect.DeepEqual(left.Interface(), right.Interface())
	}
	return formatValue(left) == formatValue(right)
}

// formatValue renders a value for difference messages, tolerating values read
// from unexported fields that cannot be boxed through Interface.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}
	if v.CanInterface() {
		return fmt.Sprintf("%v", v.Interface())
	}
	switch v.Kind() {
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.String:
		return fmt.Sprintf("%q", v.String())
	default:
		return fmt.Sprintf("<%s>", v.Type())
	}
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

func keyPath(base string, key reflect.Value) string {
	return fmt.Sprintf("%s[%s]", base, formatValue(key))
}
