// pkg/normalize/lift.go
package normalize

// Lift adapts a typed normalizer to the generic Func signature used by
// record schemas.
func Lift[T any](f func(raw interface{}) (T, error)) Func {
	return func(raw interface{}) (interface{}, error) {
		v, err := f(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
