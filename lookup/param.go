package lookup

// KeyParam is one equality constraint on a primary-key field.
type KeyParam struct {
	Name  string
	Value any
}

// Key is shorthand for KeyParam{Name: name, Value: value}.
func Key(name string, value any) KeyParam {
	return KeyParam{Name: name, Value: value}
}

// KeyParamGroup is a set of constraints that must all match; it selects one
// value of a composite key.
type KeyParamGroup []KeyParam

// Group collects params into a KeyParamGroup.
func Group(params ...KeyParam) KeyParamGroup {
	return KeyParamGroup(params)
}

// Request is a list of groups, any of which may match.
type Request []KeyParamGroup

// Groups splits single-field params into one group each.
func Groups(params ...KeyParam) Request {
	r := make(Request, 0, len(params))
	for _, p := range params {
		r = append(r, KeyParamGroup{p})
	}
	return r
}
