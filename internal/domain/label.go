package domain

// Label is the tri-state relevance of an article. The zero value is unknown.
type Label int8

const (
	LabelUnknown Label = iota
	LabelInteresting
	LabelNotInteresting
)

// LabelFromBool maps a model decision onto a label.
func LabelFromBool(v bool) Label {
	if v {
		return LabelInteresting
	}
	return LabelNotInteresting
}

// Bool returns nil for unknown, which maps onto a nullable column.
func (l Label) Bool() *bool {
	switch l {
	case LabelInteresting:
		v := true
		return &v
	case LabelNotInteresting:
		v := false
		return &v
	default:
		return nil
	}
}

// LabelFromNullable is the inverse of Bool.
func LabelFromNullable(v *bool) Label {
	if v == nil {
		return LabelUnknown
	}
	return LabelFromBool(*v)
}

func (l Label) String() string {
	switch l {
	case LabelInteresting:
		return "true"
	case LabelNotInteresting:
		return "false"
	default:
		return "unknown"
	}
}
