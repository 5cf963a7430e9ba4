package row

// DetailState tracks the detail fetch for the bound item
type DetailState int

const (
	DetailNone DetailState = iota
	DetailLoading
	DetailLoaded
	DetailFailed
)

func (s DetailState) String() string {
	switch s {
	case DetailNone:
		return "none"
	case DetailLoading:
		return "loading"
	case DetailLoaded:
		return "loaded"
	case DetailFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IconState tracks the icon request for the bound item
type IconState int

const (
	IconNone IconState = iota
	IconLoading
	IconLoaded
	IconAbsent
)

func (s IconState) String() string {
	switch s {
	case IconNone:
		return "none"
	case IconLoading:
		return "loading"
	case IconLoaded:
		return "loaded"
	case IconAbsent:
		return "absent"
	default:
		return "unknown"
	}
}
