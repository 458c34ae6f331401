package version

const (
	Phase0 = iota
	Altair
)

// String returns the human readable name of a state version.
func String(version int) string {
	switch version {
	case Phase0:
		return "phase0"
	case Altair:
		return "altair"
	default:
		return "unknown version"
	}
}

// All returns a list of all known fork versions.
func All() []int {
	return []int{Phase0, Altair}
}

// FromString returns the state version with the given name.
func FromString(name string) (int, bool) {
	for _, v := range All() {
		if String(v) == name {
			return v, true
		}
	}
	return 0, false
}
