package model

// Symbol identifies a monitored security.
type Symbol struct {
	Code string
	Name string
	Held bool
}

// DisplayName falls back to the code when no name is known.
func (s Symbol) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Code
}
