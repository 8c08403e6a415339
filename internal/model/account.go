package model

// Account is a configured bank or credit card account. Profile names the
// parsing profile for its statements; empty selects the conventional key.
type Account struct {
	Name    string `yaml:"name"`
	Profile string `yaml:"profile,omitempty"`
}
