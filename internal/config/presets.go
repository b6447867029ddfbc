package config

import "sort"

// Presets are the named growth policies.
var Presets = map[string]*GrowthConfig{
	"double": {Name: "double", Factor: 2.0, MinStep: 1},
	"golden": {Name: "golden", Factor: 1.5, MinStep: 1},
	"gentle": {Name: "gentle", Factor: 1.25, MinStep: 4},
	"eager":  {Name: "eager", Factor: 2.0, MinStep: 16},
	"triple": {Name: "triple", Factor: 3.0, MinStep: 1},
}

func GetPreset(name string) *GrowthConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
