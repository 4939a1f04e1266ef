package manifest

import "sort"

// DefaultFile is the descriptor file name looked up in a source directory.
const DefaultFile = "package.json"

// Descriptor is the subset of package.json the link engine reads.
type Descriptor struct {
	Name             string            `json:"name"`
	Version          string            `json:"version,omitempty"`
	Private          bool              `json:"private,omitempty"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
	DevDependencies  map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
}

// DependencyNames returns the sorted union of dependencies and devDependencies.
func (d *Descriptor) DependencyNames() []string {
	seen := make(map[string]bool, len(d.Dependencies)+len(d.DevDependencies))
	var names []string
	for _, deps := range []map[string]string{d.Dependencies, d.DevDependencies} {
		for name := range deps {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
