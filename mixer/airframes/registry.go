// Package airframes operates the global registry of airframe descriptors,
// keyed by tag. Compiled-in airframes register themselves at init time; the
// CUSTOM airframe is built from persisted mixer settings.
package airframes

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/tailless/flightmix/mixer"
)

var registry = map[string]mixer.Descriptor{}

// Register adds a descriptor to the registry under its tag. It is expected
// to be called from init functions and panics on a duplicate tag.
func Register(desc mixer.Descriptor) {
	if desc.Tag == "" {
		panic(errors.New("airframe tag required"))
	}
	if _, old := registry[desc.Tag]; old {
		panic(errors.Errorf("trying to register two airframes with same tag %s", desc.Tag))
	}
	registry[desc.Tag] = desc
}

// Lookup returns the registered descriptor for a tag.
func Lookup(tag string) (mixer.Descriptor, bool) {
	desc, ok := registry[tag]
	return desc, ok
}

// Tags returns the registered airframe tags in sorted order.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Load looks a tag up and validates its descriptor into an airframe handle.
func Load(tag string) (*mixer.Airframe, error) {
	desc, ok := registry[tag]
	if !ok {
		return nil, errors.Errorf("no airframe registered with tag %q", tag)
	}
	return mixer.Load(desc)
}
