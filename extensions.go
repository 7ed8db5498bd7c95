package learnvk

import (
	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"
)

// ExtensionProperties describes an extension. SpecVersion is the extension's
// own revision number.
type ExtensionProperties struct {
	Name        string
	SpecVersion uint32
}

type LayerProperties struct {
	Name                  string
	Description           string
	SpecVersion           semver.Version
	ImplementationVersion uint32
}

func extensionNames(list []ExtensionProperties) []string {
	names := make([]string, len(list))
	for i, ext := range list {
		names[i] = ext.Name
	}
	return names
}

func layerNames(list []LayerProperties) []string {
	names := make([]string, len(list))
	for i, l := range list {
		names[i] = l.Name
	}
	return names
}

// ExtensionSet negotiates a list of names against what is actually available.
// Required names must all be present; wanted names are enabled when present.
type ExtensionSet struct {
	Required []string
	Wanted   []string
	actual   []string
}

func NewExtensionSet(required, wanted []string) ExtensionSet {
	return ExtensionSet{Required: required, Wanted: wanted}
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

func missingFrom(names, actual []string) []string {
	var missing []string
	for _, n := range names {
		if !contains(actual, n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// HasRequired reports whether every required name is available and lists the
// ones that are not.
func (e ExtensionSet) HasRequired() (bool, []string) {
	missing := missingFrom(e.Required, e.actual)
	return len(missing) == 0, missing
}

func (e ExtensionSet) HasWanted() (bool, []string) {
	missing := missingFrom(e.Wanted, e.actual)
	return len(missing) == 0, missing
}

// Enabled is the list to hand to the driver: all required names followed by
// the available wanted names, without duplicates.
func (e ExtensionSet) Enabled() []string {
	enabled := append([]string(nil), e.Required...)
	for _, w := range e.Wanted {
		if contains(enabled, w) || !contains(e.actual, w) {
			continue
		}
		enabled = append(enabled, w)
	}
	return enabled
}

// resolve checks the set against actual. A missing required name fails with
// kind; missing wanted names are logged and dropped.
func (e ExtensionSet) resolve(op string, kind Kind, actual []string) ([]string, error) {
	e.actual = actual
	if ok, missing := e.HasRequired(); !ok {
		Logger().Error("required name not available", zap.String("op", op), zap.Strings("missing", missing))
		err := newErr(op, kind)
		err.Name = missing[0]
		return nil, err
	}
	if ok, missing := e.HasWanted(); !ok {
		Logger().Warn("wanted name not available", zap.String("op", op), zap.Strings("missing", missing))
	}
	return e.Enabled(), nil
}
