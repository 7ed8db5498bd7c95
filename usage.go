package learnvk

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/pkg/errors"
)

// Usage keys understood by the converters below.
const (
	UsageQueue = "queue"

	KeyApplicationName    = "application_name"
	KeyApplicationVersion = "application_version"
	KeyEngineName         = "engine_name"
	KeyEngineVersion      = "engine_version"
	KeyAPIVersion         = "api_version"
	KeyLayers             = "layers"
	KeyWantedLayers       = "wanted_layers"
	KeyInstanceExtensions = "instance_extensions"
	KeyWantedInstanceExts = "wanted_instance_extensions"
	KeyDeviceExtensions   = "device_extensions"
	KeyWantedDeviceExts   = "wanted_device_extensions"
	KeyRequiredFeatures   = "required_features"
	KeySampledImages      = "required_per_stage_sampled_images"
	KeyOverridePolicy     = "override_policy"

	KeyFeatures          = "features"
	KeyPriority          = "priority"
	KeyFamilyOverride    = "family_override"
	KeyQueueCountWeight  = "queue_count_weight"
	KeyTimestampWeight   = "timestamp_weight"
	KeyGranularityWeight = "granularity_weight"
)

// Usage is a named property bag describing how the library is meant to be
// used. Usages chain through Linked; every usage named "queue" in the chain
// describes one queue request.
type Usage struct {
	Name    string             `json:"name"`
	Strings map[string]string  `json:"strings,omitempty"`
	Ints    map[string]int     `json:"ints,omitempty"`
	Bools   map[string]bool    `json:"bools,omitempty"`
	Floats  map[string]float32 `json:"floats,omitempty"`
	Linked  *Usage             `json:"linked,omitempty"`
}

func NewUsage(name string, defaultSize uint) *Usage {
	return &Usage{
		Name:    name,
		Strings: make(map[string]string, defaultSize),
		Ints:    make(map[string]int, defaultSize),
		Bools:   make(map[string]bool, defaultSize),
		Floats:  make(map[string]float32, defaultSize),
	}
}

// LoadUsage reads a usage chain from a JSON file.
func LoadUsage(path string) (*Usage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read usage")
	}
	var u Usage
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, errors.Wrapf(err, "parse usage %s", path)
	}
	return &u, nil
}

func (u *Usage) HasNext() bool {
	return u.Linked != nil
}

func (u *Usage) LinkedUsage() (*Usage, error) {
	if !u.HasNext() {
		return nil, errors.Errorf("usage %s has no linked usage", u.Name)
	}
	return u.Linked, nil
}

// Link appends next to the end of the chain.
func (u *Usage) Link(next *Usage) {
	last := u
	for last.Linked != nil {
		last = last.Linked
	}
	last.Linked = next
}

func (u *Usage) StringProp(key, def string) string {
	if v, ok := u.Strings[key]; ok {
		return v
	}
	return def
}

func (u *Usage) IntProp(key string, def int) int {
	if v, ok := u.Ints[key]; ok {
		return v
	}
	return def
}

func (u *Usage) BoolProp(key string, def bool) bool {
	if v, ok := u.Bools[key]; ok {
		return v
	}
	return def
}

func (u *Usage) FloatProp(key string, def float32) float32 {
	if v, ok := u.Floats[key]; ok {
		return v
	}
	return def
}

// List splits a comma separated string property.
func (u *Usage) List(key string) []string {
	var list []string
	for _, s := range strings.Split(u.StringProp(key, ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

func (u *Usage) version(key string, def semver.Version) (semver.Version, error) {
	s, ok := u.Strings[key]
	if !ok {
		return def, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return def, errors.Wrapf(err, "usage %s: %s", u.Name, key)
	}
	return *v, nil
}

func (u *Usage) ApplicationInfo() (ApplicationInfo, error) {
	info := ApplicationInfo{
		ApplicationName: u.StringProp(KeyApplicationName, u.Name),
		EngineName:      u.StringProp(KeyEngineName, "learnvk"),
	}
	var err error
	if info.ApplicationVersion, err = u.version(KeyApplicationVersion, semver.Version{Major: 0, Minor: 1}); err != nil {
		return ApplicationInfo{}, err
	}
	if info.EngineVersion, err = u.version(KeyEngineVersion, semver.Version{Major: 0, Minor: 1}); err != nil {
		return ApplicationInfo{}, err
	}
	if info.APIVersion, err = u.version(KeyAPIVersion, APIVersion12); err != nil {
		return ApplicationInfo{}, err
	}
	return info, nil
}

func (u *Usage) features(key string) (FeatureSet, error) {
	var set FeatureSet
	for _, name := range u.List(key) {
		f, ok := ParseFeature(name)
		if !ok {
			return 0, errors.Errorf("usage %s: unknown feature %q", u.Name, name)
		}
		set = set.With(f)
	}
	return set, nil
}

func (u *Usage) DeviceDescription() (DeviceDescription, error) {
	desc := NewDeviceDescription()
	var err error
	if desc.APIVersion, err = u.version(KeyAPIVersion, desc.APIVersion); err != nil {
		return DeviceDescription{}, err
	}
	if desc.RequiredFeatures, err = u.features(KeyRequiredFeatures); err != nil {
		return DeviceDescription{}, err
	}
	images, err := u.weight(KeySampledImages, uint64(desc.RequiredPerStageSampledImages))
	if err != nil {
		return DeviceDescription{}, err
	}
	desc.RequiredPerStageSampledImages = uint32(images)
	for t := DeviceType(0); t < deviceTypeCount; t++ {
		key := "importance_" + strings.ReplaceAll(strings.ToLower(t.String()), " ", "_")
		if desc.DeviceTypeImportance[t], err = u.weight(key, desc.DeviceTypeImportance[t]); err != nil {
			return DeviceDescription{}, err
		}
	}
	return desc, nil
}

func (u *Usage) InstanceLayers() ExtensionSet {
	return NewExtensionSet(u.List(KeyLayers), u.List(KeyWantedLayers))
}

func (u *Usage) InstanceExtensions() ExtensionSet {
	return NewExtensionSet(u.List(KeyInstanceExtensions), u.List(KeyWantedInstanceExts))
}

func (u *Usage) DeviceExtensions() ExtensionSet {
	return NewExtensionSet(u.List(KeyDeviceExtensions), u.List(KeyWantedDeviceExts))
}

func (u *Usage) OverridePolicy() OverridePolicy {
	if u.StringProp(KeyOverridePolicy, "") == "skip" {
		return OverrideSkip
	}
	return DefaultOverridePolicy
}

// QueueRequest converts a "queue" usage. Features are separated by "|" or ",".
func (u *Usage) QueueRequest() (QueueRequest, error) {
	var required QueueFeatureFlags
	for _, name := range strings.FieldsFunc(u.StringProp(KeyFeatures, ""), func(r rune) bool { return r == '|' || r == ',' }) {
		f, ok := ParseQueueFeature(name)
		if !ok {
			return QueueRequest{}, errors.Errorf("usage %s: unknown queue feature %q", u.Name, name)
		}
		required |= f
	}
	req := NewQueueRequest(required)
	switch p := u.StringProp(KeyPriority, "normal"); p {
	case "normal":
	case "high":
		req.Priority = PriorityHigh
	default:
		return QueueRequest{}, errors.Errorf("usage %s: unknown priority %q", u.Name, p)
	}
	req.FamilyOverride = u.IntProp(KeyFamilyOverride, NoFamily)
	if req.FamilyOverride < NoFamily {
		return QueueRequest{}, errors.Errorf("usage %s: family override %d out of range", u.Name, req.FamilyOverride)
	}
	var err error
	if req.QueueCountWeight, err = u.weight(KeyQueueCountWeight, req.QueueCountWeight); err != nil {
		return QueueRequest{}, err
	}
	if req.TimestampWeight, err = u.weight(KeyTimestampWeight, req.TimestampWeight); err != nil {
		return QueueRequest{}, err
	}
	if req.GranularityWeight, err = u.weight(KeyGranularityWeight, req.GranularityWeight); err != nil {
		return QueueRequest{}, err
	}
	return req, nil
}

// weight reads a non-negative integer property.
func (u *Usage) weight(key string, def uint64) (uint64, error) {
	v, ok := u.Ints[key]
	if !ok {
		return def, nil
	}
	if v < 0 {
		return 0, errors.Errorf("usage %s: %s must not be negative, got %d", u.Name, key, v)
	}
	return uint64(v), nil
}

// QueueRequests collects the requests of every "queue" usage in the chain,
// in chain order.
func (u *Usage) QueueRequests() ([]QueueRequest, error) {
	var requests []QueueRequest
	for cur := u; cur != nil; cur = cur.Linked {
		if cur.Name != UsageQueue {
			continue
		}
		req, err := cur.QueueRequest()
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// DefaultUsage describes the four queues the demo asks for: graphics at high
// priority, compute, transfer and present.
func DefaultUsage(name string) *Usage {
	u := NewUsage(name, 4)
	u.Strings[KeyApplicationName] = name
	u.Strings[KeyAPIVersion] = "1.2.0"
	u.Strings[KeyWantedLayers] = "VK_LAYER_KHRONOS_validation"
	u.Strings[KeyDeviceExtensions] = "VK_KHR_swapchain"
	for _, q := range []struct{ features, priority string }{
		{"graphics", "high"},
		{"compute", "normal"},
		{"transfer", "normal"},
		{"present", "normal"},
	} {
		qu := NewUsage(UsageQueue, 2)
		qu.Strings[KeyFeatures] = q.features
		qu.Strings[KeyPriority] = q.priority
		u.Link(qu)
	}
	return u
}
