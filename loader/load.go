package loader

import (
	"github.com/andewx/learnvk"
	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

// Resolver looks up an entry point for owner, which is zero for the
// exported and global tiers. A zero address means not found.
type Resolver interface {
	Resolve(tier Tier, owner uintptr, name string) uintptr
}

// Table maps entry point names to addresses.
type Table map[string]uintptr

func (t Table) Has(name string) bool {
	return t[name] != 0
}

// Call invokes the named entry point with integer or handle arguments and
// returns its raw result.
func (t Table) Call(name string, args ...uintptr) (uintptr, error) {
	addr := t[name]
	if addr == 0 {
		return 0, &learnvk.Error{Op: "loader.Call", Kind: learnvk.KindMissingFunction, Index: learnvk.NoIndex, Name: name}
	}
	r, _, _ := purego.SyscallN(addr, args...)
	return r, nil
}

func enabledSet(enabled []string) map[string]bool {
	set := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		set[name] = true
	}
	return set
}

// Load resolves every entry of tier. Entries gated on an extension that is
// not in enabled are skipped; any other entry that does not resolve fails
// the whole load.
func Load(r Resolver, tier Tier, owner uintptr, enabled []string) (Table, error) {
	const op = "loader.Load"
	on := enabledSet(enabled)
	table := make(Table)
	for _, e := range Entries {
		if e.Tier != tier {
			continue
		}
		if e.Extension != "" && !on[e.Extension] {
			continue
		}
		addr := r.Resolve(tier, owner, e.Name)
		if addr == 0 {
			learnvk.Logger().Error("entry point not found",
				zap.String("name", e.Name),
				zap.Stringer("tier", tier),
				zap.String("extension", e.Extension))
			return nil, &learnvk.Error{Op: op, Kind: learnvk.KindMissingFunction, Index: learnvk.NoIndex, Name: e.Name}
		}
		table[e.Name] = addr
	}
	learnvk.Logger().Debug("entry points loaded", zap.Stringer("tier", tier), zap.Int("count", len(table)))
	return table, nil
}
