package hako

import (
	"math/bits"
	"slices"
)

// bitmask256 is a set of up to 256 component type IDs. It is comparable, so
// it doubles as the map key that identifies an archetype or a query.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given component ID.
func (m *bitmask256) set(bit ComponentTypeID) {
	m[bit>>6] |= uint64(1) << (bit & 63)
}

// unset disables the bit corresponding to the given component ID.
func (m *bitmask256) unset(bit ComponentTypeID) {
	m[bit>>6] &^= uint64(1) << (bit & 63)
}

// contains checks if all the bits set in sub are also set in m. This is used
// to determine if an archetype's component set is a superset of a query's.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// containsBit checks if a specific bit is set in the mask.
func (m bitmask256) containsBit(bit ComponentTypeID) bool {
	return m[bit>>6]&(uint64(1)<<(bit&63)) != 0
}

func (m bitmask256) or(o bitmask256) bitmask256 {
	return bitmask256{m[0] | o[0], m[1] | o[1], m[2] | o[2], m[3] | o[3]}
}

func (m bitmask256) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// ids returns the set bits in ascending order.
func (m bitmask256) ids() ArchetypeID {
	out := make(ArchetypeID, 0, m.count())
	for w, word := range m {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, ComponentTypeID(w<<6+b))
			word &= word - 1
		}
	}
	return out
}

// ArchetypeID identifies an archetype by its sorted, deduplicated component
// type IDs.
type ArchetypeID []ComponentTypeID

// NewArchetypeID sorts and deduplicates ids.
func NewArchetypeID(ids ...ComponentTypeID) ArchetypeID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Contains reports whether id is a member of the set.
func (a ArchetypeID) Contains(id ComponentTypeID) bool {
	_, ok := slices.BinarySearch(a, id)
	return ok
}

// Equal reports whether both sets hold the same IDs.
func (a ArchetypeID) Equal(b ArchetypeID) bool { return slices.Equal(a, b) }

func (a ArchetypeID) mask() bitmask256 {
	var m bitmask256
	for _, id := range a {
		m.set(id)
	}
	return m
}
