package randsource

// mwcMultiplier is the multiplier used by the multiply-with-carry generator
// in SDL's test harness.
const mwcMultiplier = 0x7e54a5a5

// MWC is a 32-bit multiply-with-carry generator. Seeded with the same key as
// SDL's harness, its Uint32 outputs replay that harness's raw stream.
type MWC struct {
	x, c uint32
}

// NewMWC returns an MWC seeded with key. The high half of the key seeds the
// state word and the low half seeds the carry.
func NewMWC(key uint64) *MWC {
	m := &MWC{}
	m.Seed(key)
	return m
}

// Seed resets the state from key.
func (m *MWC) Seed(key uint64) {
	m.x = uint32(key >> 32)
	m.c = uint32(key)
}

// Uint32 returns the next 32-bit output.
func (m *MWC) Uint32() uint32 {
	const ah, al = mwcMultiplier >> 16, mwcMultiplier & 0xffff

	xh, xl := m.x>>16, m.x&0xffff
	m.x = m.x*mwcMultiplier + m.c
	m.c = xh*ah + ((xh * al) >> 16) + ((xl * ah) >> 16)
	if xl*al >= ^m.c+1 {
		m.c++
	}
	return m.x
}

// Uint64 implements rand.Source by joining two consecutive outputs, the first
// in the high half.
func (m *MWC) Uint64() uint64 {
	hi := uint64(m.Uint32())
	return hi<<32 | uint64(m.Uint32())
}
