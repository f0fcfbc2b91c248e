package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(tmp[:], uint64(v))
		h.Write(tmp[:])
	}
	writeInt(int64(nowTick))
	for _, u := range w.units {
		if u.dead {
			continue
		}
		writeInt(int64(u.ID))
		h.Write([]byte(u.Type.Name))
		writeInt(int64(boolInt(u.placed)))
		writeInt(int64(u.pos.X))
		writeInt(int64(u.pos.Y))
		writeInt(int64(u.dir))
		h.Write([]byte(u.activity))
		writeInt(int64(u.frame))
		writeInt(int64(u.hp))
		writeInt(int64(u.cargo.Kind))
		h.Write([]byte(u.cargo.Resource))
		writeInt(int64(u.cargo.Amount))
		if u.owner != nil {
			writeInt(int64(u.owner.ID))
		} else {
			writeInt(0)
		}
		writeInt(int64(len(u.queue)))
	}
	for _, p := range w.Players() {
		writeInt(int64(p.ID))
		writeResources(h, &tmp, p.resources)
	}
	writeInt(int64(len(w.effects)))
	return hex.EncodeToString(h.Sum(nil))
}

func writeResources(h hash.Hash, tmp *[8]byte, m map[ResourceType]int) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != 0 {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(m[ResourceType(k)])))
		h.Write(tmp[:])
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
