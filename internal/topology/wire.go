package topology

// linkAdvert is one entry in a peer advertisement list: the global
// coordinate of the local (sending) end of a cross-worker link, and the
// direction it travels in.
type linkAdvert struct {
	x        [3]int64
	q        int
	localIdx int64 // this rank's local fluid index for the site at x; not sent over the wire
}

// encodeAdverts flattens a list of adverts into the wire format §6
// specifies: 4 signed 64-bit components per entry, (x, y, z, q).
func encodeAdverts(adverts []linkAdvert) []int64 {
	out := make([]int64, 0, 4*len(adverts))
	for _, a := range adverts {
		out = append(out, a.x[0], a.x[1], a.x[2], int64(a.q))
	}
	return out
}

// decodeAdverts is the inverse of encodeAdverts. The localIdx field is
// left zero; the receiver has no use for the sender's local index.
func decodeAdverts(payload []int64) []linkAdvert {
	n := len(payload) / 4
	out := make([]linkAdvert, n)
	for i := 0; i < n; i++ {
		out[i] = linkAdvert{
			x: [3]int64{payload[4*i], payload[4*i+1], payload[4*i+2]},
			q: int(payload[4*i+3]),
		}
	}
	return out
}
