package pid

// alphabet is the 32-symbol character set used to render seed-derived
// digits: the lowercase letters minus the visually ambiguous {i, l, o, u},
// plus the ten decimal digits. 22 letters + 10 digits = 32, so each symbol
// carries exactly 5 bits, the same way internal/did/plc.go (in the teacher
// this package descends from) hand-picked its own base32-shaped alphabet
// for the same reason: identifiers get read aloud, typed by hand, and
// pasted into citations, and {i, l, o, u} are the characters most often
// confused with {1, 1, 0, 0} or with each other.
const alphabet = "abcdefghjkmnpqrstvwxyz0123456789"

const alphabetSize = uint64(len(alphabet))

// digits splits x into n base-alphabetSize digits, most significant first,
// and renders each digit through alphabet. Only the low 5*n bits of x are
// consumed.
func digits(x uint64, n int) []byte {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = alphabet[x%alphabetSize]
		x /= alphabetSize
	}
	return out
}
