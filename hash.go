package aaka

import (
	"encoding/binary"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/sha3"
)

// Domain-separation tags, one per hash function, prepended to every input
// before hashing so that H0..H5 are independent even though they share a
// single underlying hash (SHA3-256). Mirrors the fixed prefix scheme of the
// reference implementation's hash_utils module.
var (
	h0Tag = []byte("IBC_AAKA_H0")
	h1Tag = []byte("IBC_AAKA_H1")
	h2Tag = []byte("IBC_AAKA_H2")
	h3Tag = []byte("IBC_AAKA_H3")
	h4Tag = []byte("IBC_AAKA_H4")
	h5Tag = []byte("IBC_AAKA_H5")
)

// kdfCounterLimit bounds the counter-mode expansion loop used by H2 and H5;
// exceeding it surfaces ErrHash rather than looping forever.
const kdfCounterLimit = 100

// sha3Digest hashes the concatenation of parts with SHA3-256.
func sha3Digest(parts ...[]byte) []byte {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// H0 maps (ID_u, R_u) to Fq: tag‖ID_u‖compress(R_u), reduced mod q.
func H0(idU []byte, rU bls12381.G1Affine) fr.Element {
	digest := sha3Digest(h0Tag, idU, compressG1(rU))
	return reduceModQ(digest)
}

// H1 maps ID_ms to Fq: tag‖ID_ms, reduced mod q.
func H1(idMS []byte) fr.Element {
	digest := sha3Digest(h1Tag, idMS)
	return reduceModQ(digest)
}

// be64 encodes a Unix timestamp as 8 big-endian bytes.
func be64(t uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, t)
	return b
}

// gtBytes returns the canonical byte encoding of a GT element. GT has no
// separate compressed form distinct from its natural Fp12 encoding, so the
// "compress(g^x)" language of §4.1 refers to this natural encoding.
func gtBytes(g bls12381.GT) []byte {
	b := g.Bytes()
	return b[:]
}

// kdfExpand implements the counter-mode SHA3-256 KDF mandated by §4.1 for
// H2 and H5: the first block is SHA3-256(tag‖fixed...), subsequent blocks
// append a big-endian uint32 counter starting at 0, and the concatenation
// is truncated to length bytes. The loop is capped at kdfCounterLimit
// iterations.
func kdfExpand(tag []byte, fixed [][]byte, length int) ([]byte, error) {
	out := make([]byte, 0, length+sha3.New256().Size())
	block := sha3Digest(append([][]byte{tag}, fixed...)...)
	out = append(out, block...)

	var counter uint32
	for len(out) < length {
		if counter >= kdfCounterLimit {
			return nil, fmt.Errorf("%w: KDF counter-mode expansion exceeded %d iterations", ErrHash, kdfCounterLimit)
		}
		parts := append([][]byte{tag}, fixed...)
		cbuf := make([]byte, 4)
		binary.BigEndian.PutUint32(cbuf, counter)
		parts = append(parts, cbuf)
		block = sha3Digest(parts...)
		out = append(out, block...)
		counter++
	}
	return out[:length], nil
}

// H2 expands g^x into a mask of exactly length bytes: tag‖compress(g^x)
// (‖counter for extension blocks).
func H2(gx bls12381.GT, length int) ([]byte, error) {
	return kdfExpand(h2Tag, [][]byte{gtBytes(gx)}, length)
}

// H3 maps (ID_u, R_u, X, T_u) to Fq: tag‖ID_u‖compress(R_u)‖compress(X)‖be64(T_u).
func H3(idU []byte, rU, x bls12381.G1Affine, tU uint64) fr.Element {
	digest := sha3Digest(h3Tag, idU, compressG1(rU), compressG1(x), be64(tU))
	return reduceModQ(digest)
}

// H4 maps (ID_u, ID_ms, X, Y, T_ms) to Fq.
func H4(idU, idMS []byte, x, y bls12381.G1Affine, tMS uint64) fr.Element {
	digest := sha3Digest(h4Tag, idU, idMS, compressG1(x), compressG1(y), be64(tMS))
	return reduceModQ(digest)
}

// H5 expands (K, ID_u, ID_ms, X, Y) into session-key bytes of the requested
// length: tag‖compress(K)‖ID_u‖ID_ms‖compress(X)‖compress(Y) (‖counter).
func H5(k, x, y bls12381.G1Affine, idU, idMS []byte, length int) ([]byte, error) {
	fixed := [][]byte{compressG1(k), idU, idMS, compressG1(x), compressG1(y)}
	return kdfExpand(h5Tag, fixed, length)
}

// xorBytes XORs a and b, which must be the same length.
func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
