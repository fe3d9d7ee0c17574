package aaka

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// SystemParameters are the public parameters minted once by RC Setup and
// distributed verbatim to every MS and U. Immutable for the life of the
// deployment.
type SystemParameters struct {
	P        bls12381.G1Affine // the fixed generator P = P₁
	PPub     bls12381.G1Affine // s·P
	PPubHat  bls12381.G1Affine // ŝ·P
	G        bls12381.GT       // e(P₁, P₂)
}

// MasterSecretKey is held only transiently inside RC Setup and during a
// reconstruction window on a quorum of RC nodes; it must never be retained
// outside the scope of the call that reconstructed it.
type MasterSecretKey struct {
	S    fr.Element // s
	SHat fr.Element // ŝ
}

// UserSecretKey is the identity-based private key issued to a mobile user by
// RegisterUser.
type UserSecretKey struct {
	Ru   bls12381.G1Affine // r_u·P
	SIDu fr.Element        // r_u + s·H0(ID_u‖R_u)
}

// ServerSecretKey is the identity-based private key issued to an MEC server
// by RegisterServer. Unlike UserSecretKey it lives in G2.
type ServerSecretKey struct {
	SIDms bls12381.G2Affine // (ŝ + H1(ID_ms))⁻¹·P₂
}

// UserAuthRequest is the first protocol message, produced by
// InitiateAuthentication and consumed by ProcessUserRequest.
type UserAuthRequest struct {
	M     bls12381.G1Affine
	N     []byte
	Sigma fr.Element
	Tu    uint64
}

// ServerAuthResponse is the second protocol message, produced by
// ProcessUserRequest and consumed by ProcessServerResponse.
type ServerAuthResponse struct {
	T   fr.Element
	Y   bls12381.G1Affine
	Tms uint64
}

// UserState is the ephemeral, user-local state produced by
// InitiateAuthentication and consumed exactly once by ProcessServerResponse.
type UserState struct {
	X   fr.Element
	XPt bls12381.G1Affine // X = x·P
	IDu []byte
	Ru  bls12381.G1Affine
}

// SessionKey is the symmetric key established on both sides of a successful
// exchange. Its length is the caller's configured k (default 32 bytes).
type SessionKey []byte

// --- Wire encoding -----------------------------------------------------
//
// Every field element and group point that crosses a trust boundary is
// emitted as lower-case hex of its canonical compressed byte encoding (§6).
// Each type below gets a MarshalJSON/UnmarshalJSON pair following the
// teacher's custom-codec-on-the-wire-struct pattern rather than reflecting
// over the library's own point types directly.

func hexEncode(b []byte) string { return hex.EncodeToString(b) }

func hexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex: %v", ErrDeserialization, err)
	}
	return b, nil
}

type systemParametersWire struct {
	P       string `json:"p_hex"`
	PPub    string `json:"p_pub_hex"`
	PPubHat string `json:"p_pub_hat_hex"`
	G       string `json:"g_hex"`
}

// MarshalJSON encodes SystemParameters per the SystemParametersResp wire
// shape of §6.
func (p SystemParameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(systemParametersWire{
		P:       hexEncode(compressG1(p.P)),
		PPub:    hexEncode(compressG1(p.PPub)),
		PPubHat: hexEncode(compressG1(p.PPubHat)),
		G:       hexEncode(gtBytes(p.G)),
	})
}

// UnmarshalJSON decodes SystemParameters from the SystemParametersResp wire
// shape of §6.
func (p *SystemParameters) UnmarshalJSON(data []byte) error {
	var w systemParametersWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	pBytes, err := hexDecode(w.P)
	if err != nil {
		return err
	}
	if p.P, err = decompressG1(pBytes); err != nil {
		return err
	}
	ppBytes, err := hexDecode(w.PPub)
	if err != nil {
		return err
	}
	if p.PPub, err = decompressG1(ppBytes); err != nil {
		return err
	}
	phBytes, err := hexDecode(w.PPubHat)
	if err != nil {
		return err
	}
	if p.PPubHat, err = decompressG1(phBytes); err != nil {
		return err
	}
	gBytes, err := hexDecode(w.G)
	if err != nil {
		return err
	}
	if _, err := p.G.SetBytes(gBytes); err != nil {
		return fmt.Errorf("%w: decoding GT element: %v", ErrDeserialization, err)
	}
	return nil
}

type userAuthRequestWire struct {
	M     string `json:"m_hex"`
	N     string `json:"n"`
	Sigma string `json:"sigma_hex"`
	Ts    uint64 `json:"timestamp"`
}

// MarshalJSON encodes UserAuthRequest per the wire shape of §6.
func (r UserAuthRequest) MarshalJSON() ([]byte, error) {
	sigmaBytes := r.Sigma.Bytes()
	return json.Marshal(userAuthRequestWire{
		M:     hexEncode(compressG1(r.M)),
		N:     hexEncode(r.N),
		Sigma: hexEncode(sigmaBytes[:]),
		Ts:    r.Tu,
	})
}

// UnmarshalJSON decodes UserAuthRequest per the wire shape of §6.
func (r *UserAuthRequest) UnmarshalJSON(data []byte) error {
	var w userAuthRequestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	mBytes, err := hexDecode(w.M)
	if err != nil {
		return err
	}
	if r.M, err = decompressG1(mBytes); err != nil {
		return err
	}
	if r.N, err = hexDecode(w.N); err != nil {
		return err
	}
	sigmaBytes, err := hexDecode(w.Sigma)
	if err != nil {
		return err
	}
	if r.Sigma, err = frFromCanonicalBytes(sigmaBytes); err != nil {
		return err
	}
	r.Tu = w.Ts
	return nil
}

type serverAuthResponseWire struct {
	T  string `json:"t_hex"`
	Y  string `json:"y_hex"`
	Ts uint64 `json:"timestamp"`
}

// MarshalJSON encodes ServerAuthResponse per the wire shape of §6.
func (r ServerAuthResponse) MarshalJSON() ([]byte, error) {
	tBytes := r.T.Bytes()
	return json.Marshal(serverAuthResponseWire{
		T:  hexEncode(tBytes[:]),
		Y:  hexEncode(compressG1(r.Y)),
		Ts: r.Tms,
	})
}

// UnmarshalJSON decodes ServerAuthResponse per the wire shape of §6.
func (r *ServerAuthResponse) UnmarshalJSON(data []byte) error {
	var w serverAuthResponseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tBytes, err := hexDecode(w.T)
	if err != nil {
		return err
	}
	if r.T, err = frFromCanonicalBytes(tBytes); err != nil {
		return err
	}
	yBytes, err := hexDecode(w.Y)
	if err != nil {
		return err
	}
	if r.Y, err = decompressG1(yBytes); err != nil {
		return err
	}
	r.Tms = w.Ts
	return nil
}

type userSecretKeyWire struct {
	Ru   string `json:"r_u_hex"`
	SIDu string `json:"sid_u_hex"`
}

// MarshalJSON encodes UserSecretKey per the RegisterUserResp wire shape.
func (k UserSecretKey) MarshalJSON() ([]byte, error) {
	sidBytes := k.SIDu.Bytes()
	return json.Marshal(userSecretKeyWire{
		Ru:   hexEncode(compressG1(k.Ru)),
		SIDu: hexEncode(sidBytes[:]),
	})
}

// UnmarshalJSON decodes UserSecretKey per the RegisterUserResp wire shape.
func (k *UserSecretKey) UnmarshalJSON(data []byte) error {
	var w userSecretKeyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ruBytes, err := hexDecode(w.Ru)
	if err != nil {
		return err
	}
	if k.Ru, err = decompressG1(ruBytes); err != nil {
		return err
	}
	sidBytes, err := hexDecode(w.SIDu)
	if err != nil {
		return err
	}
	if k.SIDu, err = frFromCanonicalBytes(sidBytes); err != nil {
		return err
	}
	return nil
}

type serverSecretKeyWire struct {
	SIDms string `json:"sid_ms_hex"`
}

// MarshalJSON encodes ServerSecretKey per the RegisterServerResp wire shape.
func (k ServerSecretKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(serverSecretKeyWire{SIDms: hexEncode(compressG2(k.SIDms))})
}

// UnmarshalJSON decodes ServerSecretKey per the RegisterServerResp wire shape.
func (k *ServerSecretKey) UnmarshalJSON(data []byte) error {
	var w serverSecretKeyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b, err := hexDecode(w.SIDms)
	if err != nil {
		return err
	}
	k.SIDms, err = decompressG2(b)
	return err
}
