package aaka

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// InitiateAuthentication begins the protocol from the user's side (§4.3).
// It produces the UserAuthRequest to send to the chosen server and the
// UserState to retain until the server's response arrives.
func InitiateAuthentication(usk *UserSecretKey, idU, idMS []byte, params *SystemParameters, clock Clock) (*UserAuthRequest, *UserState, error) {
	x, err := randomFr()
	if err != nil {
		return nil, nil, fmt.Errorf("initiate authentication: drawing x: %w", err)
	}
	xPoint := scalarMulG1(params.P, x)

	gx := gtExp(params.G, x)

	hMS := H1(idMS)
	hMSP := scalarMulG1(params.P, hMS)
	inner := addG1(params.PPubHat, hMSP)
	m := scalarMulG1(inner, x)

	ruBytes := compressG1(usk.Ru)
	xBytes := compressG1(xPoint)
	payload := make([]byte, 0, len(idU)+len(ruBytes)+len(xBytes))
	payload = append(payload, idU...)
	payload = append(payload, ruBytes...)
	payload = append(payload, xBytes...)

	mask, err := H2(gx, len(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("initiate authentication: %w", err)
	}
	n := xorBytes(mask, payload)

	tU, err := clock.Now()
	if err != nil {
		return nil, nil, fmt.Errorf("initiate authentication: %w", err)
	}

	h3 := H3(idU, usk.Ru, xPoint, tU)
	var xh3 fr.Element
	xh3.Mul(&x, &h3)
	var sigma fr.Element
	sigma.Add(&usk.SIDu, &xh3)

	req := &UserAuthRequest{M: m, N: n, Sigma: sigma, Tu: tU}
	state := &UserState{X: x, XPt: xPoint, IDu: append([]byte(nil), idU...), Ru: usk.Ru}
	return req, state, nil
}

// ProcessServerResponse verifies the server's response against the state
// saved by InitiateAuthentication and, on success, derives the session key
// (§4.3). state is consumed exactly once; callers must not reuse it.
func ProcessServerResponse(usk *UserSecretKey, state *UserState, resp *ServerAuthResponse, idMS []byte, k int, clock Clock, skew time.Duration) (SessionKey, error) {
	fresh, err := Fresh(clock, resp.Tms, skew)
	if err != nil {
		return nil, fmt.Errorf("process server response: %w", err)
	}
	if !fresh {
		return nil, ErrInvalidTimestamp
	}

	computedT := H4(state.IDu, idMS, state.XPt, resp.Y, resp.Tms)
	computedTBytes := computedT.Bytes()
	respTBytes := resp.T.Bytes()
	if subtle.ConstantTimeCompare(computedTBytes[:], respTBytes[:]) != 1 {
		return nil, ErrServerResponseVerificationFailed
	}

	var xt fr.Element
	xt.Mul(&state.X, &resp.T)
	var sidUPlusXt fr.Element
	sidUPlusXt.Add(&usk.SIDu, &xt)
	kUMS := scalarMulG1(resp.Y, sidUPlusXt)

	sk, err := H5(kUMS, state.XPt, resp.Y, state.IDu, idMS, k)
	if err != nil {
		return nil, fmt.Errorf("process server response: %w", err)
	}
	return SessionKey(sk), nil
}
