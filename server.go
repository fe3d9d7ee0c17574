package aaka

import (
	"crypto/subtle"
	"fmt"
	"time"
)

// ProcessUserRequest verifies a user's request, mints a response, and
// derives the shared session key from the server's side (§4.4).
func ProcessUserRequest(ssk *ServerSecretKey, req *UserAuthRequest, idMS []byte, params *SystemParameters, k int, clock Clock, skew time.Duration) (*ServerAuthResponse, SessionKey, error) {
	fresh, err := Fresh(clock, req.Tu, skew)
	if err != nil {
		return nil, nil, fmt.Errorf("process user request: %w", err)
	}
	if !fresh {
		return nil, nil, ErrInvalidTimestamp
	}

	gxPrime, err := pair(req.M, ssk.SIDms)
	if err != nil {
		return nil, nil, fmt.Errorf("process user request: %w", err)
	}

	l := len(req.N)
	if l <= 2*compressedG1Size {
		return nil, nil, fmt.Errorf("%w: N too short to contain R_u and X", ErrInvalidInput)
	}

	mask, err := H2(gxPrime, l)
	if err != nil {
		return nil, nil, fmt.Errorf("process user request: %w", err)
	}
	payload := xorBytes(mask, req.N)

	idLen := l - 2*compressedG1Size
	idUPrime := payload[:idLen]
	ruBytes := payload[idLen : idLen+compressedG1Size]
	xBytes := payload[idLen+compressedG1Size:]

	ruPrime, err := decompressG1(ruBytes)
	if err != nil {
		return nil, nil, err
	}
	xPrime, err := decompressG1(xBytes)
	if err != nil {
		return nil, nil, err
	}

	hu := H0(idUPrime, ruPrime)
	huPPub := scalarMulG1(params.PPub, hu)
	w := addG1(ruPrime, huPPub)

	h3 := H3(idUPrime, ruPrime, xPrime, req.Tu)
	h3X := scalarMulG1(xPrime, h3)
	rhs := addG1(w, h3X)

	sigmaP := scalarMulG1(params.P, req.Sigma)
	if subtle.ConstantTimeCompare(compressG1(sigmaP), compressG1(rhs)) != 1 {
		return nil, nil, ErrSignatureVerificationFailed
	}

	y, err := randomFr()
	if err != nil {
		return nil, nil, fmt.Errorf("process user request: drawing y: %w", err)
	}
	yPoint := scalarMulG1(params.P, y)

	tMS, err := clock.Now()
	if err != nil {
		return nil, nil, fmt.Errorf("process user request: %w", err)
	}

	t := H4(idUPrime, idMS, xPrime, yPoint, tMS)
	tXPoint := scalarMulG1(xPrime, t)
	tXPlusW := addG1(tXPoint, w)
	kMSU := scalarMulG1(tXPlusW, y)

	sessionKey, err := H5(kMSU, xPrime, yPoint, idUPrime, idMS, k)
	if err != nil {
		return nil, nil, fmt.Errorf("process user request: %w", err)
	}

	resp := &ServerAuthResponse{T: t, Y: yPoint, Tms: tMS}
	return resp, SessionKey(sessionKey), nil
}
