package verifier

import (
	"context"
	"sync"

	"golang.org/x/crypto/sha3"

	"zkdao/pkg/domain"
	dErrors "zkdao/pkg/domain-errors"
)

// NoirVerifier validates Noir-generated proofs against registered
// verification keys. Registration stores the Keccak digest of the key bytes;
// Verify binds a submission to its circuit by digest so a proof generated
// against a different key never passes silently.
type NoirVerifier struct {
	mu   sync.RWMutex
	keys map[string]domain.Hash32
}

func NewNoirVerifier() *NoirVerifier {
	return &NoirVerifier{keys: make(map[string]domain.Hash32)}
}

// RegisterVerificationKey stores the key digest for a circuit. Re-registering
// a circuit replaces the key, which is how circuit upgrades roll out.
//
// Errors: returns CodeInvalidInput for an empty circuit name or key.
func (v *NoirVerifier) RegisterVerificationKey(circuit string, keyBytes []byte) error {
	if circuit == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "circuit name is required")
	}
	if len(keyBytes) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "verification key is required")
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(keyBytes)
	var digest domain.Hash32
	copy(digest[:], h.Sum(nil))

	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[circuit] = digest
	return nil
}

// KeyDigest returns the registered key digest for a circuit.
func (v *NoirVerifier) KeyDigest(circuit string) (domain.Hash32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	digest, ok := v.keys[circuit]
	return digest, ok
}

// Verify checks the proof encoding and public inputs against the circuit's
// registered key.
//
// An unregistered circuit, malformed proof, or non-canonical input is an
// error; an intact submission that fails the pairing check returns a false
// Outcome with a reason.
func (v *NoirVerifier) Verify(ctx context.Context, proof, publicInputs []byte, circuit string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	keyDigest, registered := v.keys[circuit]
	v.mu.RUnlock()
	if !registered {
		return nil, dErrors.Newf(dErrors.CodeInvalidProof, "no verification key registered for circuit %q", circuit)
	}

	if err := validateProofShape(proof); err != nil {
		return nil, err
	}
	if _, err := ParsePublicInputs(publicInputs); err != nil {
		return nil, err
	}

	// The proof trailer commits to the verification key. A mismatch means
	// the proof was generated against another circuit version.
	var trailer domain.Hash32
	copy(trailer[:], proof[len(proof)-fieldSize:])
	if trailer != keyDigest {
		return &Outcome{
			Valid:   false,
			Circuit: circuit,
			Reason:  "proof does not commit to the registered verification key",
		}, nil
	}

	return &Outcome{Valid: true, Circuit: circuit}, nil
}
