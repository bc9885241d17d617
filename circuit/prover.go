package circuit

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// System is a compiled lock circuit with its proving and verifying keys.
type System struct {
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
}

// Compile compiles the circuit to R1CS over BN254 and runs setup.
func Compile(c *LockCircuit) (*System, error) {
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	return &System{CS: cs, ProvingKey: pk, VerifyingKey: vk}, nil
}

// Constraints returns the constraint count of the compiled system.
func (s *System) Constraints() int {
	return s.CS.GetNbConstraints()
}

// Prove generates a Groth16 proof for the assignment and verifies it against
// the public witness.
func (s *System) Prove(assignment *LockCircuit) (groth16.Proof, error) {
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}
	proof, err := groth16.Prove(s.CS, s.ProvingKey, witness)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}
	public, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness extraction failed: %w", err)
	}
	if err := groth16.Verify(proof, s.VerifyingKey, public); err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	return proof, nil
}
