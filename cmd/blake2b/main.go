// blake2b runs the Blake2b circuit on a JSON-described input, checks the
// resulting trace against the reference digest and reports the circuit cost.
//
// The input file holds hex-encoded message and key bytes:
//
//	{"in": "00010203", "key": "", "output_size": 64}
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ref "golang.org/x/crypto/blake2b"

	"github.com/consensys/blake2b-circuit/blake2b"
	"github.com/consensys/blake2b-circuit/logger"
	"github.com/consensys/blake2b-circuit/plonkish/mock"
)

type hashInput struct {
	In         string `json:"in"`
	Key        string `json:"key"`
	OutputSize int    `json:"output_size"`
}

func main() {
	var optName string

	cmd := &cobra.Command{
		Use:   "blake2b <input.json>",
		Short: "check a Blake2b hash trace and report its circuit cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := parseOptimization(optName)
			if err != nil {
				return err
			}
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			return run(in, opt)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&optName, "opt", "recycle", "optimization variant: recycle, four_limbs or spread")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseOptimization(name string) (blake2b.Optimization, error) {
	for _, opt := range []blake2b.Optimization{blake2b.Recycle, blake2b.FourLimbs, blake2b.Spread} {
		if opt.String() == name {
			return opt, nil
		}
	}
	return 0, fmt.Errorf("unknown optimization %q", name)
}

func readInput(path string) (hashInput, error) {
	var in hashInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read input file: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse input file: %w", err)
	}
	return in, nil
}

func run(in hashInput, opt blake2b.Optimization) error {
	log := logger.Logger()

	input, err := hex.DecodeString(in.In)
	if err != nil {
		return fmt.Errorf("decode input hex: %w", err)
	}
	key, err := hex.DecodeString(in.Key)
	if err != nil {
		return fmt.Errorf("decode key hex: %w", err)
	}

	h, err := ref.New(in.OutputSize, key)
	if err != nil {
		return fmt.Errorf("reference hash: %w", err)
	}
	h.Write(input)
	digest := h.Sum(nil)

	log.Info().
		Stringer("optimization", opt).
		Int("input_bytes", len(input)).
		Int("key_bytes", len(key)).
		Msg("building trace")

	circuit := blake2b.NewCircuit(opt, input, key, in.OutputSize)
	prover, err := mock.Run(circuit, blake2b.DigestInstance(digest))
	if err != nil {
		return fmt.Errorf("trace synthesis: %w", err)
	}
	if err := prover.Verify(); err != nil {
		return fmt.Errorf("trace verification: %w", err)
	}

	fmt.Printf("digest: %s\n\n", hex.EncodeToString(digest))
	fmt.Printf("advice rows:       %d\n", prover.Rows())
	fmt.Printf("table rows:        %d\n", prover.TableRows())
	fmt.Printf("advice columns:    %d\n", prover.AdviceColumns())
	fmt.Printf("fixed columns:     %d\n", prover.FixedColumns())
	fmt.Printf("instance columns:  %d\n", prover.InstanceColumns())
	fmt.Printf("gates:             %d\n", prover.Gates())
	fmt.Printf("lookups:           %d\n", prover.Lookups())
	return nil
}
