package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/image"
	"github.com/vazgensoghoyan/riscv-cache-emulator/pkg/sim"
)

func main() {
	var (
		inputPath  string
		outputPath string
		jsonPath   string
		trace      bool
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "rvsim -i <input> [-o <output> <start> <size>]",
		Short: "RV32IM simulator — run a program image under LRU and bpLRU caches",
		Long: `rvsim executes a RISC-V (RV32IM) program image twice, once per cache
replacement policy, and reports per-policy hit/miss statistics. With -o it
also dumps the final registers and a RAM slice from the LRU run.

<start> and <size> accept decimal or 0x-prefixed hex.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return fmt.Errorf("-i <input_file> is required")
			}

			var dumpStart, dumpSize uint32
			if outputPath != "" {
				if len(args) != 2 {
					return fmt.Errorf("-o requires <start_addr> and <size> operands")
				}
				var err error
				if dumpStart, err = parseNum(args[0]); err != nil {
					return fmt.Errorf("invalid start address %q: %w", args[0], err)
				}
				if dumpSize, err = parseNum(args[1]); err != nil {
					return fmt.Errorf("invalid size %q: %w", args[1], err)
				}
			} else if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}

			in, err := image.LoadFile(inputPath)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("Loaded %s: %d memory fragments, pc=0x%08X, halt_ra=0x%08X\n",
					inputPath, len(in.Fragments), in.Regs[0], in.Regs[1])
			}

			opts := sim.Options{}
			if trace {
				opts.Trace = os.Stdout
			}

			results, err := sim.RunAll(in, opts)
			if err != nil {
				return err
			}
			if verbose {
				for _, r := range results {
					fmt.Printf("%s: executed %d instructions\n", r.Policy, r.Executed)
				}
			}

			sim.WriteReport(os.Stdout, results)

			if jsonPath != "" {
				f, err := os.Create(jsonPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := sim.WriteJSON(f, results); err != nil {
					return err
				}
				if verbose {
					fmt.Printf("Stats written to %s\n", jsonPath)
				}
			}

			if outputPath != "" {
				lru := results[0]
				f, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := image.WriteOutput(f, lru.Regs, lru.RAM, dumpStart, dumpSize); err != nil {
					return err
				}
				if verbose {
					fmt.Printf("Dump written to %s (%d bytes at 0x%X)\n", outputPath, dumpSize, dumpStart)
				}
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input program image (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output dump file; takes <start> <size> operands")
	rootCmd.Flags().StringVar(&jsonPath, "json", "", "Write per-policy statistics as JSON")
	rootCmd.Flags().BoolVar(&trace, "trace", false, "Print a disassembled trace of every executed instruction")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseNum accepts decimal and 0x-prefixed hex 32-bit values.
func parseNum(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
