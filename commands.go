/*
 *  commands.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// Execute routes to the subcommands
func Execute() error {
	return rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:           "ancmix",
	Short:         "Local ancestry masking and admixture visualization prep",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var maskCmd = &cobra.Command{
	Use:   "mask <ancestry> <vcf> <msp> <out>",
	Short: "Mask genotypes that fall outside the target local ancestry",
	Long: `
Given a VCF and the .msp local ancestry output of gnomix, rewrite every
haplotype call whose ancestry label differs from the target code as the
missing marker. The ancestry code is an integer, see the first line of the
.msp file. Positions covered by no ancestry segment are masked entirely.
`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ancestry, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("ancestry code must be an integer, got `%s`", args[0])
		}
		p := &Masker{Ancestry: ancestry, Vcffile: args[1], Mspfile: args[2], Outfile: args[3]}
		return p.Run()
	},
}

var splitCmd = &cobra.Command{
	Use:   "split <vcf>",
	Short: "Split a single-chromosome VCF into contiguous shards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")
		parts, _ := cmd.Flags().GetInt("parts")
		p := &Splitter{Vcffile: args[0], Prefix: prefix, Parts: parts}
		return p.Run()
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect <beddir>... <outdir>",
	Short: "Concatenate per-chromosome BED shards per sample haplotype",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &Collector{Beddirs: args[:len(args)-1], Outdir: args[len(args)-1]}
		return p.Run()
	},
}

var globalCmd = &cobra.Command{
	Use:   "global <beddir> <out.tsv>",
	Short: "Compute per-sample global ancestry proportions from BED tracks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		npyfile, _ := cmd.Flags().GetString("npy")
		jsonfile, _ := cmd.Flags().GetString("json")
		p := &GlobalAncestry{Beddir: args[0], Outfile: args[1], Npyfile: npyfile, Jsonfile: jsonfile}
		return p.Run()
	},
}

var ind2popCmd = &cobra.Command{
	Use:   "ind2pop <popinfo.csv> <sample_order> <covariate> <id-column>",
	Short: "Generate pong's ind2pop and population order files",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &Ind2Pop{Popinfo: args[0], Sampleorder: args[1], Covariate: args[2], IDColumn: args[3]}
		return p.Run()
	},
}

var filemapCmd = &cobra.Command{
	Use:   "filemap <qdir> <prefix> <outfile>",
	Short: "Generate a pong filemap from ADMIXTURE Q files",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &Filemapper{Qdir: args[0], Prefix: args[1], Outfile: args[2]}
		return p.Run()
	},
}

var qalignCmd = &cobra.Command{
	Use:   "qalign <qdir> <prefix> <outfile>",
	Short: "Align cluster columns of ADMIXTURE runs sharing the same K",
	Long: `
ADMIXTURE labels its clusters arbitrarily per run, so runs of the same K
are not directly comparable column by column. For each K, anchor on the
first run and compute the column permutation of every other run that best
matches it.
`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &Qaligner{Qdir: args[0], Prefix: args[1], Outfile: args[2]}
		return p.Run()
	},
}

var viewCmd = &cobra.Command{
	Use:   "view <global.json>",
	Short: "Serve an HTML report of global ancestry proportions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		p := &Viewer{Jsonfile: args[0], Port: port}
		return p.Run()
	},
}

func init() {
	splitCmd.Flags().String("prefix", "split", "Prefix of the shard files")
	splitCmd.Flags().Int("parts", 2, "Number of shards to produce")
	globalCmd.Flags().String("npy", "", "Also write the proportion matrix as .npy")
	globalCmd.Flags().String("json", "", "Also write a JSON report for `ancmix view`")
	viewCmd.Flags().Int("port", 3000, "Port to serve on")

	rootCmd.AddCommand(maskCmd, splitCmd, collectCmd, globalCmd,
		ind2popCmd, filemapCmd, qalignCmd, viewCmd)
}
