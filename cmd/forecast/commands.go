package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// batchFile is the YAML input of the analyze command.
type batchFile struct {
	HorizonDays  int                      `yaml:"horizonDays"`
	Mode         string                   `yaml:"mode"`
	Allocation   string                   `yaml:"allocation"`
	SharedIntake *nutrition.Intake        `yaml:"sharedIntake"`
	Profiles     []nutrition.ProfileInput `yaml:"profiles"`
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "forecast",
		Short:         "Family nutrition and body composition forecasts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	engine := nutrition.NewEngine(nutrition.Config{}, logger)
	root.AddCommand(newAnalyzeCommand(engine), newClassifyCommand(engine))
	return root
}

func newAnalyzeCommand(engine *nutrition.Engine) *cobra.Command {
	var (
		file       string
		days       int
		mode       string
		allocation string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Forecast every profile in a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readBatchFile(file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				in.HorizonDays = days
			}
			if mode != "" {
				in.Mode = mode
			}
			if allocation != "" {
				in.Allocation = allocation
			}

			req := nutrition.BatchRequest{
				Profiles:     in.Profiles,
				SharedIntake: in.SharedIntake,
				HorizonDays:  in.HorizonDays,
			}
			if in.Mode != "" {
				if req.Mode, err = nutrition.ParseBatchMode(in.Mode); err != nil {
					return err
				}
			}
			if in.Allocation != "" {
				if req.Allocation, err = nutrition.ParseAllocationPolicy(in.Allocation); err != nil {
					return err
				}
			}

			result, err := engine.AnalyzeBatch(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with profiles and an optional sharedIntake")
	cmd.Flags().IntVar(&days, "days", 0, "forecast horizon in days (overrides the file)")
	cmd.Flags().StringVar(&mode, "mode", "", "best_effort or fail_fast")
	cmd.Flags().StringVar(&allocation, "allocation", "", "weight or tdee")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newClassifyCommand(engine *nutrition.Engine) *cobra.Command {
	var (
		height float64
		weight float64
		gender string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the body image tier for a height and weight",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := nutrition.ParseMeasurements(height, weight, gender)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), engine.ClassifyBodyImage(height, weight, g))
		},
	}
	cmd.Flags().Float64Var(&height, "height", 0, "height in cm")
	cmd.Flags().Float64Var(&weight, "weight", 0, "weight in kg")
	cmd.Flags().StringVar(&gender, "gender", "", "male or female")
	_ = cmd.MarkFlagRequired("height")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("gender")
	return cmd
}

func readBatchFile(path string) (batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batchFile{}, fmt.Errorf("read input: %w", err)
	}
	var in batchFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return batchFile{}, fmt.Errorf("parse input: %w", err)
	}
	if len(in.Profiles) == 0 {
		return batchFile{}, fmt.Errorf("%s contains no profiles", path)
	}
	return in, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
