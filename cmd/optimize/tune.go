package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/autopark/config"
)

type tuneOptions struct {
	configPath string
	outputDir  string
	seed       int64
	seeds      int
	maxEvals   int
	population int
}

func runTune(cfg *config.Config, opts tuneOptions) error {
	// Plan once; every evaluation tracks the same path.
	fmt.Println("Planning reference trajectory...")
	res, err := plan(cfg, cfg.Problem(), planOptions{seed: opts.seed, curve: "bezier"})
	if err != nil {
		return err
	}
	fmt.Printf("Planned path: length=%.1f collision=%t\n", res.PathLength, res.HasCollision)

	// Create parameter vector
	params := NewParamVector()

	// Generate seeds for evaluation
	evalSeeds := make([]int64, opts.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, cfg, res, evalSeeds)

	// Set up CMA-ES, starting from the loaded config
	dim := params.Dim()
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(cfg)))

	// Track evaluations and timing
	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	// Open log file
	logPath := filepath.Join(opts.outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "parked"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := logWriter.Write(header); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			evalCount++

			// Log clamped values, the ones actually simulated
			clamped := params.Clamp(raw)
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			parked := evaluator.LastParked()
			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), strconv.Itoa(parked)}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(opts.maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: fitness=%.2f parked=%d/%d (best=%.2f) | elapsed: %s, ETA: %s\n",
				evalCount, opts.maxEvals, fitness, parked, opts.seeds, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // Sequential evaluation; each one already runs seeds in parallel
	}

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, opts.maxEvals)
	fmt.Printf("Starts per evaluation: %d\n", opts.seeds)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.2f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return nil
}
