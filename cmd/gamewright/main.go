package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"gamewright/internal/agent"
	"gamewright/internal/cli"
	"gamewright/internal/coder"
	"gamewright/internal/config"
	"gamewright/internal/finetune"
	"gamewright/internal/fixer"
	"gamewright/internal/listener"
	"gamewright/internal/llm"
	"gamewright/internal/logger"
	"gamewright/internal/planner"
	"gamewright/internal/rag"
	"gamewright/internal/sandbox"
	"gamewright/internal/task"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is")
	}

	cfg := config.Load()

	if err := logger.Init(cfg.LogFile); err != nil {
		log.Fatalf("Fatal Error: Could not initialize logger: %v", err)
	}

	gen, err := llm.New(cfg)
	if err != nil {
		log.Fatalf("Fatal Error: Could not initialize LLM client: %v", err)
	}

	index, err := rag.New(cfg)
	if err != nil {
		log.Fatalf("Fatal Error: Could not initialize knowledge index: %v", err)
	}
	// The index is best-effort at query time; schema and seed failures
	// only cost retrieval quality, not startup.
	setupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := index.EnsureSchema(setupCtx); err != nil {
		logger.Log.Printf("[main] knowledge schema unavailable: %v", err)
	} else if err := index.Seed(setupCtx, cfg.SeedDir); err != nil {
		logger.Log.Printf("[main] knowledge seeding failed: %v", err)
	}
	cancel()

	store, err := task.NewStore(cfg.StatesDir)
	if err != nil {
		log.Fatalf("Fatal Error: Could not open state store: %v", err)
	}

	runner := sandbox.NewPythonRunner(cfg.PythonBin, cfg.ExecTimeout)

	pl := planner.New(gen, index, cfg.Models)
	cd := coder.New(gen, index, cfg.Models)
	fx := fixer.New(gen, index, runner, cfg.Models, listener.AskDisposition)

	dev := agent.New(store, pl, cd, fx, cfg)
	exporter := finetune.New(store, cfg.FinetuneDir)

	cli.Execute(dev, exporter, index)
}
