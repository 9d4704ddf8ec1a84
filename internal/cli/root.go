package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gamewright/internal/agent"
	"gamewright/internal/display"
	"gamewright/internal/finetune"
	"gamewright/internal/listener"
	"gamewright/internal/logger"
	"gamewright/internal/rag"
	"gamewright/internal/task"
)

var (
	dev      *agent.Agent
	exporter *finetune.Exporter
	index    *rag.Index
)

// demoScenarios are the canned smoke tests reachable from the menu.
var demoScenarios = []string{
	"Create an 800x600 PyGame window with a blue background",
	"Create a red square controlled by the arrow keys",
	"Create a simplified snake game",
}

func watchResults() {
	for result := range dev.Results() {
		if result.Err != nil {
			listener.AsyncPrintln(fmt.Sprintf("[Task %s FAILED] %v", result.TaskID, result.Err))
			continue
		}
		if result.Status == task.StatusCompleted {
			listener.AsyncPrintln(fmt.Sprintf("[Task %s COMPLETED]", result.TaskID))
		} else {
			listener.AsyncPrintln(fmt.Sprintf("[Task %s finished with status %s]", result.TaskID, result.Status))
		}
		if state, ok, err := dev.Load(result.TaskID); err == nil && ok {
			if path := state.Metadata["saved_file"]; path != "" {
				listener.AsyncPrintln(fmt.Sprintf("Game saved to %s", path))
			}
			listener.AsyncPrintln(display.FormatStatus(task.TakeSnapshot(state)))
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "gamewright",
	Short: "A PyGame game generator driven by local LLMs",
	Long:  `Describe a game in plain language and gamewright plans it, writes the PyGame code, validates it in a sandbox and repairs what breaks.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := listener.Init(); err != nil {
			fmt.Println("Failed to init terminal input:", err)
			os.Exit(1)
		}
		defer listener.Close()
		listener.SetPrompt("gamewright> ")

		go watchResults()

		// Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-c
			fmt.Println("\nGoodbye!")
			os.Exit(0)
		}()

		listener.AsyncPrintln("Describe the game you want to build, or use a command:")
		listener.AsyncPrintln("  list | status <task_id> | show <task_id> | demo <n> | stats | export | exit")

		for {
			inputText := listener.GetInput()
			trimmed := strings.TrimSpace(inputText)
			if trimmed == "" {
				continue
			}

			lower := strings.ToLower(trimmed)
			switch {
			case lower == "exit":
				if !listener.AskYesNo("Exit? Background tasks will be abandoned.") {
					continue
				}
				fmt.Println("Goodbye!")
				return

			case lower == "list":
				ids, err := dev.List()
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[List FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(display.FormatStateList(ids))

			case strings.HasPrefix(lower, "status "):
				taskID := strings.TrimSpace(trimmed[len("status "):])
				snap, err := dev.Status(taskID)
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[Status FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(display.FormatStatus(snap))

			case strings.HasPrefix(lower, "show "):
				taskID := strings.TrimSpace(trimmed[len("show "):])
				state, ok, err := dev.Load(taskID)
				if err != nil || !ok {
					listener.AsyncPrintln(fmt.Sprintf("[Show FAILED] unknown task %q", taskID))
					continue
				}
				listener.AsyncPrintln(display.FormatPlan(state.OriginalTask, state.Subtasks))

			case lower == "demo" || strings.HasPrefix(lower, "demo "):
				n := 0
				if lower != "demo" {
					n, _ = strconv.Atoi(strings.TrimSpace(trimmed[len("demo "):]))
				}
				if n < 1 || n > len(demoScenarios) {
					var sb strings.Builder
					sb.WriteString("Demo scenarios:\n")
					for i, scenario := range demoScenarios {
						sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, scenario))
					}
					sb.WriteString("Run one with: demo <n>")
					listener.AsyncPrintln(sb.String())
					continue
				}
				taskID, err := dev.Start(demoScenarios[n-1])
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[Demo FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(fmt.Sprintf("[Task %s STARTED] %s", taskID, demoScenarios[n-1]))

			case lower == "stats":
				s := dev.Stats()
				listener.AsyncPrintln(fmt.Sprintf(
					"Games created: %d, tasks completed: %d, errors fixed: %d, RAG searches: %d, saved states: %d",
					s.GamesCreated, s.TasksCompleted, s.ErrorsFixed, s.RAGSearches, s.SavedStates))
				listener.AsyncPrintln(fmt.Sprintf("Knowledge documents: %d", index.Info(context.Background())))

			case lower == "export":
				path, err := exporter.Export()
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[Export FAILED] %v", err))
					continue
				}
				if path == "" {
					listener.AsyncPrintln("[Export] No completed tasks to export yet.")
					continue
				}
				listener.AsyncPrintln(fmt.Sprintf("[Export] Dataset written to %s", path))

			default:
				taskID, err := dev.Start(trimmed)
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[Start FAILED] %v", err))
					continue
				}
				logger.Log.Printf("[cli] started task %s for %q", taskID, trimmed)
				listener.AsyncPrintln(fmt.Sprintf("[Task %s STARTED] Building in the background...", taskID))
			}
		}
	},
}

// Execute wires the collaborators into the command tree and runs it.
func Execute(a *agent.Agent, e *finetune.Exporter, ix *rag.Index) {
	dev = a
	exporter = e
	index = ix
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
