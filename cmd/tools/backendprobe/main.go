// backendprobe sends one question straight through the backend client and
// prints the answer, citations and token usage. Useful as a deployment
// smoke test without running the full bridge.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Actual-Reality/ai-master-engineer/internal/config"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/conv"
	ragservice "github.com/Actual-Reality/ai-master-engineer/internal/service/rag"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment: %v", err)
	}

	question := flag.String("question", "", "question to send to the backend")
	prior := flag.String("history", "", "optional prior turns as 'user text|assistant text|...' pairs")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")
	pingOnly := flag.Bool("ping", false, "only probe backend reachability")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	client := ragservice.NewClient(cfg.RAG, logger)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *pingOnly {
		if err := client.Ping(ctx); err != nil {
			log.Fatalf("backend unreachable at %s: %v", cfg.RAG.BaseURL, err)
		}
		log.Printf("backend reachable at %s", cfg.RAG.BaseURL)
		return
	}

	if strings.TrimSpace(*question) == "" {
		flag.Usage()
		log.Fatal("provide a question with -question")
	}

	history := parseHistory(*prior)
	log.Printf("asking backend at %s: %q (with %d prior turns)", cfg.RAG.BaseURL, *question, len(history))

	answer, err := client.Ask(ctx, history, *question)
	if err != nil {
		log.Fatalf("backend call failed: %v", err)
	}

	log.Printf("answer: %s", answer.Text)
	for i, citation := range answer.Citations {
		log.Printf("citation %d: title=%q ref=%q content_len=%d", i+1, citation.Title, citation.SourceRef, len(citation.Content))
	}
	if answer.Usage != nil {
		log.Printf("token usage: prompt=%d completion=%d", answer.Usage.PromptTokens, answer.Usage.CompletionTokens)
	}
}

// parseHistory turns 'a|b|c' into alternating user/assistant turns.
func parseHistory(raw string) conv.History {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var history conv.History
	now := time.Now().UTC()
	for i, part := range strings.Split(raw, "|") {
		role := conv.RoleUser
		if i%2 == 1 {
			role = conv.RoleAssistant
		}
		history = append(history, conv.Turn{
			Role:      role,
			Content:   strings.TrimSpace(part),
			Timestamp: now,
		})
	}
	return history
}
