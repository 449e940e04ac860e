package main

import (
	"log"
	"net/http"

	httpadapter "github.com/mstefarov/ragchat/internal/adapters/http"
	"github.com/mstefarov/ragchat/internal/adapters/rag"
	memstore "github.com/mstefarov/ragchat/internal/adapters/storage/memory"
	"github.com/mstefarov/ragchat/internal/app/chat"
	"github.com/mstefarov/ragchat/internal/config"
	"github.com/mstefarov/ragchat/internal/domain"
)

func main() {
	cfg := config.Load()

	// Answering service: real RAG backend or local mock (useful for dev)
	var answers domain.AnswerClient
	if cfg.UseMockRAG {
		log.Println("[RAG] Using MOCK answering client")
		answers = rag.NewMockClient()
	} else {
		log.Printf("[RAG] Using answering service at %s", cfg.RAGBaseURL)
		answers = rag.NewClient(cfg.RAGBaseURL, cfg.RAGTimeout)
	}

	// State is memory-resident for the life of the process.
	store := memstore.NewChatStore()
	notifier := chat.NewNotifier()

	svc := chat.NewService(store, answers, notifier, domain.UserID(cfg.UserID))

	handler := httpadapter.NewServer(svc, notifier)

	addr := ":" + cfg.Port
	log.Println("ragchat API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
