//go:build ignore

// Walks a running API through document ingestion, a grounded completion and
// a regenerated reply. Usage: API_TOKEN=<jwt> go run scripts/smoke_api.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var (
	baseURL = getEnv("API_BASE_URL", "http://localhost:3000/api")
	token   = os.Getenv("API_TOKEN")
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pretty print JSON helper
func prettyPrint(raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

func sendRequest(method, path string, body interface{}, out interface{}) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		fail(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || !env.Success {
		fail(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(raw)))
	}

	color.Green("Status: %s", resp.Status)
	prettyPrint(env.Data)
	if out != nil {
		_ = json.Unmarshal(env.Data, out)
	}
}

func fail(err error) {
	color.Red("Failed: %v", err)
	os.Exit(1)
}

func main() {
	if token == "" {
		fail(fmt.Errorf("API_TOKEN is not set"))
	}
	color.Cyan("Starting RAG chat API smoke test against %s\n", baseURL)

	color.Yellow("\n1. Add a document")
	var doc struct {
		Id string `json:"id"`
	}
	sendRequest("POST", "/documents", map[string]interface{}{
		"title":   "Onboarding Handbook",
		"content": "New engineers receive a laptop and a badge on their first day. The onboarding checklist covers security training and repository access.",
	}, &doc)

	color.Yellow("\n2. Search")
	sendRequest("POST", "/rag/search", map[string]interface{}{"query": "what do new engineers receive", "limit": 3}, nil)

	color.Yellow("\n3. Create chat and ask")
	var chat struct {
		Id string `json:"id"`
	}
	sendRequest("POST", "/chats", map[string]interface{}{"title": "New Chat"}, &chat)

	var completion struct {
		Reply struct {
			Id string `json:"id"`
		} `json:"reply"`
	}
	sendRequest("POST", "/chats/"+chat.Id+"/completions", map[string]interface{}{
		"content": "According to the handbook, what do new engineers receive?",
	}, &completion)

	color.Yellow("\n4. Regenerate the reply")
	sendRequest("POST", "/messages/"+completion.Reply.Id+"/regenerate", nil, nil)

	color.Yellow("\n5. Message tree")
	sendRequest("GET", "/chats/"+chat.Id+"/messages?format=tree", nil, nil)

	color.Yellow("\n6. Cleanup")
	sendRequest("DELETE", "/chats/"+chat.Id, nil, nil)
	sendRequest("DELETE", "/documents/"+doc.Id, nil, nil)

	color.Green("\nSmoke test finished")
}
