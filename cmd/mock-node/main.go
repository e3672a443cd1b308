// mock-node is a stand-in chain RPC endpoint for local development. It
// answers the three methods the payroll service uses: balance reads
// return MOCK_BALANCE base units, submissions return a fresh hash, and
// receipts appear after a short delay to exercise the confirmation wait.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/chainwage/payroll-api/internal/logging"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result"`
	ID      json.RawMessage `json:"id"`
}

type node struct {
	mu        sync.Mutex
	balance   string
	submitted map[string]time.Time
	mineDelay time.Duration
}

func main() {
	logging.Init("mock-node", "info", os.Getenv("APP_ENV"))

	balance := os.Getenv("MOCK_BALANCE")
	if balance == "" {
		balance = "0xde0b6b3a7640000"
	}

	n := &node{
		balance:   balance,
		submitted: make(map[string]time.Time),
		mineDelay: 3 * time.Second,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})
	mux.HandleFunc("POST /", n.handleRPC)

	slog.Info("mock node started", "addr", ":8545", "balance", balance)
	if err := http.ListenAndServe(":8545", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (n *node) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	var result any
	switch req.Method {
	case "eth_call":
		n.mu.Lock()
		result = n.balance
		n.mu.Unlock()
	case "eth_sendTransaction":
		hash := newTxHash()
		n.mu.Lock()
		n.submitted[hash] = time.Now()
		n.mu.Unlock()
		slog.Info("transaction accepted", "tx_hash", hash)
		result = hash
	case "eth_getTransactionReceipt":
		var params []string
		_ = json.Unmarshal(req.Params, &params)
		if len(params) == 1 {
			result = n.receiptFor(params[0])
		}
	default:
		slog.Warn("unhandled method", "method", req.Method)
	}

	resp := rpcResponse{JSONRPC: "2.0", Result: result, ID: req.ID}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to write rpc response", "error", err)
	}
}

func (n *node) receiptFor(hash string) any {
	n.mu.Lock()
	submittedAt, ok := n.submitted[hash]
	n.mu.Unlock()

	if !ok || time.Since(submittedAt) < n.mineDelay {
		return nil
	}

	return map[string]string{
		"transactionHash": hash,
		"blockNumber":     "0x10",
		"status":          "0x1",
		"gasUsed":         "0x2dc6c0",
	}
}

func newTxHash() string {
	raw := make([]byte, 32)
	_, _ = rand.Read(raw)
	return "0x" + hex.EncodeToString(raw)
}
