package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"saletrace/internal/analytics"
	"saletrace/internal/config"
	"saletrace/internal/eventlog"

	"github.com/rs/zerolog/log"
)

// JSONRPCRequest represents a standard JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Server exposes the analytics pipeline as tools over a Stdio JSON-RPC loop.
// Every tool call loads a fresh snapshot and runs against it, so repeated
// calls on an unchanged dataset yield identical results.
type Server struct {
	cfg *config.AppConfig
	in  io.Reader
	out io.Writer
}

// NewServer creates a server bound to os.Stdin/os.Stdout.
func NewServer(cfg *config.AppConfig) *Server {
	return &Server{cfg: cfg, in: os.Stdin, out: os.Stdout}
}

// Serve runs the request loop until EOF.
func (s *Server) Serve() error {
	reader := bufio.NewReader(s.in)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal request")
			continue
		}

		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req JSONRPCRequest) {
	var result interface{}
	var errRes interface{}

	switch req.Method {
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{},
			"serverInfo": map[string]interface{}{
				"name":    "saletrace",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, errRes = s.callTool(req.Params)
	default:
		errRes = map[string]interface{}{
			"code":    -32601,
			"message": fmt.Sprintf("Method %s not found", req.Method),
		}
	}

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   errRes,
	}

	out, _ := json.Marshal(resp)
	fmt.Fprintf(s.out, "%s\n", out)
}

type toolArgs struct {
	ClientID string `json:"client_id"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

func (s *Server) callTool(params json.RawMessage) (interface{}, interface{}) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, rpcError(-32602, fmt.Sprintf("invalid params: %v", err))
	}

	var args toolArgs
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, rpcError(-32602, fmt.Sprintf("invalid arguments: %v", err))
		}
	}

	session, err := s.newSession(args)
	if err != nil {
		// Repository failure is the one fatal condition: the whole request
		// fails, no partial results.
		return nil, rpcError(-32000, err.Error())
	}

	var payload interface{}
	switch call.Name {
	case "invoicing_delay_stats":
		payload = session.InvoicingDelay()
	case "payment_delay_stats":
		payload = session.PaymentDelay()
	case "sale_settlement_stats":
		payload = session.SaleSettlement()
	case "client_reliability":
		payload = session.ClientReliability()
	case "payment_predictions":
		if args.ClientID == "" {
			return nil, rpcError(-32602, "payment_predictions requires client_id")
		}
		payload = session.PaymentPredictions(args.ClientID)
	case "payment_trend":
		payload = session.PaymentTrend(args.ClientID)
	default:
		return nil, rpcError(-32601, fmt.Sprintf("Tool %s not found", call.Name))
	}

	text, merr := json.Marshal(payload)
	if merr != nil {
		return nil, rpcError(-32000, merr.Error())
	}

	return map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{"type": "text", "text": string(text)},
		},
	}, nil
}

func (s *Server) newSession(args toolArgs) (*analytics.Session, error) {
	repo := eventlog.NewSnapshotRepository(s.cfg.DataPath)
	snap, err := repo.Load(context.Background())
	if err != nil {
		return nil, err
	}

	filter := s.cfg.Filter
	if from, ok := parseDate(args.DateFrom); ok {
		filter.DateFrom = &from
	}
	if to, ok := parseDate(args.DateTo); ok {
		filter.DateTo = &to
	}

	return analytics.NewSession(snap, filter, s.cfg.Classification, s.cfg.Tolerance, time.Now().UTC()), nil
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func rpcError(code int, message string) interface{} {
	return map[string]interface{}{
		"code":    code,
		"message": message,
	}
}
