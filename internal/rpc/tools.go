package rpc

func (s *Server) listTools() interface{} {
	dateProps := map[string]interface{}{
		"date_from": map[string]interface{}{"type": "string", "description": "Inclusive lower bound on the sale anchor date (YYYY-MM-DD)"},
		"date_to":   map[string]interface{}{"type": "string", "description": "Inclusive upper bound on the sale anchor date (YYYY-MM-DD)"},
	}

	withClient := map[string]interface{}{
		"client_id": map[string]interface{}{"type": "string", "description": "Client to analyze"},
		"date_from": dateProps["date_from"],
		"date_to":   dateProps["date_to"],
	}

	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name": "invoicing_delay_stats",
				"description": "Elapsed-time statistics from a sale reaching ready-to-invoice to its first invoice being issued. " +
					"Returns count, mean, median, population stddev and percentiles 25/75/90, plus exclusion diagnostics (missing milestones, negative intervals).",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": dateProps,
				},
			},
			map[string]interface{}{
				"name": "payment_delay_stats",
				"description": "Elapsed-time statistics from invoice issuance to full settlement. Settlement is detected by accumulating partial payments " +
					"until the invoice value is reached within the configured tolerance.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": dateProps,
				},
			},
			map[string]interface{}{
				"name": "sale_settlement_stats",
				"description": "Elapsed-time statistics from ready-to-invoice to the whole sale being paid, pooling the payments of all its invoices " +
					"against the sale's final value.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": dateProps,
				},
			},
			map[string]interface{}{
				"name": "client_reliability",
				"description": "Per-client payment reliability classification (excellent/good/regular/risk/high_risk) from percent of invoices paid, " +
					"mean payment delay and critically overdue count, with recommended commercial actions.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": dateProps,
				},
			},
			map[string]interface{}{
				"name": "payment_predictions",
				"description": "Projected payment dates (optimistic/probable/conservative/pessimistic) for a client's pending invoices, anchored on the " +
					"client's historical delay distribution. Requires at least 2 settled invoices; reports 'insufficient history' otherwise.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": withClient,
					"required":   []string{"client_id"},
				},
			},
			map[string]interface{}{
				"name": "payment_trend",
				"description": "Whether payment delays are improving, stable or worsening over time, for one client or the whole scope. " +
					"Requires at least 3 settled invoices; reports 'insufficient_data' otherwise.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": withClient,
				},
			},
		},
	}
}
