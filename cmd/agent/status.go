package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/provider-sync/internal/provider"
)

var statusURL string

type agentState struct {
	Online      bool         `json:"online"`
	QueueLength int          `json:"queue_length"`
	Breaker     string       `json:"breaker"`
	KPI         provider.KPI `json:"kpi"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the running agent's connectivity and queue length",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusURL == "" {
			statusURL = "http://127.0.0.1:" + loadConfig().Port
		}
		client := &http.Client{Timeout: 5 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, statusURL+"/v1/state", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("agent not reachable at %s: %w", statusURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("agent answered %s", resp.Status)
		}
		var st agentState
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return err
		}
		printState(cmd, st)
		return nil
	},
}

func printState(cmd *cobra.Command, st agentState) {
	mode := "offline"
	if st.Online {
		mode = "online"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mode:      %s\n", mode)
	fmt.Fprintf(out, "queued:    %d\n", st.QueueLength)
	if st.Breaker != "" {
		fmt.Fprintf(out, "backend:   %s\n", st.Breaker)
	}
	fmt.Fprintf(out, "check-ins: %d  feedback: %d  published: %d\n",
		st.KPI.CheckIns, st.KPI.FeedbackSaved, st.KPI.SlotsPublished)
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "agent base URL (default http://127.0.0.1:AGENT_PORT)")
}
