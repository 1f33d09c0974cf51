// Package report defines the structures of a verification report.
package report

import (
	"github.com/capiscio/badgecheck/pkg/graph"
	"github.com/capiscio/badgecheck/pkg/state"
	"github.com/capiscio/badgecheck/pkg/tasks"
)

// Result is the complete output of a verification.
type Result struct {
	Graph  []graph.Node `json:"graph"`
	Input  state.Input  `json:"input"`
	Report Summary      `json:"report"`
}

// Summary is the outcome of a verification.
type Summary struct {
	ValidationSubject string              `json:"validationSubject"`
	OpenBadgesVersion string              `json:"openBadgesVersion"`
	RecipientProfile  map[string][]string `json:"recipientProfile,omitempty"`
	Messages          []Message           `json:"messages"`
	ErrorCount        int                 `json:"errorCount"`
	WarningCount      int                 `json:"warningCount"`
	Valid             bool                `json:"valid"`
}

// Message is one unsuccessful task.
type Message struct {
	Name         tasks.Name  `json:"name"`
	Success      bool        `json:"success"`
	Result       string      `json:"result"`
	MessageLevel tasks.Level `json:"messageLevel"` // "error", "warning", "info"
	NodeID       string      `json:"node_id,omitempty"`
	PropName     string      `json:"prop_name,omitempty"`
}

// AddError adds an error message to the summary.
func (s *Summary) AddError(name tasks.Name, result, nodeID, prop string) {
	s.add(name, result, tasks.LevelError, nodeID, prop)
	s.ErrorCount++
	s.Valid = false
}

// AddWarning adds a warning message to the summary.
func (s *Summary) AddWarning(name tasks.Name, result, nodeID, prop string) {
	s.add(name, result, tasks.LevelWarning, nodeID, prop)
	s.WarningCount++
}

// AddInfo adds an informational message to the summary.
func (s *Summary) AddInfo(name tasks.Name, result, nodeID, prop string) {
	s.add(name, result, tasks.LevelInfo, nodeID, prop)
}

func (s *Summary) add(name tasks.Name, result string, level tasks.Level, nodeID, prop string) {
	s.Messages = append(s.Messages, Message{
		Name:         name,
		Result:       result,
		MessageLevel: level,
		NodeID:       nodeID,
		PropName:     prop,
	})
}
