package domain

import (
	"sort"
	"strings"
)

// ConditionKind is the runtime test of a conditional message.
type ConditionKind string

const (
	CondUserDataExists    ConditionKind = "user_data_exists"
	CondUserDataNotExists ConditionKind = "user_data_not_exists"
	CondUserDataEquals    ConditionKind = "user_data_equals"
	CondUserDataContains  ConditionKind = "user_data_contains"
	CondFirstTime         ConditionKind = "first_time"
	CondReturningUser     ConditionKind = "returning_user"
)

// ConditionalMessage is a prioritized alternative message of a node.
// The lowest priority that matches at runtime wins.
type ConditionalMessage struct {
	ID            string        `json:"id" validate:"required"`
	Condition     ConditionKind `json:"condition" validate:"required,oneof=user_data_exists user_data_not_exists user_data_equals user_data_contains first_time returning_user"`
	VariableName  string        `json:"variableName,omitempty"`
	VariableNames []string      `json:"variableNames,omitempty"`
	LogicOperator string        `json:"logicOperator,omitempty" validate:"omitempty,oneof=AND OR and or"`
	ExpectedValue string        `json:"expectedValue,omitempty"`

	MessageText  string   `json:"messageText,omitempty"`
	FormatMode   string   `json:"formatMode,omitempty"`
	Markdown     bool     `json:"markdown,omitempty"`
	KeyboardType string   `json:"keyboardType,omitempty"`
	Buttons      []Button `json:"buttons,omitempty" validate:"dive"`

	CollectUserInput   bool   `json:"collectUserInput,omitempty"`
	InputVariable      string `json:"inputVariable,omitempty"`
	NextNodeAfterInput string `json:"nextNodeAfterInput,omitempty"`

	// TargetNodeID is where a condition node routes when this branch matches.
	TargetNodeID string `json:"targetNodeId,omitempty"`
	Priority     int    `json:"priority"`
}

// Variables returns the variable names the condition reads.
// VariableNames wins over the single VariableName field.
func (c *ConditionalMessage) Variables() []string {
	var out []string
	for _, v := range c.VariableNames {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		if v := strings.TrimSpace(c.VariableName); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Operator returns "and" or "or".
func (c *ConditionalMessage) Operator() string {
	if strings.EqualFold(c.LogicOperator, "OR") {
		return "or"
	}
	return "and"
}

// ParseMode returns the rich-text mode of the alternative message.
func (c *ConditionalMessage) ParseMode() string {
	return ParseModeOf(c.FormatMode, c.Markdown)
}

// Keyboard returns the effective keyboard type of the alternative message.
func (c *ConditionalMessage) Keyboard() string {
	content := Content{KeyboardType: c.KeyboardType, Buttons: c.Buttons}
	return content.Keyboard()
}

// SortedConditions returns a copy of conds ordered by ascending priority.
// Equal priorities keep their declaration order.
func SortedConditions(conds []ConditionalMessage) []ConditionalMessage {
	out := make([]ConditionalMessage, len(conds))
	copy(out, conds)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
