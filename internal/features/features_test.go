package features

import (
	"testing"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func node(id string, t domain.NodeType, data domain.NodeData) domain.Node {
	return domain.Node{ID: id, Type: t, Data: data}
}

func TestDetectors_EmptyInput(t *testing.T) {
	detectors := map[string]Detector{
		"InputCollection":     HasInputCollection,
		"TextInput":           HasTextInput,
		"PhotoInput":          HasPhotoInput,
		"MediaNodes":          HasMediaNodes,
		"AutoTransitions":     HasAutoTransitions,
		"ConditionalMessages": HasConditionalMessages,
		"ConditionalButtons":  HasConditionalButtons,
		"InlineButtons":       HasInlineButtons,
		"ReplyButtons":        HasReplyButtons,
		"LocationFeatures":    HasLocationFeatures,
		"ContactFeatures":     HasContactFeatures,
		"RichFormatting":      HasRichFormatting,
		"UserAdminActions":    HasUserAdminActions,
		"Synonyms":            HasSynonyms,
		"ButtonEffects":       HasButtonEffects,
	}
	for name, d := range detectors {
		assert.False(t, d(nil), name)
		assert.False(t, d([]domain.Node{}), name)
	}
	assert.Empty(t, CollectVariables(nil))
	assert.Equal(t, Flags{Variables: []string{}}, Detect(nil))
}

func TestHasRichFormatting(t *testing.T) {
	tests := []struct {
		name string
		node domain.Node
		want bool
	}{
		{"plain", node("a", domain.NodeTypeMessage, &domain.MessageData{Content: domain.Content{MessageText: "x"}}), false},
		{"html upper", node("a", domain.NodeTypeMessage, &domain.MessageData{Content: domain.Content{FormatMode: "HTML"}}), true},
		{"markdown flag", node("a", domain.NodeTypeMessage, &domain.MessageData{Content: domain.Content{Markdown: true}}), true},
		{"conditional markdown", node("a", domain.NodeTypeMessage, &domain.MessageData{Conditions: domain.Conditions{
			EnableConditionalMessages: true,
			ConditionalMessages:       []domain.ConditionalMessage{{ID: "c", FormatMode: "MarkDown"}},
		}}), true},
		{"disabled conditional", node("a", domain.NodeTypeMessage, &domain.MessageData{Conditions: domain.Conditions{
			ConditionalMessages: []domain.ConditionalMessage{{ID: "c", FormatMode: "html"}},
		}}), false},
		{"broken node ignored", domain.Node{ID: "x", Type: domain.NodeTypeMessage, DecodeErr: domain.ErrMalformedData}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRichFormatting([]domain.Node{tt.node}))
		})
	}
}

func TestInputDetectors(t *testing.T) {
	nodes := []domain.Node{
		node("photo", domain.NodeTypeMessage, &domain.MessageData{InputSpec: domain.InputSpec{EnablePhotoInput: true}}),
		node("ask", domain.NodeTypeInput, &domain.InputData{}),
	}
	assert.True(t, HasInputCollection(nodes))
	assert.True(t, HasPhotoInput(nodes))
	assert.True(t, HasTextInput(nodes), "input nodes wait for text by default")
	assert.False(t, HasMediaInput(nodes, domain.MediaVideo))

	flags := Detect(nodes)
	assert.True(t, flags.AnyMediaInput())
	assert.True(t, flags.MediaInput(domain.MediaPhoto))
	assert.Equal(t, []string{"response_ask", "response_photo_photo"}, flags.Variables)
}

func TestKeyboardDetectors(t *testing.T) {
	inline := node("a", domain.NodeTypeMessage, &domain.MessageData{Content: domain.Content{
		Buttons: []domain.Button{{Text: "Go", Target: "b", HideAfterClick: true}},
	}})
	reply := node("b", domain.NodeTypeMessage, &domain.MessageData{Content: domain.Content{
		KeyboardType: "reply",
		Buttons:      []domain.Button{{Text: "Where", Action: domain.ActionLocation}},
	}})

	assert.True(t, HasInlineButtons([]domain.Node{inline}))
	assert.False(t, HasReplyButtons([]domain.Node{inline}))
	assert.True(t, HasReplyButtons([]domain.Node{reply}))
	assert.True(t, HasLocationFeatures([]domain.Node{reply}))
	assert.True(t, HasLocationRequests([]domain.Node{reply}))
	assert.True(t, HasButtonEffects([]domain.Node{inline}))
	assert.False(t, HasButtonEffects([]domain.Node{reply}))
}

func TestAdminDetectors(t *testing.T) {
	nodes := []domain.Node{
		node("mute", domain.NodeTypeMuteUser, &domain.UserAdminData{
			Duration: 3600,
			Trigger:  domain.Trigger{Synonyms: []string{" ", "silence"}, TargetGroupID: "-100"},
		}),
	}
	assert.True(t, HasUserAdminActions(nodes))
	assert.True(t, HasTimedRestrictions(nodes))
	assert.True(t, HasSynonyms(nodes))
	assert.True(t, HasGroupTargeting(nodes))
	assert.False(t, HasMessageModeration(nodes))
	assert.True(t, Detect(nodes).NeedsChatAdminCheck())
	assert.Equal(t, []string{"silence"}, Synonyms(domain.TriggerOf(&nodes[0])))
}

func TestCollectVariables(t *testing.T) {
	nodes := []domain.Node{
		node("a", domain.NodeTypeMessage, &domain.MessageData{
			Content: domain.Content{
				MessageText: "Hello {name}, you are {age}",
				Buttons: []domain.Button{
					{Text: "VIP", Action: domain.ActionSetVariable, Variable: "tier", Value: "vip"},
				},
			},
			Conditions: domain.Conditions{
				EnableConditionalMessages: true,
				ConditionalMessages: []domain.ConditionalMessage{
					{ID: "c", Condition: domain.CondUserDataExists, VariableNames: []string{"email"}},
				},
			},
		}),
	}
	assert.Equal(t, []string{"age", "email", "name", "tier"}, CollectVariables(nodes))
	assert.True(t, HasVariableSubstitution(nodes))
	assert.Equal(t, []string{"name", "age"}, Placeholders("Hello {name}, you are {age} {name}"))
}

func TestMenuAndGates(t *testing.T) {
	nodes := []domain.Node{
		node("help", domain.NodeTypeCommand, &domain.CommandData{Trigger: domain.Trigger{
			Command: "/help", ShowInMenu: true, AdminOnly: true, IsPrivateOnly: true,
		}}),
	}
	assert.True(t, HasMenuCommands(nodes))
	assert.True(t, HasAdminOnlyCommands(nodes))
	assert.True(t, HasPrivateOnlyCommands(nodes))
}
