package domain

import (
	"fmt"
	"strings"
)

// NodeData is the closed sum type of node configurations.
// Every concrete type lives in this package; the marker method keeps it closed.
type NodeData interface {
	nodeData()
}

// Trigger describes how a user reaches a node without a button.
type Trigger struct {
	Command       string   `json:"command,omitempty"`
	Description   string   `json:"description,omitempty"`
	ShowInMenu    bool     `json:"showInMenu,omitempty"`
	AdminOnly     bool     `json:"adminOnly,omitempty"`
	IsPrivateOnly bool     `json:"isPrivateOnly,omitempty"`
	Synonyms      []string `json:"synonyms,omitempty"`
	TargetGroupID string   `json:"targetGroupId,omitempty"`
}

func (t *Trigger) trigger() *Trigger { return t }

// CommandName returns the command without the leading slash, lower-cased.
func (t *Trigger) CommandName() string {
	return NormalizeCommand(t.Command)
}

// NormalizeCommand strips a leading "/" and any "@botname" suffix.
func NormalizeCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	cmd = strings.TrimPrefix(cmd, "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if i := strings.IndexAny(cmd, " \t"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// Keyboard types.
const (
	KeyboardNone   = "none"
	KeyboardInline = "inline"
	KeyboardReply  = "reply"
)

// Content is the message a node shows, with its keyboard.
type Content struct {
	MessageText     string   `json:"messageText,omitempty"`
	FormatMode      string   `json:"formatMode,omitempty"`
	Markdown        bool     `json:"markdown,omitempty"`
	KeyboardType    string   `json:"keyboardType,omitempty" validate:"omitempty,oneof=none inline reply"`
	Buttons         []Button `json:"buttons,omitempty" validate:"dive"`
	OneTimeKeyboard bool     `json:"oneTimeKeyboard,omitempty"`
	ResizeKeyboard  *bool    `json:"resizeKeyboard,omitempty"`
	RemoveKeyboard  bool     `json:"removeKeyboard,omitempty"`
}

func (c *Content) content() *Content { return c }

// Keyboard returns the effective keyboard type.
// Buttons without an explicit type default to an inline keyboard.
func (c *Content) Keyboard() string {
	kt := strings.ToLower(strings.TrimSpace(c.KeyboardType))
	switch kt {
	case KeyboardInline, KeyboardReply:
		if len(c.Buttons) == 0 {
			return KeyboardNone
		}
		return kt
	case KeyboardNone:
		return KeyboardNone
	}
	if len(c.Buttons) > 0 {
		return KeyboardInline
	}
	return KeyboardNone
}

// ParseMode returns "html", "markdown" or "" for plain text.
func (c *Content) ParseMode() string {
	return ParseModeOf(c.FormatMode, c.Markdown)
}

// ParseModeOf resolves the rich-text mode from the editor fields, case-insensitively.
func ParseModeOf(formatMode string, markdown bool) string {
	switch strings.ToLower(strings.TrimSpace(formatMode)) {
	case "html":
		return "html"
	case "markdown", "markdownv2":
		return "markdown"
	}
	if markdown {
		return "markdown"
	}
	return ""
}

// Flow holds the automatic progression to another node.
type Flow struct {
	EnableAutoTransition bool   `json:"enableAutoTransition,omitempty"`
	AutoTransitionTo     string `json:"autoTransitionTo,omitempty"`
}

func (f *Flow) flow() *Flow { return f }

// AutoTarget returns the auto-transition target, or "" when disabled.
func (f *Flow) AutoTarget() string {
	if !f.EnableAutoTransition {
		return ""
	}
	return strings.TrimSpace(f.AutoTransitionTo)
}

// Input validation kinds for collected text.
const (
	InputText   = "text"
	InputNumber = "number"
	InputEmail  = "email"
	InputPhone  = "phone"
)

// MediaKind names the kinds of media a node can wait for.
type MediaKind string

// Media kinds a user can send back.
const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// MediaKinds lists the collectable media kinds in a stable order.
func MediaKinds() []MediaKind {
	return []MediaKind{MediaPhoto, MediaVideo, MediaAudio, MediaDocument}
}

// InputSpec configures what the node waits for after it is shown.
type InputSpec struct {
	CollectUserInput      bool   `json:"collectUserInput,omitempty"`
	EnableTextInput       bool   `json:"enableTextInput,omitempty"`
	EnablePhotoInput      bool   `json:"enablePhotoInput,omitempty"`
	EnableVideoInput      bool   `json:"enableVideoInput,omitempty"`
	EnableAudioInput      bool   `json:"enableAudioInput,omitempty"`
	EnableDocumentInput   bool   `json:"enableDocumentInput,omitempty"`
	InputVariable         string `json:"inputVariable,omitempty"`
	PhotoInputVariable    string `json:"photoInputVariable,omitempty"`
	VideoInputVariable    string `json:"videoInputVariable,omitempty"`
	AudioInputVariable    string `json:"audioInputVariable,omitempty"`
	DocumentInputVariable string `json:"documentInputVariable,omitempty"`
	InputType             string `json:"inputType,omitempty" validate:"omitempty,oneof=text number email phone any"`
	MinLength             int    `json:"minLength,omitempty" validate:"gte=0"`
	MaxLength             int    `json:"maxLength,omitempty" validate:"gte=0"`
	NextNodeAfterInput    string `json:"nextNodeAfterInput,omitempty"`
	SaveToDatabase        *bool  `json:"saveToDatabase,omitempty"`
}

func (in *InputSpec) input() *InputSpec { return in }

// WantsText reports whether the node waits for a free-text answer.
// collectUserInput without any media flag implies text.
func (in *InputSpec) WantsText() bool {
	if in.EnableTextInput {
		return true
	}
	return in.CollectUserInput && !in.wantsAnyMedia()
}

// WantsMedia reports whether the node waits for the given media kind.
func (in *InputSpec) WantsMedia(kind MediaKind) bool {
	switch kind {
	case MediaPhoto:
		return in.EnablePhotoInput
	case MediaVideo:
		return in.EnableVideoInput
	case MediaAudio:
		return in.EnableAudioInput
	case MediaDocument:
		return in.EnableDocumentInput
	}
	return false
}

func (in *InputSpec) wantsAnyMedia() bool {
	for _, k := range MediaKinds() {
		if in.WantsMedia(k) {
			return true
		}
	}
	return false
}

// Active reports whether the node waits for any input at all.
func (in *InputSpec) Active() bool {
	return in.WantsText() || in.wantsAnyMedia()
}

// TextVariable is the variable the text answer is saved to.
func (in *InputSpec) TextVariable(nodeID string) string {
	if v := strings.TrimSpace(in.InputVariable); v != "" {
		return v
	}
	return "response_" + nodeID
}

// MediaVariable is the variable the file id of kind is saved to.
func (in *InputSpec) MediaVariable(nodeID string, kind MediaKind) string {
	var v string
	switch kind {
	case MediaPhoto:
		v = in.PhotoInputVariable
	case MediaVideo:
		v = in.VideoInputVariable
	case MediaAudio:
		v = in.AudioInputVariable
	case MediaDocument:
		v = in.DocumentInputVariable
	}
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return in.TextVariable(nodeID) + "_" + string(kind)
}

// Persist reports whether collected answers are written to the user database.
func (in *InputSpec) Persist() bool {
	return in.SaveToDatabase == nil || *in.SaveToDatabase
}

// Validation returns the effective text validation kind.
func (in *InputSpec) Validation() string {
	switch strings.ToLower(in.InputType) {
	case InputNumber, InputEmail, InputPhone:
		return strings.ToLower(in.InputType)
	}
	return InputText
}

// Conditions holds the prioritized alternative messages of a node.
type Conditions struct {
	EnableConditionalMessages bool                 `json:"enableConditionalMessages,omitempty"`
	ConditionalMessages       []ConditionalMessage `json:"conditionalMessages,omitempty" validate:"dive"`
}

func (c *Conditions) conditions() *Conditions { return c }

// Active returns the conditions sorted by priority, or nil when disabled.
func (c *Conditions) Active() []ConditionalMessage {
	if !c.EnableConditionalMessages || len(c.ConditionalMessages) == 0 {
		return nil
	}
	return SortedConditions(c.ConditionalMessages)
}

// CommandData configures start and command nodes.
type CommandData struct {
	Trigger    `mapstructure:",squash"`
	Content    `mapstructure:",squash"`
	Flow       `mapstructure:",squash"`
	InputSpec  `mapstructure:",squash"`
	Conditions `mapstructure:",squash"`
}

// MessageData configures message and keyboard nodes.
type MessageData struct {
	Trigger    `mapstructure:",squash"`
	Content    `mapstructure:",squash"`
	Flow       `mapstructure:",squash"`
	InputSpec  `mapstructure:",squash"`
	Conditions `mapstructure:",squash"`
}

// MediaData configures nodes that send a file.
type MediaData struct {
	Trigger   `mapstructure:",squash"`
	Content   `mapstructure:",squash"`
	Flow      `mapstructure:",squash"`
	InputSpec `mapstructure:",squash"`

	ImageURL     string `json:"imageUrl,omitempty"`
	VideoURL     string `json:"videoUrl,omitempty"`
	AudioURL     string `json:"audioUrl,omitempty"`
	DocumentURL  string `json:"documentUrl,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
	AnimationURL string `json:"animationUrl,omitempty"`
	StickerURL   string `json:"stickerUrl,omitempty"`
	VoiceURL     string `json:"voiceUrl,omitempty"`
	FileID       string `json:"fileId,omitempty"`
}

// Source returns the URL or Telegram file id sent for a node of type t.
func (m *MediaData) Source(t NodeType) string {
	if m.FileID != "" {
		return m.FileID
	}
	switch t {
	case NodeTypePhoto:
		return m.ImageURL
	case NodeTypeVideo:
		return m.VideoURL
	case NodeTypeAudio:
		return m.AudioURL
	case NodeTypeDocument:
		return m.DocumentURL
	case NodeTypeAnimation:
		return m.AnimationURL
	case NodeTypeSticker:
		return m.StickerURL
	case NodeTypeVoice:
		return m.VoiceURL
	}
	return ""
}

// ConditionData configures a silent branching node.
// Branches are conditional messages whose TargetNodeID is taken on match;
// the Flow auto-transition is the default branch.
type ConditionData struct {
	Flow       `mapstructure:",squash"`
	Conditions `mapstructure:",squash"`
}

// InputData configures a prompt that waits for a user answer.
type InputData struct {
	Trigger   `mapstructure:",squash"`
	Content   `mapstructure:",squash"`
	InputSpec `mapstructure:",squash"`

	InputPrompt string `json:"inputPrompt,omitempty"`
	RetryText   string `json:"inputRetryMessage,omitempty"`
}

// PollData configures a Telegram poll.
type PollData struct {
	Trigger `mapstructure:",squash"`
	Flow    `mapstructure:",squash"`

	Question              string   `json:"question"`
	Options               []string `json:"options"`
	IsAnonymous           *bool    `json:"isAnonymous,omitempty"`
	AllowsMultipleAnswers bool     `json:"allowsMultipleAnswers,omitempty"`
}

// DiceData configures an animated dice roll.
type DiceData struct {
	Trigger `mapstructure:",squash"`
	Flow    `mapstructure:",squash"`

	Emoji string `json:"emoji,omitempty"`
}

// LocationData configures a location or venue message.
type LocationData struct {
	Trigger `mapstructure:",squash"`
	Content `mapstructure:",squash"`
	Flow    `mapstructure:",squash"`

	Latitude   float64 `json:"latitude,omitempty" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude,omitempty" validate:"gte=-180,lte=180"`
	Title      string  `json:"title,omitempty"`
	Address    string  `json:"address,omitempty"`
	MapURL     string  `json:"mapUrl,omitempty"`
	MapService string  `json:"mapService,omitempty"`
}

// ContactData configures a contact card or a contact request.
type ContactData struct {
	Trigger   `mapstructure:",squash"`
	Content   `mapstructure:",squash"`
	Flow      `mapstructure:",squash"`
	InputSpec `mapstructure:",squash"`

	PhoneNumber    string `json:"phoneNumber,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	RequestContact bool   `json:"requestContact,omitempty"`
	RequestText    string `json:"requestButtonText,omitempty"`
}

// ModerationData configures pin, unpin and delete message nodes.
type ModerationData struct {
	Trigger `mapstructure:",squash"`

	DisableNotification bool   `json:"disableNotification,omitempty"`
	UnpinAll            bool   `json:"unpinAll,omitempty"`
	SuccessText         string `json:"successMessage,omitempty"`
}

// AdminRights is the set of rights granted by promote and admin_rights nodes.
type AdminRights struct {
	CanManageChat       bool `json:"canManageChat,omitempty"`
	CanChangeInfo       bool `json:"canChangeInfo,omitempty"`
	CanDeleteMessages   bool `json:"canDeleteMessages,omitempty"`
	CanRestrictMembers  bool `json:"canRestrictMembers,omitempty"`
	CanInviteUsers      bool `json:"canInviteUsers,omitempty"`
	CanPinMessages      bool `json:"canPinMessages,omitempty"`
	CanManageVideoChats bool `json:"canManageVideoChats,omitempty"`
	CanPromoteMembers   bool `json:"canPromoteMembers,omitempty"`
	IsAnonymous         bool `json:"isAnonymous,omitempty"`
}

// UserAdminData configures ban/unban/mute/unmute/kick/promote/demote/admin_rights nodes.
type UserAdminData struct {
	Trigger `mapstructure:",squash"`

	// Duration is the restriction length in seconds; 0 means permanent.
	Duration       int         `json:"duration,omitempty" validate:"gte=0"`
	Reason         string      `json:"reason,omitempty"`
	RevokeMessages bool        `json:"revokeMessages,omitempty"`
	Rights         AdminRights `json:"rights,omitempty"`
	SuccessText    string      `json:"successMessage,omitempty"`
}

func (*CommandData) nodeData()    {}
func (*MessageData) nodeData()    {}
func (*MediaData) nodeData()      {}
func (*ConditionData) nodeData()  {}
func (*InputData) nodeData()      {}
func (*PollData) nodeData()       {}
func (*DiceData) nodeData()       {}
func (*LocationData) nodeData()   {}
func (*ContactData) nodeData()    {}
func (*ModerationData) nodeData() {}
func (*UserAdminData) nodeData()  {}

// NewData returns an empty configuration struct for the node type.
func NewData(t NodeType) (NodeData, error) {
	switch t {
	case NodeTypeStart, NodeTypeCommand:
		return &CommandData{}, nil
	case NodeTypeMessage, NodeTypeKeyboard:
		return &MessageData{}, nil
	case NodeTypePhoto, NodeTypeVideo, NodeTypeAudio, NodeTypeDocument,
		NodeTypeAnimation, NodeTypeSticker, NodeTypeVoice:
		return &MediaData{}, nil
	case NodeTypeCondition:
		return &ConditionData{}, nil
	case NodeTypeInput:
		return &InputData{}, nil
	case NodeTypePoll:
		return &PollData{}, nil
	case NodeTypeDice:
		return &DiceData{}, nil
	case NodeTypeLocation:
		return &LocationData{}, nil
	case NodeTypeContact:
		return &ContactData{}, nil
	case NodeTypePinMessage, NodeTypeUnpinMessage, NodeTypeDeleteMessage:
		return &ModerationData{}, nil
	case NodeTypeBanUser, NodeTypeUnbanUser, NodeTypeMuteUser, NodeTypeUnmuteUser,
		NodeTypeKickUser, NodeTypePromoteUser, NodeTypeDemoteUser, NodeTypeAdminRights:
		return &UserAdminData{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
}

type triggerCarrier interface{ trigger() *Trigger }
type contentCarrier interface{ content() *Content }
type flowCarrier interface{ flow() *Flow }
type inputCarrier interface{ input() *InputSpec }
type conditionsCarrier interface{ conditions() *Conditions }

// TriggerOf returns the node's trigger settings, or nil.
func TriggerOf(n *Node) *Trigger {
	if c, ok := n.Data.(triggerCarrier); ok {
		return c.trigger()
	}
	return nil
}

// ContentOf returns the node's message content, or nil.
func ContentOf(n *Node) *Content {
	if c, ok := n.Data.(contentCarrier); ok {
		return c.content()
	}
	return nil
}

// FlowOf returns the node's auto-transition settings, or nil.
func FlowOf(n *Node) *Flow {
	if c, ok := n.Data.(flowCarrier); ok {
		return c.flow()
	}
	return nil
}

// InputOf returns the node's input collection settings, or nil.
func InputOf(n *Node) *InputSpec {
	switch d := n.Data.(type) {
	case *InputData:
		// input nodes always wait for an answer
		spec := d.InputSpec
		if !spec.Active() {
			spec.CollectUserInput = true
		}
		return &spec
	case inputCarrier:
		return d.input()
	}
	return nil
}

// ConditionsOf returns the node's conditional messages, or nil.
func ConditionsOf(n *Node) *Conditions {
	if c, ok := n.Data.(conditionsCarrier); ok {
		return c.conditions()
	}
	return nil
}
