package domain

import "fmt"

// NodeType is the closed set of node tags the editor can produce.
type NodeType string

// Entry and content nodes.
const (
	NodeTypeStart    NodeType = "start"
	NodeTypeCommand  NodeType = "command"
	NodeTypeMessage  NodeType = "message"
	NodeTypeKeyboard NodeType = "keyboard"
)

// Media nodes send a file (and optionally a caption with a keyboard).
const (
	NodeTypePhoto     NodeType = "photo"
	NodeTypeVideo     NodeType = "video"
	NodeTypeAudio     NodeType = "audio"
	NodeTypeDocument  NodeType = "document"
	NodeTypeAnimation NodeType = "animation"
	NodeTypeSticker   NodeType = "sticker"
	NodeTypeVoice     NodeType = "voice"
)

// Flow control and interactive nodes.
const (
	NodeTypeCondition NodeType = "condition"
	NodeTypeInput     NodeType = "input"
	NodeTypePoll      NodeType = "poll"
	NodeTypeDice      NodeType = "dice"
	NodeTypeLocation  NodeType = "location"
	NodeTypeContact   NodeType = "contact"
)

// Group moderation nodes acting on messages.
const (
	NodeTypePinMessage    NodeType = "pin_message"
	NodeTypeUnpinMessage  NodeType = "unpin_message"
	NodeTypeDeleteMessage NodeType = "delete_message"
)

// Group administration nodes acting on users.
const (
	NodeTypeBanUser     NodeType = "ban_user"
	NodeTypeUnbanUser   NodeType = "unban_user"
	NodeTypeMuteUser    NodeType = "mute_user"
	NodeTypeUnmuteUser  NodeType = "unmute_user"
	NodeTypeKickUser    NodeType = "kick_user"
	NodeTypePromoteUser NodeType = "promote_user"
	NodeTypeDemoteUser  NodeType = "demote_user"
	NodeTypeAdminRights NodeType = "admin_rights"
)

var allNodeTypes = []NodeType{
	NodeTypeStart, NodeTypeCommand, NodeTypeMessage, NodeTypeKeyboard,
	NodeTypePhoto, NodeTypeVideo, NodeTypeAudio, NodeTypeDocument,
	NodeTypeAnimation, NodeTypeSticker, NodeTypeVoice,
	NodeTypeCondition, NodeTypeInput, NodeTypePoll, NodeTypeDice,
	NodeTypeLocation, NodeTypeContact,
	NodeTypePinMessage, NodeTypeUnpinMessage, NodeTypeDeleteMessage,
	NodeTypeBanUser, NodeTypeUnbanUser, NodeTypeMuteUser, NodeTypeUnmuteUser,
	NodeTypeKickUser, NodeTypePromoteUser, NodeTypeDemoteUser, NodeTypeAdminRights,
}

// AllNodeTypes returns every known node type in a stable order.
func AllNodeTypes() []NodeType {
	out := make([]NodeType, len(allNodeTypes))
	copy(out, allNodeTypes)
	return out
}

// Valid reports whether t belongs to the closed tag set.
func (t NodeType) Valid() bool {
	for _, known := range allNodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMedia reports whether the node sends a media file as its content.
func (t NodeType) IsMedia() bool {
	switch t {
	case NodeTypePhoto, NodeTypeVideo, NodeTypeAudio, NodeTypeDocument,
		NodeTypeAnimation, NodeTypeSticker, NodeTypeVoice:
		return true
	}
	return false
}

// IsUserAdmin reports whether the node changes a chat member's status or rights.
func (t NodeType) IsUserAdmin() bool {
	switch t {
	case NodeTypeBanUser, NodeTypeUnbanUser, NodeTypeMuteUser, NodeTypeUnmuteUser,
		NodeTypeKickUser, NodeTypePromoteUser, NodeTypeDemoteUser, NodeTypeAdminRights:
		return true
	}
	return false
}

// IsModeration reports whether the node acts on a chat message (pin/unpin/delete).
func (t NodeType) IsModeration() bool {
	switch t {
	case NodeTypePinMessage, NodeTypeUnpinMessage, NodeTypeDeleteMessage:
		return true
	}
	return false
}

// Navigable reports whether the node renders a screen a user can be sent to.
// Administrative nodes only react to commands inside a group.
func (t NodeType) Navigable() bool {
	return !t.IsUserAdmin() && !t.IsModeration()
}

// Position is the editor canvas coordinate. The compiler ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents a logical unit in the bot graph.
type Node struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Type     NodeType `json:"type" yaml:"type" validate:"required"`
	Position Position `json:"position" yaml:"position"`

	// Data is the typed configuration for Type. It is nil when DecodeErr is set.
	Data NodeData `json:"data" yaml:"data"`

	// DecodeErr records why the raw data bag could not be decoded.
	// Such nodes are still part of the graph so emission can report them in place.
	DecodeErr error `json:"-" yaml:"-"`
}

// String implements fmt.Stringer.
func (n Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Type, n.ID)
}
