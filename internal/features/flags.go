package features

import "github.com/aretw0/botsmith/pkg/domain"

// Flags is the snapshot of every detector for one set of nodes.
type Flags struct {
	InputCollection      bool
	TextInput            bool
	PhotoInput           bool
	VideoInput           bool
	AudioInput           bool
	DocumentInput        bool
	MediaNodes           bool
	AutoTransitions      bool
	ConditionalMessages  bool
	ConditionalButtons   bool
	FirstTimeConditions  bool
	InlineButtons        bool
	ReplyButtons         bool
	KeyboardRemoval      bool
	LocationFeatures     bool
	LocationRequests     bool
	MapLinks             bool
	ContactFeatures      bool
	ContactRequests      bool
	RichFormatting       bool
	UserAdminActions     bool
	MessageModeration    bool
	TimedRestrictions    bool
	Synonyms             bool
	AdminOnlyCommands    bool
	PrivateOnlyCommands  bool
	MenuCommands         bool
	VariableSubstitution bool
	ButtonEffects        bool
	GroupTargeting       bool
	Polls                bool
	Dice                 bool

	Variables []string
}

// Detect runs every detector over nodes.
func Detect(nodes []domain.Node) Flags {
	return Flags{
		InputCollection:      HasInputCollection(nodes),
		TextInput:            HasTextInput(nodes),
		PhotoInput:           HasMediaInput(nodes, domain.MediaPhoto),
		VideoInput:           HasMediaInput(nodes, domain.MediaVideo),
		AudioInput:           HasMediaInput(nodes, domain.MediaAudio),
		DocumentInput:        HasMediaInput(nodes, domain.MediaDocument),
		MediaNodes:           HasMediaNodes(nodes),
		AutoTransitions:      HasAutoTransitions(nodes),
		ConditionalMessages:  HasConditionalMessages(nodes),
		ConditionalButtons:   HasConditionalButtons(nodes),
		FirstTimeConditions:  HasFirstTimeConditions(nodes),
		InlineButtons:        HasInlineButtons(nodes),
		ReplyButtons:         HasReplyButtons(nodes),
		KeyboardRemoval:      HasKeyboardRemoval(nodes),
		LocationFeatures:     HasLocationFeatures(nodes),
		LocationRequests:     HasLocationRequests(nodes),
		MapLinks:             HasMapLinks(nodes),
		ContactFeatures:      HasContactFeatures(nodes),
		ContactRequests:      HasContactRequests(nodes),
		RichFormatting:       HasRichFormatting(nodes),
		UserAdminActions:     HasUserAdminActions(nodes),
		MessageModeration:    HasMessageModeration(nodes),
		TimedRestrictions:    HasTimedRestrictions(nodes),
		Synonyms:             HasSynonyms(nodes),
		AdminOnlyCommands:    HasAdminOnlyCommands(nodes),
		PrivateOnlyCommands:  HasPrivateOnlyCommands(nodes),
		MenuCommands:         HasMenuCommands(nodes),
		VariableSubstitution: HasVariableSubstitution(nodes),
		ButtonEffects:        HasButtonEffects(nodes),
		GroupTargeting:       HasGroupTargeting(nodes),
		Polls:                hasType(nodes, domain.NodeTypePoll),
		Dice:                 hasType(nodes, domain.NodeTypeDice),
		Variables:            CollectVariables(nodes),
	}
}

// MediaInput reports whether the flags enable input of the given kind.
func (f Flags) MediaInput(kind domain.MediaKind) bool {
	switch kind {
	case domain.MediaPhoto:
		return f.PhotoInput
	case domain.MediaVideo:
		return f.VideoInput
	case domain.MediaAudio:
		return f.AudioInput
	case domain.MediaDocument:
		return f.DocumentInput
	}
	return false
}

// AnyMediaInput reports whether any media input handler is needed.
func (f Flags) AnyMediaInput() bool {
	return f.PhotoInput || f.VideoInput || f.AudioInput || f.DocumentInput
}

// NeedsChatAdminCheck reports whether the program has to look up chat member status.
func (f Flags) NeedsChatAdminCheck() bool {
	return f.AdminOnlyCommands || f.UserAdminActions || f.MessageModeration
}
