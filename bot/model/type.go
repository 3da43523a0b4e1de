package model

// SourceSystem identifies which front-end surface a message originated
// from, and where its response should be routed back to.
type SourceSystem string

func (s SourceSystem) String() string { return string(s) }

const (
	SourceDiscord  SourceSystem = "discord"
	SourceTelegram SourceSystem = "telegram"
	SourceTerminal SourceSystem = "terminal"
)

// Authority is the ordered permission level of a requester.
type Authority int

const (
	AuthorityUser Authority = iota
	AuthorityModerator
	AuthorityAdministrator
)

func (a Authority) String() string {
	switch a {
	case AuthorityAdministrator:
		return "administrator"
	case AuthorityModerator:
		return "moderator"
	default:
		return "user"
	}
}
