package login

import "strings"

// State is the classification of the page the login flow is currently on,
// derived purely from the URL on every poll tick.
type State int

const (
	StateUnclassified State = iota
	StateAtlassianUsername
	StateAtlassianAccountChooser
	StateMicrosoftUsername
	StateMicrosoftPassword
	StateMicrosoftMFAWait
)

func (s State) String() string {
	switch s {
	case StateAtlassianUsername:
		return "atlassian_username"
	case StateAtlassianAccountChooser:
		return "atlassian_account_chooser"
	case StateMicrosoftUsername:
		return "microsoft_username"
	case StateMicrosoftPassword:
		return "microsoft_password"
	case StateMicrosoftMFAWait:
		return "microsoft_mfa_wait"
	default:
		return "unclassified"
	}
}

const (
	atlassianIDPrefix = "https://id.atlassian.com/"
	microsoftPrefix   = "https://login.microsoftonline.com/"
)

// IsTicketPage reports whether url is the detail view of the given ticket.
// Redirect variations are tolerated as long as the ticket path is present.
func IsTicketPage(url, ticketID string) bool {
	return strings.Contains(url, "/browse/"+ticketID)
}

// Classify maps a URL onto the identity-provider step it represents.
// Unrecognized URLs classify as unclassified, which the driver treats as
// "keep polling".
func Classify(url string) State {
	switch {
	case strings.HasPrefix(url, atlassianIDPrefix):
		if strings.Contains(url, "join/user-access") {
			return StateAtlassianAccountChooser
		}

		if strings.Contains(url, "login") {
			return StateAtlassianUsername
		}

		return StateUnclassified
	case strings.HasPrefix(url, microsoftPrefix):
		switch {
		case strings.Contains(url, "reprocess") || strings.Contains(url, "/SAS/"):
			return StateMicrosoftMFAWait
		case strings.Contains(url, "password"):
			return StateMicrosoftPassword
		default:
			return StateMicrosoftUsername
		}
	default:
		return StateUnclassified
	}
}
