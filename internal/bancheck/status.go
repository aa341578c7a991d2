package bancheck

import (
	"github.com/lukastechs/twitch-ban/internal/twitch"
)

// Placeholder shown when an account has no avatar to offer: the banned, the
// nonexistent, and the ones that never uploaded a picture.
const placeholderAvatar = "https://static-cdn.jtvnw.net/jtv_user_pictures/xarth/404_user_70x70.png"

const (
	banStatusActive  = "no sitewide ban detected"
	banStatusBanned  = "banned or nonexistent"
	banStatusInvalid = "invalid username format"

	profileLinkInaccessible = "inaccessible"
)

// Status is the classification result for a single login, as served to API
// clients. Cached marks a response that was answered from the result cache
// rather than a fresh upstream lookup.
type Status struct {
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	Avatar      string `json:"avatar"`
	BanStatus   string `json:"ban_status"`
	ProfileLink string `json:"profile_link"`
	Cached      bool   `json:"cached,omitempty"`
}

// NewActiveStatus classifies a login that Helix resolved: no sitewide ban
// detected.
func NewActiveStatus(user *twitch.User) Status {
	nickname := user.DisplayName
	if nickname == "" {
		nickname = user.Login
	}

	avatar := user.ProfileImageURL
	if avatar == "" {
		avatar = placeholderAvatar
	}

	return Status{
		Username:    user.Login,
		Nickname:    nickname,
		Avatar:      avatar,
		BanStatus:   banStatusActive,
		ProfileLink: "https://www.twitch.tv/" + user.Login,
	}
}

// NewBannedStatus classifies a login Helix would not resolve: banned
// sitewide, or never registered. The public lookup cannot tell the two
// apart.
func NewBannedStatus(login string) Status {
	return Status{
		Username:    login,
		Nickname:    login,
		Avatar:      placeholderAvatar,
		BanStatus:   banStatusBanned,
		ProfileLink: profileLinkInaccessible,
	}
}

// NewInvalidStatus reports a login that fails the Twitch username format,
// answered without any upstream call.
func NewInvalidStatus(login string) Status {
	return Status{
		Username:    login,
		Nickname:    login,
		Avatar:      placeholderAvatar,
		BanStatus:   banStatusInvalid,
		ProfileLink: profileLinkInaccessible,
	}
}
