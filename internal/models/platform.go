package models

import "fmt"

// Platform identifies one of the supported social networks. The set is
// closed; anything else is rejected at creation time.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{
	PlatformTwitter,
	PlatformFacebook,
	PlatformInstagram,
	PlatformTelegram,
	PlatformWhatsApp,
}

// ParsePlatform normalizes a platform name coming from the API layer.
// Both the lowercase wire form and the capitalized display form are accepted.
func ParsePlatform(name string) (Platform, error) {
	for _, p := range AllPlatforms {
		if string(p) == name || p.DisplayName() == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform: %s", name)
}

// DisplayName returns the capitalized form used by the UI.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformTwitter:
		return "Twitter"
	case PlatformFacebook:
		return "Facebook"
	case PlatformInstagram:
		return "Instagram"
	case PlatformTelegram:
		return "Telegram"
	case PlatformWhatsApp:
		return "WhatsApp"
	}
	return string(p)
}
