package profiles

import (
	"fmt"
	"strings"
)

const (
	defaultNetworkHost   = "www.instagram.com"
	defaultNetworkMarker = "instagram.com"
	profileURLFormat     = "https://%s/%s/"
	handlePrefix         = "@"
)

// Network describes the profile network the lists were exported from.
type Network struct {
	// Host is used to synthesize canonical profile URLs.
	Host string
	// Marker is the domain substring that identifies a profile link in tabular data.
	Marker string
}

// DefaultNetwork returns the Instagram network settings.
func DefaultNetwork() Network {
	return Network{Host: defaultNetworkHost, Marker: defaultNetworkMarker}
}

// WithDefaults fills empty fields from DefaultNetwork.
func (network Network) WithDefaults() Network {
	defaults := DefaultNetwork()
	if strings.TrimSpace(network.Host) == "" {
		network.Host = defaults.Host
	}
	if strings.TrimSpace(network.Marker) == "" {
		network.Marker = defaults.Marker
	}
	return network
}

// CanonicalURL synthesizes the profile link for a username.
func (network Network) CanonicalURL(username string) string {
	return fmt.Sprintf(profileURLFormat, network.WithDefaults().Host, username)
}

// IsProfileLink reports whether the text references the network's domain.
func (network Network) IsProfileLink(text string) bool {
	return strings.Contains(text, network.WithDefaults().Marker)
}

// CanonicalURL synthesizes a profile link on the default network.
func CanonicalURL(username string) string {
	return DefaultNetwork().CanonicalURL(username)
}

// HandleLabel formats a username for display.
func HandleLabel(username string) string {
	trimmedUserName := strings.TrimSpace(username)
	if trimmedUserName == "" {
		return ""
	}
	return handlePrefix + trimmedUserName
}
