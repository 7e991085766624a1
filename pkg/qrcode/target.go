package qrcode

import (
	"Go-QR-Studio/pkg/menu"
	"strings"
)

const defaultBaseURL = "http://localhost:8080"

// TargetResolver builds the string encoded into a symbol.
type TargetResolver struct {
	baseURL string
	menus   menu.MenuLookup
}

func NewTargetResolver(baseURL string, menus menu.MenuLookup) TargetResolver {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if menus == nil {
		menus = menu.NewMenuLookup()
	}
	return TargetResolver{baseURL: baseURL, menus: menus}
}

// Resolve prefers customURL, then the menu link, then the bare base URL.
func (r TargetResolver) Resolve(customURL, menuID string) string {
	if customURL = strings.TrimSpace(customURL); customURL != "" {
		return customURL
	}
	if token := r.menus.ResolveToken(menuID); token != "" {
		return r.baseURL + "/menu/" + token
	}
	return r.baseURL
}
